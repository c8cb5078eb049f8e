/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOneOrManyShapePreservation(t *testing.T) {
	type envelope struct {
		Type OneOrMany[string] `json:"type"`
	}

	t.Run("single value survives round trip as single", func(t *testing.T) {
		var decoded envelope

		require.NoError(t, json.Unmarshal([]byte(`{"type":"VerifiableCredential"}`), &decoded))
		require.True(t, decoded.Type.IsSingle())
		require.Equal(t, []string{"VerifiableCredential"}, decoded.Type.AsArray())

		encoded, err := json.Marshal(decoded)
		require.NoError(t, err)
		require.JSONEq(t, `{"type":"VerifiableCredential"}`, string(encoded))
	})

	t.Run("array survives round trip as array", func(t *testing.T) {
		var decoded envelope

		require.NoError(t, json.Unmarshal([]byte(`{"type":["VerifiableCredential","UniversityDegree"]}`), &decoded))
		require.False(t, decoded.Type.IsSingle())
		require.Equal(t, []string{"VerifiableCredential", "UniversityDegree"}, decoded.Type.AsArray())

		encoded, err := json.Marshal(decoded)
		require.NoError(t, err)
		require.JSONEq(t, `{"type":["VerifiableCredential","UniversityDegree"]}`, string(encoded))
	})

	t.Run("single-element array stays an array", func(t *testing.T) {
		var decoded envelope

		require.NoError(t, json.Unmarshal([]byte(`{"type":["VerifiableCredential"]}`), &decoded))
		require.False(t, decoded.Type.IsSingle())

		encoded, err := json.Marshal(decoded)
		require.NoError(t, err)
		require.JSONEq(t, `{"type":["VerifiableCredential"]}`, string(encoded))
	})

	t.Run("null is rejected", func(t *testing.T) {
		var decoded envelope

		err := json.Unmarshal([]byte(`{"type":null}`), &decoded)
		require.Error(t, err)
		require.Contains(t, err.Error(), "null is not accepted")
	})

	t.Run("incompatible value is rejected", func(t *testing.T) {
		var decoded envelope

		err := json.Unmarshal([]byte(`{"type":{"not":"a string"}}`), &decoded)
		require.Error(t, err)
	})
}

func TestOneOrManyEmptyMarshalsAsArray(t *testing.T) {
	t.Run("zero value", func(t *testing.T) {
		var zero OneOrMany[string]

		encoded, err := json.Marshal(zero)
		require.NoError(t, err)
		require.Equal(t, "[]", string(encoded))
	})

	t.Run("Many with nil slice", func(t *testing.T) {
		encoded, err := json.Marshal(Many[string](nil))
		require.NoError(t, err)
		require.Equal(t, "[]", string(encoded))
	})

	t.Run("output round-trips through unmarshal", func(t *testing.T) {
		var zero OneOrMany[string]

		encoded, err := json.Marshal(zero)
		require.NoError(t, err)

		var decoded OneOrMany[string]

		require.NoError(t, json.Unmarshal(encoded, &decoded))
		require.False(t, decoded.IsSingle())
		require.Empty(t, decoded.AsArray())
	})
}

func TestOneOrManyConstructors(t *testing.T) {
	one := One("a")
	require.True(t, one.IsSingle())
	require.Equal(t, []string{"a"}, one.AsArray())

	many := Many([]string{"a", "b"})
	require.False(t, many.IsSingle())
	require.Equal(t, []string{"a", "b"}, many.AsArray())
}

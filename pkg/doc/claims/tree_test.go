/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package claims

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFromJSON(t *testing.T) {
	t.Run("success - key order preserved", func(t *testing.T) {
		tree, err := BuildFromJSON([]byte(`{"z":1,"a":{"nested":"v"},"m":[1,2,3]}`))
		require.NoError(t, err)
		require.Len(t, tree.Root, 3)

		require.Equal(t, "z", tree.Root[0].Key)
		require.Equal(t, "a", tree.Root[1].Key)
		require.Equal(t, "m", tree.Root[2].Key)

		require.Equal(t, KindLeaf, tree.Root[0].Kind)
		require.Equal(t, KindObject, tree.Root[1].Kind)
		require.Equal(t, KindArray, tree.Root[2].Kind)
		require.Len(t, tree.Root[2].Children, 3)
	})

	t.Run("success - numbers preserved", func(t *testing.T) {
		tree, err := BuildFromJSON([]byte(`{"big":12345678901234567890}`))
		require.NoError(t, err)

		num, ok := tree.Root[0].Value.(json.Number)
		require.True(t, ok)
		require.Equal(t, "12345678901234567890", num.String())
	})

	t.Run("error - duplicate key", func(t *testing.T) {
		_, err := BuildFromJSON([]byte(`{"a":1,"a":2}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate claim key")
	})

	t.Run("error - top level not an object", func(t *testing.T) {
		_, err := BuildFromJSON([]byte(`[1,2,3]`))
		require.Error(t, err)
	})

	t.Run("error - invalid JSON", func(t *testing.T) {
		_, err := BuildFromJSON([]byte(`{`))
		require.Error(t, err)
	})
}

func TestBuild(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tree, err := Build(map[string]interface{}{
			"name": "alice",
			"address": map[string]interface{}{
				"city": "Toronto",
			},
		})
		require.NoError(t, err)
		require.Len(t, tree.Root, 2)

		// map keys are sorted
		require.Equal(t, "address", tree.Root[0].Key)
		require.Equal(t, "name", tree.Root[1].Key)
	})

	t.Run("error - scalar top level", func(t *testing.T) {
		_, err := Build("just a string")
		require.Error(t, err)
	})
}

func TestTreeInterface(t *testing.T) {
	original := map[string]interface{}{
		"name":    "alice",
		"degrees": []interface{}{"BSc", "MSc"},
		"address": map[string]interface{}{"city": "Toronto"},
	}

	tree, err := Build(original)
	require.NoError(t, err)

	require.Equal(t, original, tree.Interface())
}

func TestMarkDisclosable(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tree, err := BuildFromJSON([]byte(`{"vc":{"credentialSubject":{"name":"alice","age":30}}}`))
		require.NoError(t, err)

		require.NoError(t, tree.MarkDisclosable("vc.credentialSubject.name"))
		require.Equal(t, []string{"name"}, tree.DisclosableNames())
	})

	t.Run("error - unknown path", func(t *testing.T) {
		tree, err := BuildFromJSON([]byte(`{"a":1}`))
		require.NoError(t, err)

		err = tree.MarkDisclosable("a.b.c")
		require.Error(t, err)
		require.Contains(t, err.Error(), `no claim at path "a.b.c"`)
	})
}

func TestChild(t *testing.T) {
	tree, err := BuildFromJSON([]byte(`{"a":{"b":1}}`))
	require.NoError(t, err)

	require.NotNil(t, tree.Root[0].Child("b"))
	require.Nil(t, tree.Root[0].Child("missing"))
}

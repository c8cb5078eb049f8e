/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const proofRequestJSON = `{
  "name": "degree-check",
  "version": "1.0",
  "nonce": "1177620373",
  "requested_attributes": {
    "attr1_referent": {"name": "name"},
    "attr2_referent": {"names": ["degree", "year"]}
  },
  "requested_predicates": {
    "pred1_referent": {"name": "age", "p_type": ">=", "p_value": 18}
  }
}`

func TestParseProofRequest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		request, err := ParseProofRequest([]byte(proofRequestJSON))
		require.NoError(t, err)
		require.Equal(t, "degree-check", request.Name)
		require.Equal(t, "1177620373", request.Nonce)
		require.Len(t, request.RequestedAttributes, 2)
		require.Equal(t, []string{"degree", "year"}, request.RequestedAttributes["attr2_referent"].Names)
		require.Equal(t, ">=", request.RequestedPredicates["pred1_referent"].PType)
	})

	t.Run("error - empty", func(t *testing.T) {
		_, err := ParseProofRequest(nil)
		require.ErrorIs(t, err, ErrInsufficientRequest)
	})

	t.Run("error - malformed JSON", func(t *testing.T) {
		_, err := ParseProofRequest([]byte("{broken"))
		require.ErrorIs(t, err, ErrInsufficientRequest)
	})
}

func TestAutoAttributeMap(t *testing.T) {
	t.Run("reveals every requested attribute", func(t *testing.T) {
		request, err := ParseProofRequest([]byte(proofRequestJSON))
		require.NoError(t, err)

		attributes, err := request.AutoAttributeMap()
		require.NoError(t, err)
		require.Equal(t, map[string]bool{"attr1_referent": true, "attr2_referent": true}, attributes)
	})

	t.Run("error - request names nothing", func(t *testing.T) {
		request, err := ParseProofRequest([]byte(`{"name":"empty","version":"1.0"}`))
		require.NoError(t, err)

		_, err = request.AutoAttributeMap()
		require.ErrorIs(t, err, ErrInsufficientRequest)
	})

	t.Run("predicates alone are sufficient", func(t *testing.T) {
		request, err := ParseProofRequest([]byte(
			`{"requested_predicates":{"p1":{"name":"age","p_type":">=","p_value":18}}}`))
		require.NoError(t, err)

		attributes, err := request.AutoAttributeMap()
		require.NoError(t, err)
		require.Empty(t, attributes)
	})
}

func TestAutoPredicateList(t *testing.T) {
	request, err := ParseProofRequest([]byte(
		`{"requested_predicates":{"z_ref":{"name":"a"},"a_ref":{"name":"b"},"m_ref":{"name":"c"}}}`))
	require.NoError(t, err)

	require.Equal(t, []string{"a_ref", "m_ref", "z_ref"}, request.AutoPredicateList())
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/go-jose/go-jose/v3/json"
	"github.com/stretchr/testify/require"
)

func TestNewSignedAndParse(t *testing.T) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	claims := map[string]interface{}{"iss": "did:example:issuer", "sub": "did:example:alice"}

	t.Run("success - EdDSA", func(t *testing.T) {
		token, err := NewSigned(claims, nil, NewKeySigner(privKey, "key-1"))
		require.NoError(t, err)

		serialized, err := token.Serialize()
		require.NoError(t, err)

		parsed, err := Parse(serialized, WithSignatureVerifier(NewPublicKeyVerifier(pubKey)))
		require.NoError(t, err)
		require.Equal(t, "did:example:issuer", parsed.Payload["iss"])
		require.Equal(t, "EdDSA", parsed.LookupStringHeader(HeaderAlgorithm))
		require.Equal(t, "key-1", parsed.LookupStringHeader(HeaderKeyID))
	})

	t.Run("success - ES256", func(t *testing.T) {
		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		token, err := NewSigned(claims, nil, NewKeySigner(ecKey, ""))
		require.NoError(t, err)

		serialized, err := token.Serialize()
		require.NoError(t, err)

		parsed, err := Parse(serialized, WithSignatureVerifier(NewPublicKeyVerifier(&ecKey.PublicKey)))
		require.NoError(t, err)
		require.Equal(t, "ES256", parsed.LookupStringHeader(HeaderAlgorithm))
	})

	t.Run("error - tampered signature", func(t *testing.T) {
		token, err := NewSigned(claims, nil, NewKeySigner(privKey, ""))
		require.NoError(t, err)

		serialized, err := token.Serialize()
		require.NoError(t, err)

		tampered := serialized[:len(serialized)-4] + "AAAA"

		_, err = Parse(tampered, WithSignatureVerifier(NewPublicKeyVerifier(pubKey)))
		require.Error(t, err)
	})

	t.Run("error - wrong verification key", func(t *testing.T) {
		otherPub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		token, err := NewSigned(claims, nil, NewKeySigner(privKey, ""))
		require.NoError(t, err)

		serialized, err := token.Serialize()
		require.NoError(t, err)

		_, err = Parse(serialized, WithSignatureVerifier(NewPublicKeyVerifier(otherPub)))
		require.Error(t, err)
	})

	t.Run("success - parse without verifier is structural only", func(t *testing.T) {
		token, err := NewSigned(claims, nil, NewKeySigner(privKey, ""))
		require.NoError(t, err)

		serialized, err := token.Serialize()
		require.NoError(t, err)

		tampered := serialized[:len(serialized)-4] + "AAAA"

		parsed, err := Parse(tampered)
		require.NoError(t, err)
		require.Equal(t, "did:example:alice", parsed.Payload["sub"])
	})
}

func TestNewUnsecured(t *testing.T) {
	token, err := NewUnsecured(map[string]interface{}{"iss": "did:example:issuer"})
	require.NoError(t, err)

	serialized, err := token.Serialize()
	require.NoError(t, err)

	parsed, err := Parse(serialized)
	require.NoError(t, err)
	require.Equal(t, AlgorithmNone, parsed.LookupStringHeader(HeaderAlgorithm))
}

func TestParseErrors(t *testing.T) {
	t.Run("not compact JWS", func(t *testing.T) {
		_, err := Parse("not-a-jwt")
		require.Error(t, err)
		require.Contains(t, err.Error(), "compacted JWS")
	})

	t.Run("wrong typ header", func(t *testing.T) {
		headerJSON := `{"alg":"none","typ":"JWE"}`
		serialized := encodeSegment(t, headerJSON) + "." + encodeSegment(t, `{}`) + "."

		_, err := Parse(serialized)
		require.Error(t, err)
		require.Contains(t, err.Error(), "typ is not JWT")
	})

	t.Run("missing alg header", func(t *testing.T) {
		serialized := encodeSegment(t, `{"typ":"JWT"}`) + "." + encodeSegment(t, `{}`) + "."

		_, err := Parse(serialized)
		require.Error(t, err)
	})
}

func TestIsCompactJWS(t *testing.T) {
	require.True(t, IsCompactJWS(encodeSegment(t, `{"alg":"none"}`)+"."+encodeSegment(t, `{}`)+"."))
	require.False(t, IsCompactJWS("a.b"))
	require.False(t, IsCompactJWS("not base64 json.b.c"))
}

func TestDecodeClaims(t *testing.T) {
	token, err := NewUnsecured(map[string]interface{}{"iss": "did:example:issuer", "nonce": "abc123"})
	require.NoError(t, err)

	var decoded struct {
		Issuer string `json:"iss"`
		Nonce  string `json:"nonce"`
	}

	require.NoError(t, token.DecodeClaims(&decoded))
	require.Equal(t, "did:example:issuer", decoded.Issuer)
	require.Equal(t, "abc123", decoded.Nonce)
}

func TestPayloadToMapPreservesNumbers(t *testing.T) {
	payload, err := PayloadToMap([]byte(`{"big":12345678901234567890}`))
	require.NoError(t, err)

	num, ok := payload["big"].(json.Number)
	require.True(t, ok)
	require.Equal(t, "12345678901234567890", num.String())
}

func encodeSegment(t *testing.T, jsonStr string) string {
	t.Helper()

	return base64.RawURLEncoding.EncodeToString([]byte(jsonStr))
}

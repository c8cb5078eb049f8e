/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openwallet-foundation/walletcore/pkg/doc/jwt"
	"github.com/openwallet-foundation/walletcore/pkg/doc/sdjwt"
)

const anonCredsJSON = `{
  "schema_id": "did:example:issuer/schema/degree/1.0",
  "cred_def_id": "did:example:issuer/creddef/degree",
  "link_secret_id": "secret-1",
  "values": {
    "name": {"raw": "alice", "encoded": "1139481716457488690172217916278103335"},
    "degree": {"raw": "BSc"}
  }
}`

func newJWTCredential(t *testing.T) string {
	t.Helper()

	_, privKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	token, err := jwt.NewSigned(map[string]interface{}{
		"iss": "did:example:issuer",
		"sub": "did:example:alice",
		"jti": "urn:uuid:cred-1",
		"vc": map[string]interface{}{
			"credentialSubject": map[string]interface{}{"name": "alice"},
		},
	}, nil, jwt.NewKeySigner(privKey, "issuer-key"))
	require.NoError(t, err)

	serialized, err := token.Serialize()
	require.NoError(t, err)

	return serialized
}

func newSDJWTCredential(t *testing.T) (string, string) {
	t.Helper()

	_, privKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	disclosure, err := sdjwt.NewDisclosure("name", "alice")
	require.NoError(t, err)

	digest, err := sdjwt.GetHash(sdjwt.DefaultHash, disclosure)
	require.NoError(t, err)

	token, err := jwt.NewSigned(map[string]interface{}{
		"iss":                "did:example:issuer",
		"sub":                "did:example:alice",
		"jti":                "urn:uuid:cred-2",
		sdjwt.SDKey:          []interface{}{digest},
		sdjwt.SDAlgorithmKey: "sha-256",
	}, nil, jwt.NewKeySigner(privKey, "issuer-key"))
	require.NoError(t, err)

	serialized, err := token.Serialize()
	require.NoError(t, err)

	combined := &sdjwt.CombinedFormatForIssuance{SDJWT: serialized, Disclosures: []string{disclosure}}

	return combined.Serialize(), disclosure
}

func TestParse(t *testing.T) {
	t.Run("sniffs JWT", func(t *testing.T) {
		cred, err := Parse([]byte(newJWTCredential(t)))
		require.NoError(t, err)
		require.Equal(t, FormatJWT, cred.Format())
		require.Equal(t, "did:example:issuer", cred.Issuer())
		require.Equal(t, "did:example:alice", cred.Subject())
		require.Equal(t, "urn:uuid:cred-1", cred.ID())
	})

	t.Run("sniffs SD-JWT", func(t *testing.T) {
		combined, _ := newSDJWTCredential(t)

		cred, err := Parse([]byte(combined))
		require.NoError(t, err)
		require.Equal(t, FormatSDJWT, cred.Format())

		sdCred, ok := cred.(*SDJWTCredential)
		require.True(t, ok)
		require.Len(t, sdCred.Disclosed, 1)
		require.Equal(t, "name", sdCred.Disclosed[0].Name)
	})

	t.Run("sniffs anoncreds", func(t *testing.T) {
		cred, err := Parse([]byte(anonCredsJSON))
		require.NoError(t, err)
		require.Equal(t, FormatAnonCreds, cred.Format())

		zkp, ok := cred.(*ZKPCredentialStack)
		require.True(t, ok)
		require.Equal(t, "did:example:issuer/schema/degree/1.0", zkp.SchemaID)
		require.Equal(t, "alice", zkp.Attributes["name"])
		require.Equal(t, "secret-1", zkp.ProofLinkSecretRef)
	})

	t.Run("hint wins over sniffing", func(t *testing.T) {
		cred, err := Parse([]byte(newJWTCredential(t)), HintJWT)
		require.NoError(t, err)
		require.Equal(t, FormatJWT, cred.Format())
	})

	t.Run("error - nothing matches", func(t *testing.T) {
		_, err := Parse([]byte(`{"plain":"json"}`))
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("error - hint does not fit payload", func(t *testing.T) {
		_, err := Parse([]byte(`{"plain":"json"}`), HintJWT)
		require.Error(t, err)
	})
}

func TestRestore(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		serialized := newJWTCredential(t)

		cred, err := Parse([]byte(serialized))
		require.NoError(t, err)

		restored, err := Restore(string(cred.Format()), cred.Bytes())
		require.NoError(t, err)
		require.Equal(t, cred.Format(), restored.Format())
		require.Equal(t, cred.ID(), restored.ID())
	})

	t.Run("error - unknown recovery id", func(t *testing.T) {
		_, err := Restore("unknown+credential", []byte("data"))
		require.ErrorIs(t, err, ErrRestorationFailed)
	})

	t.Run("error - bytes do not parse", func(t *testing.T) {
		_, err := Restore(string(FormatJWT), []byte("garbage"))
		require.ErrorIs(t, err, ErrRestorationFailed)
	})
}

func TestSDJWTCredentialClaims(t *testing.T) {
	combined, _ := newSDJWTCredential(t)

	cred, err := ParseSDJWTCredential(combined)
	require.NoError(t, err)

	tree, err := cred.Claims()
	require.NoError(t, err)

	merged := tree.Interface()
	require.Equal(t, "alice", merged["name"])
	require.NotContains(t, merged, sdjwt.SDKey)
	require.NotContains(t, merged, sdjwt.SDAlgorithmKey)
}

func TestSDJWTCredentialClaimsNestedDigest(t *testing.T) {
	_, privKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	disclosure, err := sdjwt.NewDisclosure("name", "alice")
	require.NoError(t, err)

	digest, err := sdjwt.GetHash(sdjwt.DefaultHash, disclosure)
	require.NoError(t, err)

	// the digest sits under credentialSubject, not at the top level
	token, err := jwt.NewSigned(map[string]interface{}{
		"iss": "did:example:issuer",
		"credentialSubject": map[string]interface{}{
			"degree":    "BSc",
			sdjwt.SDKey: []interface{}{digest},
		},
		sdjwt.SDAlgorithmKey: "sha-256",
	}, nil, jwt.NewKeySigner(privKey, "issuer-key"))
	require.NoError(t, err)

	serialized, err := token.Serialize()
	require.NoError(t, err)

	combined := &sdjwt.CombinedFormatForIssuance{SDJWT: serialized, Disclosures: []string{disclosure}}

	cred, err := ParseSDJWTCredential(combined.Serialize())
	require.NoError(t, err)

	tree, err := cred.Claims()
	require.NoError(t, err)

	merged := tree.Interface()

	subject, ok := merged["credentialSubject"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "alice", subject["name"])
	require.Equal(t, "BSc", subject["degree"])
	require.NotContains(t, subject, sdjwt.SDKey)
	require.NotContains(t, merged, sdjwt.SDAlgorithmKey)
}

func TestParseSDJWTCredentialBadDisclosure(t *testing.T) {
	combined, _ := newSDJWTCredential(t)

	// swap in a disclosure whose digest the payload does not carry
	foreign, err := sdjwt.NewDisclosure("age", 30)
	require.NoError(t, err)

	tampered := sdjwt.ParseCombinedFormatForIssuance(combined)
	tampered.Disclosures = []string{foreign}

	_, err = ParseSDJWTCredential(tampered.Serialize())
	require.Error(t, err)
	require.Contains(t, err.Error(), "verify SD-JWT disclosures")
}

func TestParseZKPCredentialErrors(t *testing.T) {
	t.Run("missing identifiers", func(t *testing.T) {
		_, err := ParseZKPCredential([]byte(`{"schema_id":"s"}`))
		require.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseZKPCredential([]byte("nope"))
		require.Error(t, err)
	})
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/go-jose/go-jose/v3"
	"github.com/multiformats/go-multibase"
	"github.com/stretchr/testify/require"

	"github.com/openwallet-foundation/walletcore/pkg/credential"
	diddoc "github.com/openwallet-foundation/walletcore/pkg/doc/did"
	"github.com/openwallet-foundation/walletcore/pkg/doc/jwt"
	"github.com/openwallet-foundation/walletcore/pkg/doc/sdjwt"
)

// testIdentity is a DID with an Ed25519 assertion key and the document
// publishing it.
type testIdentity struct {
	did  string
	priv ed25519.PrivateKey
	doc  *diddoc.Doc
}

func newIdentity(t *testing.T, did string) *testIdentity {
	t.Helper()

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	encoded, err := multibase.Encode(multibase.Base58BTC, append([]byte{0xed, 0x01}, pubKey...))
	require.NoError(t, err)

	vmID := did + "#key-1"

	return &testIdentity{
		did:  did,
		priv: privKey,
		doc: &diddoc.Doc{
			Context: []string{diddoc.ContextV1},
			ID:      did,
			VerificationMethod: []diddoc.VerificationMethod{
				{ID: vmID, Controller: did, Type: "Ed25519VerificationKey2018", PublicKeyMultibase: encoded},
			},
			AssertionMethod: []string{vmID},
		},
	}
}

func (i *testIdentity) signer() jwt.Signer {
	return jwt.NewKeySigner(i.priv, i.did+"#key-1")
}

func storedJWK(identity *testIdentity) *jose.JSONWebKey {
	return &jose.JSONWebKey{Key: identity.priv, KeyID: identity.did + "#key-1"}
}

// docResolver resolves the given identities and nothing else.
type docResolver struct {
	identities []*testIdentity
}

func (r *docResolver) Resolve(_ context.Context, did string) (*diddoc.Doc, error) {
	for _, identity := range r.identities {
		if identity.did == did {
			return identity.doc, nil
		}
	}

	return nil, vdrNotFoundError(did)
}

type vdrNotFoundError string

func (e vdrNotFoundError) Error() string { return "DID not found: " + string(e) }

func issueJWTCredential(t *testing.T, issuer *testIdentity, subjectDID, testValue string) *credential.JWTCredential {
	t.Helper()

	token, err := jwt.NewSigned(map[string]interface{}{
		"iss": issuer.did,
		"sub": subjectDID,
		"jti": "urn:uuid:test-credential",
		"vc": map[string]interface{}{
			"credentialSubject": map[string]interface{}{"test": testValue},
		},
	}, nil, issuer.signer())
	require.NoError(t, err)

	serialized, err := token.Serialize()
	require.NoError(t, err)

	cred, err := credential.ParseJWTCredential(serialized)
	require.NoError(t, err)

	return cred
}

func issueSDJWTCredential(t *testing.T, issuer *testIdentity, subjectDID string,
	disclosable map[string]interface{}) *credential.SDJWTCredential {
	t.Helper()

	payload := map[string]interface{}{
		"iss":                issuer.did,
		"sub":                subjectDID,
		sdjwt.SDAlgorithmKey: "sha-256",
	}

	var (
		digests     []interface{}
		disclosures []string
	)

	for name, value := range disclosable {
		disclosure, err := sdjwt.NewDisclosure(name, value)
		require.NoError(t, err)

		digest, err := sdjwt.GetHash(sdjwt.DefaultHash, disclosure)
		require.NoError(t, err)

		disclosures = append(disclosures, disclosure)
		digests = append(digests, digest)
	}

	payload[sdjwt.SDKey] = digests

	token, err := jwt.NewSigned(payload, nil, issuer.signer())
	require.NoError(t, err)

	serialized, err := token.Serialize()
	require.NoError(t, err)

	combined := &sdjwt.CombinedFormatForIssuance{SDJWT: serialized, Disclosures: disclosures}

	cred, err := credential.ParseSDJWTCredential(combined.Serialize())
	require.NoError(t, err)

	return cred
}

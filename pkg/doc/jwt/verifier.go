/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
	"fmt"
	"math/big"
)

const (
	// signatureEdDSA defines EdDSA alg.
	signatureEdDSA = "EdDSA"

	// signatureES256 defines ES256 alg.
	signatureES256 = "ES256"

	es256SignatureSize = 64
)

// PublicKeyVerifier verifies token signatures against a known public key,
// dispatching on the token's alg header.
type PublicKeyVerifier struct {
	pubKey crypto.PublicKey
}

// NewPublicKeyVerifier creates a verifier for the given public key.
func NewPublicKeyVerifier(pubKey crypto.PublicKey) *PublicKeyVerifier {
	return &PublicKeyVerifier{pubKey: pubKey}
}

// Verify implements SignatureVerifier.
func (v *PublicKeyVerifier) Verify(headers Headers, _, signingInput, signature []byte) error {
	alg, ok := headers.Algorithm()
	if !ok {
		return errors.New("alg is not defined")
	}

	switch alg {
	case signatureEdDSA:
		return VerifyEdDSA(v.pubKey, signingInput, signature)
	case signatureES256:
		return VerifyES256(v.pubKey, signingInput, signature)
	default:
		return fmt.Errorf("unsupported alg: %s", alg)
	}
}

// VerifyEdDSA verifies EdDSA signature.
func VerifyEdDSA(pubKey interface{}, message, signature []byte) error {
	pubKeyEdDSA, ok := pubKey.([]byte)
	if !ok {
		var okTyped bool

		pubKeyEdDSA, okTyped = pubKey.(ed25519.PublicKey)
		if !okTyped {
			return errors.New("not []byte or ed25519.PublicKey public key")
		}
	}

	if l := len(pubKeyEdDSA); l != ed25519.PublicKeySize {
		return errors.New("bad ed25519 public key length")
	}

	if ok := ed25519.Verify(pubKeyEdDSA, message, signature); !ok {
		return errors.New("signature doesn't match")
	}

	return nil
}

// VerifyES256 verifies an ES256 (P-256, raw R||S) signature.
func VerifyES256(pubKey interface{}, message, signature []byte) error {
	pubKeyEC, ok := pubKey.(*ecdsa.PublicKey)
	if !ok {
		return errors.New("not *ecdsa.PublicKey public key")
	}

	if len(signature) != es256SignatureSize {
		return fmt.Errorf("bad ES256 signature length %d", len(signature))
	}

	hash := crypto.SHA256.New()

	_, err := hash.Write(message)
	if err != nil {
		return err
	}

	hashed := hash.Sum(nil)

	r := new(big.Int).SetBytes(signature[:es256SignatureSize/2])
	s := new(big.Int).SetBytes(signature[es256SignatureSize/2:])

	if !ecdsa.Verify(pubKeyEC, hashed, r, s) {
		return errors.New("signature doesn't match")
	}

	return nil
}

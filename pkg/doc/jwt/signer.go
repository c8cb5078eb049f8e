/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// KeySigner signs JWS inputs with a restored private key. It covers the two
// curves credentials in this engine are issued on: Ed25519 (EdDSA) and
// NIST P-256 (ES256, raw R||S encoding).
type KeySigner struct {
	key crypto.Signer
	kid string
}

// NewKeySigner creates a Signer backed by the given private key. kid is
// optional and emitted as the JOSE kid header when set.
func NewKeySigner(key crypto.Signer, kid string) *KeySigner {
	return &KeySigner{key: key, kid: kid}
}

// Sign signs the JWS signing input.
func (s *KeySigner) Sign(data []byte) ([]byte, error) {
	switch key := s.key.(type) {
	case ed25519.PrivateKey:
		return ed25519.Sign(key, data), nil
	case *ecdsa.PrivateKey:
		return signES256(key, data)
	default:
		return nil, fmt.Errorf("unsupported signing key type %T", s.key)
	}
}

// Headers returns the JOSE headers implied by the key type.
func (s *KeySigner) Headers() Headers {
	headers := Headers{}

	switch s.key.(type) {
	case ed25519.PrivateKey:
		headers[HeaderAlgorithm] = signatureEdDSA
	case *ecdsa.PrivateKey:
		headers[HeaderAlgorithm] = signatureES256
	}

	if s.kid != "" {
		headers[HeaderKeyID] = s.kid
	}

	return headers
}

func signES256(key *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	hash := crypto.SHA256.New()

	_, err := hash.Write(data)
	if err != nil {
		return nil, err
	}

	hashed := hash.Sum(nil)

	r, s, err := ecdsa.Sign(rand.Reader, key, hashed)
	if err != nil {
		return nil, fmt.Errorf("ES256 sign: %w", err)
	}

	const keySize = es256SignatureSize / 2

	signature := make([]byte, es256SignatureSize)
	r.FillBytes(signature[:keySize])
	s.FillBytes(signature[keySize:])

	return signature, nil
}

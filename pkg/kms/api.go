/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package kms declares the key-store collaborator interfaces the engine reads
// through. Key persistence and its concurrency discipline live outside this
// module; the engine never assumes exclusivity over the store.
package kms

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v3"
)

// Key errors.
var (
	// ErrCannotRestoreKey means a stored key could not be rebuilt into a
	// usable private key.
	ErrCannotRestoreKey = errors.New("cannot restore key")
	// ErrRequiresExportableKey means no qualifying exportable signing key
	// exists for the operation.
	ErrRequiresExportableKey = errors.New("operation requires an exportable key")
)

// MasterKeyID is the reserved identifier of the wallet master key, never
// selected for presentation signing.
const MasterKeyID = "master"

// StoredKey is a key record read from the external store. Exportable keys
// expose a JWK-shaped view of their material.
type StoredKey struct {
	ID         string
	Curve      string
	Exportable bool
	JWK        *jose.JSONWebKey
}

// KeyStore is the external key/credential store read-through interface.
type KeyStore interface {
	// AllKeys lists every stored key.
	AllKeys() ([]*StoredKey, error)
	// DIDPrivateKeys lists the private keys bound to a DID, nil when none.
	DIDPrivateKeys(did string) ([]*StoredKey, error)
	// LinkSecret returns the holder's link secret, nil when absent.
	LinkSecret() (*StoredKey, error)
}

// KeyRestoration rebuilds a usable private key from its stored form.
type KeyRestoration interface {
	RestorePrivateKey(key *StoredKey) (crypto.Signer, error)
}

// JWKRestorer restores private keys from the JWK view of a stored key.
type JWKRestorer struct{}

// RestorePrivateKey implements KeyRestoration.
func (JWKRestorer) RestorePrivateKey(key *StoredKey) (crypto.Signer, error) {
	if key == nil || key.JWK == nil {
		return nil, fmt.Errorf("%w: no JWK material", ErrCannotRestoreKey)
	}

	switch typed := key.JWK.Key.(type) {
	case ed25519.PrivateKey:
		return typed, nil
	case *ecdsa.PrivateKey:
		return typed, nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrCannotRestoreKey, key.JWK.Key)
	}
}

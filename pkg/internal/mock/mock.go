/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mock provides shared test doubles for the engine's collaborator
// interfaces.
package mock

import (
	"context"

	"github.com/openwallet-foundation/walletcore/pkg/anoncreds"
	"github.com/openwallet-foundation/walletcore/pkg/credential"
	diddoc "github.com/openwallet-foundation/walletcore/pkg/doc/did"
	"github.com/openwallet-foundation/walletcore/pkg/doc/jwt"
	"github.com/openwallet-foundation/walletcore/pkg/kms"
)

// KeyStore is a mock kms.KeyStore.
type KeyStore struct {
	AllKeysValue    []*kms.StoredKey
	AllKeysErr      error
	DIDKeys         map[string][]*kms.StoredKey
	DIDKeysErr      error
	LinkSecretValue *kms.StoredKey
	LinkSecretErr   error
}

// AllKeys implements kms.KeyStore.
func (s *KeyStore) AllKeys() ([]*kms.StoredKey, error) {
	return s.AllKeysValue, s.AllKeysErr
}

// DIDPrivateKeys implements kms.KeyStore.
func (s *KeyStore) DIDPrivateKeys(did string) ([]*kms.StoredKey, error) {
	if s.DIDKeysErr != nil {
		return nil, s.DIDKeysErr
	}

	return s.DIDKeys[did], nil
}

// LinkSecret implements kms.KeyStore.
func (s *KeyStore) LinkSecret() (*kms.StoredKey, error) {
	return s.LinkSecretValue, s.LinkSecretErr
}

// Resolver is a mock DID resolver satisfying both the chain and the verifier
// resolver interfaces.
type Resolver struct {
	AcceptValue  bool
	ResolveFunc  func(ctx context.Context, didID string) (*diddoc.Doc, error)
	ResolveValue *diddoc.Doc
	ResolveErr   error

	ResolveCalls []string
}

// Accept implements vdr.Resolver.
func (r *Resolver) Accept(string) bool {
	return r.AcceptValue
}

// Resolve implements vdr.Resolver.
func (r *Resolver) Resolve(ctx context.Context, didID string) (*diddoc.Doc, error) {
	r.ResolveCalls = append(r.ResolveCalls, didID)

	if r.ResolveFunc != nil {
		return r.ResolveFunc(ctx, didID)
	}

	return r.ResolveValue, r.ResolveErr
}

// CountingSigner is a jwt.Signer recording how many times Sign runs.
type CountingSigner struct {
	Inner     jwt.Signer
	SignCount int
}

// Sign implements jwt.Signer.
func (s *CountingSigner) Sign(data []byte) ([]byte, error) {
	s.SignCount++

	return s.Inner.Sign(data)
}

// Headers implements jwt.Signer.
func (s *CountingSigner) Headers() jwt.Headers {
	return s.Inner.Headers()
}

// Prover is a mock anoncreds.Prover.
type Prover struct {
	CreateProofFunc func(ctx context.Context, request *anoncreds.ProofRequest,
		cred *credential.ZKPCredentialStack, linkSecret string,
		attributes map[string]bool, predicates []string) ([]byte, error)
	ProofValue []byte
	Err        error
}

// CreateProof implements anoncreds.Prover.
func (p *Prover) CreateProof(ctx context.Context, request *anoncreds.ProofRequest,
	cred *credential.ZKPCredentialStack, linkSecret string,
	attributes map[string]bool, predicates []string) ([]byte, error) {
	if p.CreateProofFunc != nil {
		return p.CreateProofFunc(ctx, request, cred, linkSecret, attributes, predicates)
	}

	return p.ProofValue, p.Err
}

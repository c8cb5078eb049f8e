/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vdr provides the DID resolution chain: an ordered list of
// per-method resolvers tried in fixed priority. Fallback between resolvers is
// explicit control flow; the chain itself never caches across calls.
package vdr

import (
	"context"
	"errors"
	"fmt"

	diddoc "github.com/openwallet-foundation/walletcore/pkg/doc/did"
)

// Resolution errors.
var (
	// ErrUnsupportedDIDMethod means no resolver in the chain accepts the DID's
	// method.
	ErrUnsupportedDIDMethod = errors.New("did method not supported for resolver chain")
	// ErrNotFound means the DID does not exist at its resolution endpoint.
	ErrNotFound = errors.New("DID does not exist")
)

// Resolver resolves DIDs of the method it accepts to a document carrying
// verification keys.
type Resolver interface {
	// Accept reports whether the resolver handles the given DID method.
	Accept(method string) bool
	// Resolve fetches the DID document, propagating the caller's deadline.
	Resolve(ctx context.Context, didID string) (*diddoc.Doc, error)
}

// Option is a registry instance option.
type Option func(registry *Registry)

// Registry is the ordered resolver chain.
type Registry struct {
	resolvers []Resolver
}

// New returns a new resolver registry.
func New(opts ...Option) *Registry {
	registry := &Registry{}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

// WithResolver appends a resolver to the chain. Order of registration is the
// fixed resolution priority.
func WithResolver(resolver Resolver) Option {
	return func(registry *Registry) {
		registry.resolvers = append(registry.resolvers, resolver)
	}
}

// Resolve resolves a DID document through the first resolver accepting the
// DID's method.
func (r *Registry) Resolve(ctx context.Context, didID string) (*diddoc.Doc, error) {
	method, err := diddoc.Method(didID)
	if err != nil {
		return nil, err
	}

	for _, resolver := range r.resolvers {
		if resolver.Accept(method) {
			return resolver.Resolve(ctx, didID)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDIDMethod, method)
}

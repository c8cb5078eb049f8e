/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package prism composes the prism-method resolution strategy: try the
// short-form endpoint resolver first, and only when that fails and the DID is
// long form, fall back to local long-form derivation. A short-form DID's
// failure is rethrown unchanged.
package prism

import (
	"context"

	diddoc "github.com/openwallet-foundation/walletcore/pkg/doc/did"
	"github.com/openwallet-foundation/walletcore/pkg/vdr"
)

const methodPrism = "prism"

// Resolver is the composite prism resolver.
type Resolver struct {
	shortForm vdr.Resolver
	longForm  vdr.Resolver
}

// New composes the short-form and long-form resolvers.
func New(shortForm, longForm vdr.Resolver) *Resolver {
	return &Resolver{shortForm: shortForm, longForm: longForm}
}

// Accept implements vdr.Resolver.
func (r *Resolver) Accept(method string) bool {
	return method == methodPrism
}

// Resolve implements vdr.Resolver.
func (r *Resolver) Resolve(ctx context.Context, didID string) (*diddoc.Doc, error) {
	doc, err := r.shortForm.Resolve(ctx, didID)
	if err == nil {
		return doc, nil
	}

	if diddoc.IsLongForm(didID) {
		return r.longForm.Resolve(ctx, didID)
	}

	return nil, err
}

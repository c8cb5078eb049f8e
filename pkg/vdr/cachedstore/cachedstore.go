/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cachedstore decorates a resolver with an expiring document cache.
// The resolution chain itself never caches; callers wanting caching wrap the
// chain in this decorator explicitly.
package cachedstore

import (
	"context"
	"time"

	"github.com/bluele/gcache"

	diddoc "github.com/openwallet-foundation/walletcore/pkg/doc/did"
	"github.com/openwallet-foundation/walletcore/pkg/vdr"
)

const defaultCacheSize = 100

// Resolver caches resolved documents for a bounded time.
type Resolver struct {
	inner vdr.Resolver
	cache gcache.Cache
}

// New wraps inner with an LRU cache of the given TTL.
func New(inner vdr.Resolver, ttl time.Duration) *Resolver {
	return &Resolver{
		inner: inner,
		cache: gcache.New(defaultCacheSize).LRU().Expiration(ttl).Build(),
	}
}

// Accept implements vdr.Resolver.
func (r *Resolver) Accept(method string) bool {
	return r.inner.Accept(method)
}

// Resolve implements vdr.Resolver.
func (r *Resolver) Resolve(ctx context.Context, didID string) (*diddoc.Doc, error) {
	if cached, err := r.cache.Get(didID); err == nil {
		if doc, ok := cached.(*diddoc.Doc); ok {
			return doc, nil
		}
	}

	doc, err := r.inner.Resolve(ctx, didID)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(didID, doc)

	return doc, nil
}

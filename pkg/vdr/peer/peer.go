/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package peer resolves self-certifying peer DIDs. A numalgo-0 peer DID
// carries its single verification key as a multibase fingerprint in the
// method-specific id, so the document derives locally with no network call.
package peer

import (
	"context"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"

	diddoc "github.com/openwallet-foundation/walletcore/pkg/doc/did"
)

const (
	methodPeer = "peer"

	ed25519VerificationKey2018 = "Ed25519VerificationKey2018"

	numalgoInceptionKey = '0'
)

// Resolver resolves peer DIDs.
type Resolver struct{}

// New creates the peer DID resolver.
func New() *Resolver {
	return &Resolver{}
}

// Accept implements vdr.Resolver.
func (r *Resolver) Accept(method string) bool {
	return method == methodPeer
}

// Resolve implements vdr.Resolver.
func (r *Resolver) Resolve(_ context.Context, didID string) (*diddoc.Doc, error) {
	msid := strings.TrimPrefix(didID, "did:peer:")
	if msid == didID || msid == "" {
		return nil, fmt.Errorf("not a peer DID: %s", didID)
	}

	if msid[0] != numalgoInceptionKey {
		return nil, fmt.Errorf("unsupported peer DID numalgo %q", msid[0])
	}

	fingerprint := msid[1:]

	pubKey, err := PubKeyFromFingerprint(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("derive peer DID key: %w", err)
	}

	encoded, err := multibase.Encode(multibase.Base58BTC, append(multicodec(ed25519pub), pubKey...))
	if err != nil {
		return nil, fmt.Errorf("encode peer DID key: %w", err)
	}

	vmID := didID + "#" + fingerprint

	return &diddoc.Doc{
		Context: []string{diddoc.ContextV1},
		ID:      didID,
		VerificationMethod: []diddoc.VerificationMethod{
			{
				ID:                 vmID,
				Controller:         didID,
				Type:               ed25519VerificationKey2018,
				PublicKeyMultibase: encoded,
			},
		},
		Authentication:  []string{vmID},
		AssertionMethod: []string{vmID},
	}, nil
}

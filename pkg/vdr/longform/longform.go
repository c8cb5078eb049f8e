/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package longform derives DID documents from long-form DIDs without a
// network call. A long-form DID carries its initial document state as a
// base64url segment appended to the short form; the state is self-certifying
// and decodes locally.
package longform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v3"

	diddoc "github.com/openwallet-foundation/walletcore/pkg/doc/did"
)

const (
	methodPrism = "prism"

	numPartsLongForm = 4
	stateIndex       = 3
)

// initialState is the self-describing document state encoded into the DID.
type initialState struct {
	PublicKeys []initialKey     `json:"publicKeys"`
	Services   []diddoc.Service `json:"services,omitempty"`
}

type initialKey struct {
	ID                 string           `json:"id"`
	Purposes           []string         `json:"purposes"`
	PublicKeyJWK       *jose.JSONWebKey `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string           `json:"publicKeyMultibase,omitempty"`
}

// Resolver derives documents from long-form prism DIDs.
type Resolver struct{}

// New creates the long-form resolver.
func New() *Resolver {
	return &Resolver{}
}

// Accept implements vdr.Resolver.
func (r *Resolver) Accept(method string) bool {
	return method == methodPrism
}

// Resolve implements vdr.Resolver. No network is involved.
func (r *Resolver) Resolve(_ context.Context, didID string) (*diddoc.Doc, error) {
	parts := strings.Split(didID, ":")
	if len(parts) < numPartsLongForm {
		return nil, fmt.Errorf("did %q is not long form", didID)
	}

	stateBytes, err := base64.RawURLEncoding.DecodeString(parts[stateIndex])
	if err != nil {
		return nil, fmt.Errorf("decode long form state: %w", err)
	}

	var state initialState

	if err := json.Unmarshal(stateBytes, &state); err != nil {
		return nil, fmt.Errorf("unmarshal long form state: %w", err)
	}

	if len(state.PublicKeys) == 0 {
		return nil, fmt.Errorf("long form state of %q carries no public keys", didID)
	}

	// the document id is the short form; the state segment is derivation
	// input only
	shortForm := strings.Join(parts[:numPartsLongForm-1], ":")

	doc := &diddoc.Doc{
		Context: []string{diddoc.ContextV1},
		ID:      shortForm,
		Service: state.Services,
	}

	for _, key := range state.PublicKeys {
		vmID := shortForm + "#" + key.ID

		doc.VerificationMethod = append(doc.VerificationMethod, diddoc.VerificationMethod{
			ID:                 vmID,
			Controller:         shortForm,
			Type:               "JsonWebKey2020",
			PublicKeyJWK:       key.PublicKeyJWK,
			PublicKeyMultibase: key.PublicKeyMultibase,
		})

		for _, purpose := range key.Purposes {
			switch purpose {
			case "authentication":
				doc.Authentication = append(doc.Authentication, vmID)
			case "assertionMethod":
				doc.AssertionMethod = append(doc.AssertionMethod, vmID)
			case "keyAgreement":
				doc.KeyAgreement = append(doc.KeyAgreement, vmID)
			}
		}
	}

	return doc, nil
}

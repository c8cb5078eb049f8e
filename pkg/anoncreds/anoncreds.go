/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anoncreds models AnonCreds-style proof requests and the
// zero-knowledge proof-generation capability. Proof math itself is an
// external capability behind the Prover interface.
package anoncreds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/openwallet-foundation/walletcore/pkg/credential"
)

// ErrInsufficientRequest means the proof-request JSON is absent or malformed
// and the required attribute/predicate maps cannot be computed from it.
var ErrInsufficientRequest = errors.New("message does not provide enough information")

// AttributeInfo describes a requested attribute.
type AttributeInfo struct {
	Name         string                   `mapstructure:"name"`
	Names        []string                 `mapstructure:"names"`
	Restrictions []map[string]interface{} `mapstructure:"restrictions"`
}

// PredicateInfo describes a requested predicate.
type PredicateInfo struct {
	Name   string      `mapstructure:"name"`
	PType  string      `mapstructure:"p_type"`
	PValue interface{} `mapstructure:"p_value"`
}

// ProofRequest is a decoded anoncreds proof request.
type ProofRequest struct {
	Name                string                   `mapstructure:"name"`
	Version             string                   `mapstructure:"version"`
	Nonce               string                   `mapstructure:"nonce"`
	RequestedAttributes map[string]AttributeInfo `mapstructure:"requested_attributes"`
	RequestedPredicates map[string]PredicateInfo `mapstructure:"requested_predicates"`
}

// ParseProofRequest decodes proof-request JSON. Absent or malformed JSON
// fails with ErrInsufficientRequest.
func ParseProofRequest(data []byte) (*ProofRequest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty proof request", ErrInsufficientRequest)
	}

	var raw map[string]interface{}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientRequest, err)
	}

	request := &ProofRequest{}

	if err := mapstructure.Decode(raw, request); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientRequest, err)
	}

	return request, nil
}

// AutoAttributeMap computes the revealed-attribute map when the caller
// supplies none: every requested attribute is revealed.
func (r *ProofRequest) AutoAttributeMap() (map[string]bool, error) {
	if len(r.RequestedAttributes) == 0 && len(r.RequestedPredicates) == 0 {
		return nil, fmt.Errorf("%w: request names no attributes or predicates", ErrInsufficientRequest)
	}

	attributes := make(map[string]bool, len(r.RequestedAttributes))
	for referent := range r.RequestedAttributes {
		attributes[referent] = true
	}

	return attributes, nil
}

// AutoPredicateList computes the predicate referent list when the caller
// supplies none, in stable order.
func (r *ProofRequest) AutoPredicateList() []string {
	predicates := make([]string, 0, len(r.RequestedPredicates))
	for referent := range r.RequestedPredicates {
		predicates = append(predicates, referent)
	}

	sort.Strings(predicates)

	return predicates
}

// Prover is the external zero-knowledge proof-generation capability. The link
// secret never leaves the holder; it is passed by reference into the
// capability and to nowhere else.
type Prover interface {
	CreateProof(ctx context.Context, request *ProofRequest, cred *credential.ZKPCredentialStack,
		linkSecret string, attributes map[string]bool, predicates []string) ([]byte, error)
}

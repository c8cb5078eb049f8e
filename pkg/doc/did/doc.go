/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did provides the DID document model shared by the resolver chain
// and the presentation verifier.
package did

import (
	"crypto"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v3"
	"github.com/multiformats/go-multibase"
)

// ErrDIDDocumentNotExist error did doc not exist.
var ErrDIDDocumentNotExist = errors.New("did document not exists")

const (
	// ContextV1 of the DID document is the current V1 context name.
	ContextV1 = "https://www.w3.org/ns/did/v1"

	numPartsDID = 3
)

// VerificationMethod DID doc verification method.
// Key material is carried either as a JWK or as a multibase-encoded raw key.
type VerificationMethod struct {
	ID                 string           `json:"id,omitempty"`
	Controller         string           `json:"controller,omitempty"`
	Type               string           `json:"type,omitempty"`
	PublicKeyJWK       *jose.JSONWebKey `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string           `json:"publicKeyMultibase,omitempty"`
}

// PublicKey returns the verification method's key material as a crypto
// public key.
func (vm *VerificationMethod) PublicKey() (crypto.PublicKey, error) {
	if vm.PublicKeyJWK != nil {
		return vm.PublicKeyJWK.Key, nil
	}

	if vm.PublicKeyMultibase != "" {
		_, raw, err := multibase.Decode(vm.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("decode multibase public key: %w", err)
		}

		// strip the multicodec prefix when present (0xed 0x01 for ed25519)
		if len(raw) == ed25519.PublicKeySize+2 && raw[0] == 0xed && raw[1] == 0x01 {
			raw = raw[2:]
		}

		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("unexpected multibase key length %d", len(raw))
		}

		return ed25519.PublicKey(raw), nil
	}

	return nil, errors.New("verification method carries no key material")
}

// Service DID doc service.
type Service struct {
	ID              string `json:"id,omitempty"`
	Type            string `json:"type,omitempty"`
	ServiceEndpoint string `json:"serviceEndpoint,omitempty"`
}

// Doc DID Document definition. Authentication, AssertionMethod and
// KeyAgreement hold references (by verification method id) into
// VerificationMethod, never embedded keys.
type Doc struct {
	Context            []string             `json:"@context,omitempty"`
	ID                 string               `json:"id,omitempty"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []string             `json:"authentication,omitempty"`
	AssertionMethod    []string             `json:"assertionMethod,omitempty"`
	KeyAgreement       []string             `json:"keyAgreement,omitempty"`
	Service            []Service            `json:"service,omitempty"`
}

// DocResolution did resolution.
type DocResolution struct {
	Context     []string `json:"@context,omitempty"`
	DIDDocument *Doc     `json:"didDocument,omitempty"`
}

// ParseDocument creates an instance of DIDDocument by reading a JSON document from bytes.
func ParseDocument(data []byte) (*Doc, error) {
	doc := &Doc{}

	err := json.Unmarshal(data, doc)
	if err != nil {
		return nil, fmt.Errorf("JSON unmarshalling of did document failed: %w", err)
	}

	if doc.ID == "" {
		return nil, ErrDIDDocumentNotExist
	}

	return doc, nil
}

// JSONBytes converts document to json bytes.
func (doc *Doc) JSONBytes() ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("JSON marshalling of did document failed: %w", err)
	}

	return b, nil
}

// VerificationMethodByID returns the embedded verification method referenced
// by id, or nil.
func (doc *Doc) VerificationMethodByID(id string) *VerificationMethod {
	for i := range doc.VerificationMethod {
		if doc.VerificationMethod[i].ID == id {
			return &doc.VerificationMethod[i]
		}
	}

	return nil
}

// AssertionMethods dereferences the assertionMethod relationship. When the
// document declares none, all verification methods are returned since issuers
// commonly publish a single unscoped key.
func (doc *Doc) AssertionMethods() []VerificationMethod {
	if len(doc.AssertionMethod) == 0 {
		return doc.VerificationMethod
	}

	var methods []VerificationMethod

	for _, ref := range doc.AssertionMethod {
		if vm := doc.VerificationMethodByID(ref); vm != nil {
			methods = append(methods, *vm)
		}
	}

	return methods
}

// Method extracts the did method from a did string.
func Method(didID string) (string, error) {
	didParts := strings.Split(didID, ":")
	if len(didParts) < numPartsDID || didParts[0] != "did" || didParts[1] == "" {
		return "", fmt.Errorf("wrong format did input: %s", didID)
	}

	return didParts[1], nil
}

// IsLongForm reports whether the did string carries a self-certifying state
// segment, i.e. has more than three colon-delimited segments. The predicate
// is a pure string function independent of any resolver.
func IsLongForm(didID string) bool {
	return len(strings.Split(didID, ":")) > numPartsDID
}

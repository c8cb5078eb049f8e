/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sdjwt implements the SD-JWT combined serialization and disclosure
// handling shared by the claim tree, the credential model and the
// presentation builder/verifier.
package sdjwt

import (
	"crypto"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// CombinedFormatSeparator is disclosure separator.
	CombinedFormatSeparator = "~"

	// SDAlgorithmKey is the claim naming the disclosure hash algorithm.
	SDAlgorithmKey = "_sd_alg"
	// SDKey is the claim carrying disclosure digests.
	SDKey = "_sd"
	// ArrayElementKey is the single key of an array-element digest
	// placeholder object.
	ArrayElementKey = "..."

	// DefaultHash is the disclosure digest algorithm.
	DefaultHash = crypto.SHA256

	defaultSaltSize = 128 / 8

	disclosureParts      = 3
	arrayDisclosureParts = 2
	saltIndex            = 0
	nameIndex            = 1
	valueIndex           = 2
)

// CombinedFormatForIssuance holds SD-JWT and disclosures.
type CombinedFormatForIssuance struct {
	SDJWT       string
	Disclosures []string
}

// Serialize will assemble combined format for issuance.
func (cf *CombinedFormatForIssuance) Serialize() string {
	serialized := cf.SDJWT
	for _, disclosure := range cf.Disclosures {
		serialized += CombinedFormatSeparator + disclosure
	}

	return serialized
}

// CombinedFormatForPresentation holds SD-JWT, selected disclosures and
// optional holder binding info.
type CombinedFormatForPresentation struct {
	SDJWT         string
	Disclosures   []string
	HolderBinding string
}

// Serialize will assemble combined format for presentation.
func (cf *CombinedFormatForPresentation) Serialize() string {
	serialized := cf.SDJWT
	for _, disclosure := range cf.Disclosures {
		serialized += CombinedFormatSeparator + disclosure
	}

	if len(cf.Disclosures) > 0 || cf.HolderBinding != "" {
		serialized += CombinedFormatSeparator
	}

	return serialized + cf.HolderBinding
}

// ParseCombinedFormatForIssuance parses combined format for issuance.
func ParseCombinedFormatForIssuance(combined string) *CombinedFormatForIssuance {
	parts := strings.Split(combined, CombinedFormatSeparator)

	var disclosures []string
	if len(parts) > 1 {
		disclosures = parts[1:]
	}

	return &CombinedFormatForIssuance{SDJWT: parts[0], Disclosures: disclosures}
}

// ParseCombinedFormatForPresentation parses combined format for presentation.
// The segment after the trailing separator is the holder binding slot.
func ParseCombinedFormatForPresentation(combined string) *CombinedFormatForPresentation {
	parts := strings.Split(combined, CombinedFormatSeparator)

	var disclosures []string
	if len(parts) > 2 {
		disclosures = parts[1 : len(parts)-1]
	}

	var holderBinding string
	if len(parts) > 1 {
		holderBinding = parts[len(parts)-1]
	}

	return &CombinedFormatForPresentation{SDJWT: parts[0], Disclosures: disclosures, HolderBinding: holderBinding}
}

// DisclosureClaim defines a decoded disclosure. Array-element disclosures
// carry no name.
type DisclosureClaim struct {
	Disclosure   string
	Salt         string
	Name         string
	Value        interface{}
	ArrayElement bool
}

// GetDisclosureClaims de-codes disclosures.
func GetDisclosureClaims(disclosures []string) ([]*DisclosureClaim, error) {
	var claims []*DisclosureClaim

	for _, disclosure := range disclosures {
		claim, err := getDisclosureClaim(disclosure)
		if err != nil {
			return nil, err
		}

		claims = append(claims, claim)
	}

	return claims, nil
}

func getDisclosureClaim(disclosure string) (*DisclosureClaim, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(disclosure)
	if err != nil {
		return nil, fmt.Errorf("failed to decode disclosure: %w", err)
	}

	var disclosureArr []interface{}

	err = json.Unmarshal(decoded, &disclosureArr)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal disclosure array: %w", err)
	}

	salt, ok := disclosureArr[saltIndex].(string)
	if !ok {
		return nil, fmt.Errorf("disclosure salt type[%T] must be string", disclosureArr[saltIndex])
	}

	// [salt, value] is an array-element disclosure, [salt, name, value] a
	// property disclosure
	switch len(disclosureArr) {
	case arrayDisclosureParts:
		return &DisclosureClaim{
			Disclosure:   disclosure,
			Salt:         salt,
			Value:        disclosureArr[arrayDisclosureParts-1],
			ArrayElement: true,
		}, nil
	case disclosureParts:
		name, ok := disclosureArr[nameIndex].(string)
		if !ok {
			return nil, fmt.Errorf("disclosure name type[%T] must be string", disclosureArr[nameIndex])
		}

		return &DisclosureClaim{Disclosure: disclosure, Salt: salt, Name: name, Value: disclosureArr[valueIndex]}, nil
	default:
		return nil, fmt.Errorf("disclosure array size[%d] must be %d or %d",
			len(disclosureArr), arrayDisclosureParts, disclosureParts)
	}
}

// NewDisclosure creates a salted disclosure entry for a named claim.
func NewDisclosure(name string, value interface{}) (string, error) {
	return encodeDisclosure([]interface{}{nil, name, value})
}

// NewArrayElementDisclosure creates a salted disclosure entry for an array
// element. The element has no name; its position is held by a digest
// placeholder object in the array.
func NewArrayElementDisclosure(value interface{}) (string, error) {
	return encodeDisclosure([]interface{}{nil, value})
}

func encodeDisclosure(parts []interface{}) (string, error) {
	salt, err := generateSalt()
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	parts[saltIndex] = salt

	disclosureBytes, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("marshal disclosure: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(disclosureBytes), nil
}

// GetHash calculates hash of data using hash function identified by hash.
func GetHash(hash crypto.Hash, value string) (string, error) {
	if !hash.Available() {
		return "", fmt.Errorf("hash function not available for: %d", hash)
	}

	h := hash.New()

	if _, hashErr := h.Write([]byte(value)); hashErr != nil {
		return "", hashErr
	}

	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

// VerifyDisclosures checks that every disclosure's digest appears in the
// claim set's disclosure digests (the _sd arrays, at any nesting level).
func VerifyDisclosures(disclosures []string, claims map[string]interface{}) error {
	sdAlg, err := getSDAlg(claims)
	if err != nil {
		return err
	}

	cryptoHash, err := getCryptoHash(sdAlg)
	if err != nil {
		return err
	}

	digests := map[string]bool{}
	collectDigests(claims, digests)

	for _, disclosure := range disclosures {
		digest, err := GetHash(cryptoHash, disclosure)
		if err != nil {
			return err
		}

		if !digests[digest] {
			return fmt.Errorf("disclosure digest '%s' not found in SD-JWT disclosure digests", digest)
		}
	}

	return nil
}

func collectDigests(claims map[string]interface{}, out map[string]bool) {
	for key, value := range claims {
		switch typed := value.(type) {
		case []interface{}:
			if key == SDKey {
				for _, entry := range typed {
					if digest, ok := entry.(string); ok {
						out[digest] = true
					}
				}

				continue
			}

			collectArrayDigests(typed, out)
		case map[string]interface{}:
			collectDigests(typed, out)
		}
	}
}

func collectArrayDigests(entries []interface{}, out map[string]bool) {
	for _, entry := range entries {
		switch typed := entry.(type) {
		case map[string]interface{}:
			if digest, ok := typed[ArrayElementKey].(string); ok && len(typed) == 1 {
				out[digest] = true

				continue
			}

			collectDigests(typed, out)
		case []interface{}:
			collectArrayDigests(typed, out)
		}
	}
}

func getCryptoHash(sdAlg string) (crypto.Hash, error) {
	if !strings.EqualFold(sdAlg, "sha-256") {
		return 0, fmt.Errorf("%s '%s' not supported", SDAlgorithmKey, sdAlg)
	}

	return crypto.SHA256, nil
}

func getSDAlg(claims map[string]interface{}) (string, error) {
	obj, ok := claims[SDAlgorithmKey]
	if !ok {
		return "", fmt.Errorf("%s must be present in SD-JWT", SDAlgorithmKey)
	}

	str, ok := obj.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", SDAlgorithmKey)
	}

	return str, nil
}

func generateSalt() (string, error) {
	salt := make([]byte, defaultSaltSize)

	_, err := rand.Read(salt)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(salt), nil
}

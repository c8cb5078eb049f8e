/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credential provides the polymorphic credential model: a sealed set
// of format variants with exhaustive dispatch at the parser, builder and
// verifier. New formats are added as a new variant plus one match arm per
// component, never by subclassing.
package credential

import (
	"encoding/json"
	"fmt"

	"github.com/openwallet-foundation/walletcore/pkg/doc/claims"
	"github.com/openwallet-foundation/walletcore/pkg/doc/jwt"
	"github.com/openwallet-foundation/walletcore/pkg/doc/sdjwt"
)

// Format tags a credential variant. The values double as recovery identifiers
// for restoring stored credentials.
type Format string

// Credential formats.
const (
	FormatJWT       Format = "jwt+credential"
	FormatSDJWT     Format = "sd-jwt+credential"
	FormatAnonCreds Format = "anon+credential"
)

// Credential is the capability set shared by all format variants. The
// interface is sealed; dispatch on the concrete type is exhaustive.
type Credential interface {
	// ID is the credential identifier when the format carries one.
	ID() string
	// Issuer is the issuer DID, empty when unknown.
	Issuer() string
	// Subject is the subject DID, empty when unknown.
	Subject() string
	// Format tags the variant.
	Format() Format
	// Claims resolves the credential's claims into a claim tree.
	Claims() (*claims.Tree, error)
	// Bytes is the stored form used for restoration.
	Bytes() []byte

	isCredential()
}

// JWTCredential is an issuer-signed JWT verifiable credential.
type JWTCredential struct {
	JWT     string
	RawJWT  *jwt.JSONWebToken
	issuer  string
	subject string
	id      string
}

// ParseJWTCredential structurally parses a compact JWS credential. The
// signature is not verified here; verification happens against the resolved
// issuer key during presentation verification.
func ParseJWTCredential(jwtString string) (*JWTCredential, error) {
	token, err := jwt.Parse(jwtString)
	if err != nil {
		return nil, fmt.Errorf("parse JWT credential: %w", err)
	}

	cred := &JWTCredential{JWT: jwtString, RawJWT: token}
	cred.issuer, _ = token.Payload["iss"].(string)
	cred.subject, _ = token.Payload["sub"].(string)
	cred.id, _ = token.Payload["jti"].(string)

	return cred, nil
}

// ID implements Credential.
func (c *JWTCredential) ID() string { return c.id }

// Issuer implements Credential.
func (c *JWTCredential) Issuer() string { return c.issuer }

// Subject implements Credential.
func (c *JWTCredential) Subject() string { return c.subject }

// Format implements Credential.
func (c *JWTCredential) Format() Format { return FormatJWT }

// Bytes implements Credential.
func (c *JWTCredential) Bytes() []byte { return []byte(c.JWT) }

// Claims implements Credential.
func (c *JWTCredential) Claims() (*claims.Tree, error) {
	return claims.Build(c.RawJWT.Payload)
}

func (c *JWTCredential) isCredential() {}

// SDJWTCredential is a selective-disclosure JWT credential in combined
// issuance serialization.
type SDJWTCredential struct {
	Compact   string
	SDJWT     *jwt.JSONWebToken
	Disclosed []*sdjwt.DisclosureClaim
	issuer    string
	subject   string
	id        string
}

// ParseSDJWTCredential parses combined issuance serialization and decodes its
// disclosures, checking each disclosure digest against the signed payload.
func ParseSDJWTCredential(compact string) (*SDJWTCredential, error) {
	combined := sdjwt.ParseCombinedFormatForIssuance(compact)

	token, err := jwt.Parse(combined.SDJWT)
	if err != nil {
		return nil, fmt.Errorf("parse SD-JWT credential: %w", err)
	}

	if err := sdjwt.VerifyDisclosures(combined.Disclosures, token.Payload); err != nil {
		return nil, fmt.Errorf("verify SD-JWT disclosures: %w", err)
	}

	disclosed, err := sdjwt.GetDisclosureClaims(combined.Disclosures)
	if err != nil {
		return nil, fmt.Errorf("decode SD-JWT disclosures: %w", err)
	}

	cred := &SDJWTCredential{Compact: compact, SDJWT: token, Disclosed: disclosed}
	cred.issuer, _ = token.Payload["iss"].(string)
	cred.subject, _ = token.Payload["sub"].(string)
	cred.id, _ = token.Payload["jti"].(string)

	return cred, nil
}

// ID implements Credential.
func (c *SDJWTCredential) ID() string { return c.id }

// Issuer implements Credential.
func (c *SDJWTCredential) Issuer() string { return c.issuer }

// Subject implements Credential.
func (c *SDJWTCredential) Subject() string { return c.subject }

// Format implements Credential.
func (c *SDJWTCredential) Format() Format { return FormatSDJWT }

// Bytes implements Credential.
func (c *SDJWTCredential) Bytes() []byte { return []byte(c.Compact) }

// Claims restores every disclosed claim at its digest's own nesting level in
// the signed payload and drops the digest bookkeeping claims.
func (c *SDJWTCredential) Claims() (*claims.Tree, error) {
	disclosures := make([]string, 0, len(c.Disclosed))
	for _, claim := range c.Disclosed {
		disclosures = append(disclosures, claim.Disclosure)
	}

	return claims.FromDisclosurePayload(&claims.SDPayload{
		Claims:      c.SDJWT.Payload,
		Disclosures: disclosures,
	})
}

func (c *SDJWTCredential) isCredential() {}

// ZKPCredentialStack is an AnonCreds-style credential proved via
// zero-knowledge techniques against a schema and credential definition.
type ZKPCredentialStack struct {
	SchemaID           string
	CredDefID          string
	Attributes         map[string]interface{}
	ProofLinkSecretRef string

	raw []byte
}

type zkpCredentialJSON struct {
	SchemaID     string                            `json:"schema_id"`
	CredDefID    string                            `json:"cred_def_id"`
	Values       map[string]map[string]interface{} `json:"values"`
	LinkSecretID string                            `json:"link_secret_id,omitempty"`
}

// ParseZKPCredential parses an AnonCreds-style credential JSON.
func ParseZKPCredential(data []byte) (*ZKPCredentialStack, error) {
	var decoded zkpCredentialJSON

	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("parse anoncreds credential: %w", err)
	}

	if decoded.SchemaID == "" || decoded.CredDefID == "" {
		return nil, fmt.Errorf("anoncreds credential missing schema_id or cred_def_id")
	}

	attributes := map[string]interface{}{}

	for name, value := range decoded.Values {
		if raw, ok := value["raw"]; ok {
			attributes[name] = raw
		}
	}

	return &ZKPCredentialStack{
		SchemaID:           decoded.SchemaID,
		CredDefID:          decoded.CredDefID,
		Attributes:         attributes,
		ProofLinkSecretRef: decoded.LinkSecretID,
		raw:                data,
	}, nil
}

// ID implements Credential. AnonCreds credentials are identified by their
// credential definition.
func (c *ZKPCredentialStack) ID() string { return c.CredDefID }

// Issuer implements Credential. The issuer DID is the credential definition's
// prefix when present.
func (c *ZKPCredentialStack) Issuer() string { return "" }

// Subject implements Credential.
func (c *ZKPCredentialStack) Subject() string { return "" }

// Format implements Credential.
func (c *ZKPCredentialStack) Format() Format { return FormatAnonCreds }

// Bytes implements Credential.
func (c *ZKPCredentialStack) Bytes() []byte { return c.raw }

// Claims implements Credential.
func (c *ZKPCredentialStack) Claims() (*claims.Tree, error) {
	return claims.Build(c.Attributes)
}

func (c *ZKPCredentialStack) isCredential() {}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/openwallet-foundation/walletcore/pkg/credential"
	"github.com/openwallet-foundation/walletcore/pkg/doc/claims"
	diddoc "github.com/openwallet-foundation/walletcore/pkg/doc/did"
	"github.com/openwallet-foundation/walletcore/pkg/doc/jwt"
	"github.com/openwallet-foundation/walletcore/pkg/doc/sdjwt"
)

// Resolver resolves a signer DID to its document of verification keys.
// Satisfied by vdr.Registry.
type Resolver interface {
	Resolve(ctx context.Context, did string) (*diddoc.Doc, error)
}

// CredentialPathError means a submission descriptor references a path with no
// credential behind it. This is a structural fault of the submission, not a
// failed verification.
type CredentialPathError struct {
	DescriptorID string
	Path         string
}

// Error implements error.
func (e *CredentialPathError) Error() string {
	return fmt.Sprintf("descriptor %q references path %q with no credential", e.DescriptorID, e.Path)
}

// CannotVerifyCredentialError accumulates the internal causes of one
// descriptor's failed verification.
type CannotVerifyCredentialError struct {
	DescriptorID string
	Errs         []error
}

// Error implements error.
func (e *CannotVerifyCredentialError) Error() string {
	reasons := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		reasons[i] = err.Error()
	}

	return fmt.Sprintf("cannot verify credential for descriptor %q: %s",
		e.DescriptorID, strings.Join(reasons, "; "))
}

// Unwrap implements errors.Unwrap.
func (e *CannotVerifyCredentialError) Unwrap() []error { return e.Errs }

// VerificationResult reports the overall outcome plus the per-descriptor
// internal errors, preserved for diagnostics.
type VerificationResult struct {
	Verified bool
	Errors   []error
}

// Verifier re-extracts, signature-verifies and claim-checks presented
// credentials against a submission. A failed-but-well-formed verification
// yields Verified=false; only structurally invalid input returns an error.
type Verifier struct {
	matcher  *Matcher
	resolver Resolver
}

// NewVerifier creates a Verifier resolving signer DIDs through resolver.
func NewVerifier(resolver Resolver) *Verifier {
	return &Verifier{matcher: NewMatcher(), resolver: resolver}
}

// Verify checks every descriptor of the submission envelope. Descriptors are
// independent and evaluated concurrently; error accumulation keeps
// descriptor-to-error correspondence.
func (v *Verifier) Verify(ctx context.Context, envelope []byte,
	definition *PresentationDefinition) (*VerificationResult, error) {
	container := &PresentationContainer{}

	if err := json.Unmarshal(envelope, container); err != nil {
		return nil, fmt.Errorf("parse presentation envelope: %w", err)
	}

	if container.PresentationSubmission == nil {
		return nil, errors.New("presentation envelope carries no submission")
	}

	doc := envelopeDoc(container)
	descriptors := container.PresentationSubmission.DescriptorMap

	descriptorErrs := make([]error, len(descriptors))

	g, gctx := errgroup.WithContext(ctx)

	for i := range descriptors {
		i, mapping := i, descriptors[i]

		g.Go(func() error {
			semantic, structural := v.verifyDescriptor(gctx, doc, mapping, definition)
			if structural != nil {
				return structural
			}

			descriptorErrs[i] = semantic

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &VerificationResult{Verified: true}

	for _, err := range descriptorErrs {
		if err != nil {
			result.Verified = false
			result.Errors = append(result.Errors, err)
		}
	}

	return result, nil
}

// verifyDescriptor runs the three per-descriptor steps: structural token
// extraction, signature verification against the resolved signer document,
// and field re-extraction. The first return value accumulates semantic
// failures; the second reports structural faults that abort the whole call.
func (v *Verifier) verifyDescriptor(ctx context.Context, doc interface{},
	mapping *InputDescriptorMapping, definition *PresentationDefinition) (error, error) {
	raw, ok := v.matcher.Match(doc, mapping.Path)
	if !ok {
		return nil, &CredentialPathError{DescriptorID: mapping.ID, Path: mapping.Path}
	}

	token, ok := raw.(string)
	if !ok {
		return nil, &CredentialPathError{DescriptorID: mapping.ID, Path: mapping.Path}
	}

	var internal []error

	claimsDoc, structural := v.extractAndVerify(ctx, token, mapping, &internal)
	if structural != nil {
		return nil, structural
	}

	if len(internal) == 0 && definition != nil {
		internal = append(internal, v.recheckFields(claimsDoc, mapping.ID, definition)...)
	}

	if len(internal) > 0 {
		return &CannotVerifyCredentialError{DescriptorID: mapping.ID, Errs: internal}, nil
	}

	return nil, nil
}

// extractAndVerify dispatches on the descriptor's declared format (never on
// sniffing) and returns the claims document used for field re-extraction.
func (v *Verifier) extractAndVerify(ctx context.Context, token string,
	mapping *InputDescriptorMapping, internal *[]error) (interface{}, error) {
	switch mapping.Format {
	case FormatJWTVP, FormatJWTVC, "jwt":
		return v.verifyJWTToken(ctx, token, mapping, internal)
	case FormatSDJWT, credential.HintSDJWT:
		return v.verifySDJWTToken(ctx, token, mapping, internal)
	default:
		*internal = append(*internal, fmt.Errorf("unsupported descriptor format %q", mapping.Format))
		return nil, nil
	}
}

func (v *Verifier) verifyJWTToken(ctx context.Context, token string,
	mapping *InputDescriptorMapping, internal *[]error) (interface{}, error) {
	parsed, err := jwt.Parse(token)
	if err != nil {
		*internal = append(*internal, fmt.Errorf("parse token: %w", err))
		return nil, nil
	}

	if err := v.verifySignature(ctx, parsed); err != nil {
		*internal = append(*internal, err)
	}

	claimsDoc := normalizeClaims(parsed.Payload)

	if mapping.PathNested == nil {
		return claimsDoc, nil
	}

	nestedToken, structural := v.nestedToken(claimsDoc, mapping)
	if structural != nil {
		return nil, structural
	}

	nested, err := jwt.Parse(nestedToken)
	if err != nil {
		*internal = append(*internal, fmt.Errorf("parse nested credential: %w", err))
		return claimsDoc, nil
	}

	if err := v.verifySignature(ctx, nested); err != nil {
		*internal = append(*internal, err)
	}

	return normalizeClaims(nested.Payload), nil
}

func (v *Verifier) verifySDJWTToken(ctx context.Context, token string,
	_ *InputDescriptorMapping, internal *[]error) (interface{}, error) {
	combined := sdjwt.ParseCombinedFormatForPresentation(token)

	parsed, err := jwt.Parse(combined.SDJWT)
	if err != nil {
		*internal = append(*internal, fmt.Errorf("parse SD-JWT: %w", err))
		return nil, nil
	}

	if err := v.verifySignature(ctx, parsed); err != nil {
		*internal = append(*internal, err)
	}

	if err := sdjwt.VerifyDisclosures(combined.Disclosures, parsed.Payload); err != nil {
		*internal = append(*internal, err)
	}

	// disclosed claims are restored at their digest's nesting level so field
	// paths address them where the issuer placed them
	restored, err := claims.FromDisclosurePayload(&claims.SDPayload{
		Claims:      parsed.Payload,
		Disclosures: combined.Disclosures,
	})
	if err != nil {
		*internal = append(*internal, err)
		return nil, nil
	}

	return normalizeClaims(restored.Interface()), nil
}

// nestedToken fetches the raw credential at the nested path. The fixed
// literal targets the credential's id, but holders place bare token strings
// in the array, so a trailing .id segment falls back to the entry itself.
func (v *Verifier) nestedToken(claimsDoc interface{}, mapping *InputDescriptorMapping) (string, error) {
	path := mapping.PathNested.Path

	value, ok := v.matcher.Match(claimsDoc, path)
	if !ok && strings.HasSuffix(path, ".id") {
		value, ok = v.matcher.Match(claimsDoc, strings.TrimSuffix(path, ".id"))
	}

	if !ok {
		return "", &CredentialPathError{DescriptorID: mapping.ID, Path: path}
	}

	token, isString := value.(string)
	if !isString {
		return "", &CredentialPathError{DescriptorID: mapping.ID, Path: path}
	}

	return token, nil
}

// verifySignature resolves the token issuer's DID and checks the signature
// against the document's assertion keys. A resolved document without usable
// key material is surfaced as an error rather than silently discarded.
func (v *Verifier) verifySignature(ctx context.Context, token *jwt.JSONWebToken) error {
	issuer, _ := token.Payload["iss"].(string)
	if issuer == "" {
		return errors.New("token carries no issuer claim")
	}

	signerDoc, err := v.resolver.Resolve(ctx, issuer)
	if err != nil {
		return fmt.Errorf("resolve signer DID %q: %w", issuer, err)
	}

	methods := signerDoc.AssertionMethods()
	if len(methods) == 0 {
		return fmt.Errorf("resolved document %q carries no assertion key material", issuer)
	}

	serialized, err := token.Serialize()
	if err != nil {
		return err
	}

	var lastErr error

	for i := range methods {
		pubKey, keyErr := methods[i].PublicKey()
		if keyErr != nil {
			lastErr = keyErr
			continue
		}

		_, lastErr = jwt.Parse(serialized, jwt.WithSignatureVerifier(jwt.NewPublicKeyVerifier(pubKey)))
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("signature verification failed for %q: %w", issuer, lastErr)
}

// recheckFields re-runs the claim path matcher for every required field of
// the descriptor's input descriptor.
func (v *Verifier) recheckFields(claimsDoc interface{}, descriptorID string,
	definition *PresentationDefinition) []error {
	var errs []error

	for _, descriptor := range definition.InputDescriptors {
		if descriptor.ID != descriptorID || descriptor.Constraints == nil {
			continue
		}

		for _, field := range descriptor.Constraints.Fields {
			if !field.Required {
				continue
			}

			if _, err := v.matcher.MatchField(claimsDoc, field); err != nil {
				errs = append(errs, fmt.Errorf("descriptor %q: %w", descriptorID, err))
			}
		}
	}

	return errs
}

// envelopeDoc re-encodes the container for JSONPath evaluation. The
// descriptor-map literal spells the credential array in snake case while the
// envelope serializes it in camel case; both spellings are exposed so the
// fixed literals resolve.
func envelopeDoc(container *PresentationContainer) interface{} {
	doc := map[string]interface{}{}

	if encoded, err := json.Marshal(container); err == nil {
		_ = json.Unmarshal(encoded, &doc)
	}

	credentials := make([]interface{}, 0, len(container.VerifiableCredential))
	for _, vc := range container.VerifiableCredential {
		credentials = append(credentials, vc)
	}

	doc["verifiable_credential"] = credentials

	return doc
}

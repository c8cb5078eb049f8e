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
	"time"

	"github.com/google/uuid"

	"github.com/openwallet-foundation/walletcore/pkg/anoncreds"
	"github.com/openwallet-foundation/walletcore/pkg/credential"
	"github.com/openwallet-foundation/walletcore/pkg/doc/jwt"
	"github.com/openwallet-foundation/walletcore/pkg/doc/sdjwt"
	"github.com/openwallet-foundation/walletcore/pkg/kms"
)

// Proof request types dispatched by the builder. Each selects exactly one
// builder strategy.
const (
	// ProofTypeAnonCreds selects the zero-knowledge proof strategy.
	ProofTypeAnonCreds = "anoncreds/proof-request@v1.0"
	// ProofTypeJWT selects the signed JWT presentation strategy.
	ProofTypeJWT = "prism/jwt"
	// ProofTypeSDJWT selects the selective-disclosure strategy.
	ProofTypeSDJWT = "vc+sd-jwt"
	// ProofTypePresentationExchange selects the DIF presentation-exchange
	// strategy.
	ProofTypePresentationExchange = "dif/presentation-exchange/definitions@v1.0"
)

// ErrUnsupportedProofType means the request's declared type selects no
// builder strategy.
var ErrUnsupportedProofType = errors.New("unsupported proof type")

// State names the steps of a presentation build. A build is terminal on
// StateEmitted; any error aborts the remaining steps.
type State int

// Build states.
const (
	StateRequestReceived State = iota
	StateFormatResolved
	StateEligibilityChecked
	StateSigned
	StateEmitted
)

// String implements fmt.Stringer.
func (s State) String() string {
	return [...]string{
		"RequestReceived", "FormatResolved", "EligibilityChecked", "Signed", "Emitted",
	}[s]
}

// DescriptorNotSatisfiedError means the credential fails a field constraint
// of a presentation definition.
type DescriptorNotSatisfiedError struct {
	DescriptorID string
	Path         []string
	Reason       error
}

// Error implements error.
func (e *DescriptorNotSatisfiedError) Error() string {
	return fmt.Sprintf("credential does not satisfy descriptor %q field paths %v: %s",
		e.DescriptorID, e.Path, e.Reason)
}

// Unwrap implements errors.Unwrap.
func (e *DescriptorNotSatisfiedError) Unwrap() error { return e.Reason }

// ProofRequestOptions lists every recognized option of a presentation build
// and its effect. Unsupported combinations fail at build start rather than
// through a runtime option scan.
type ProofRequestOptions struct {
	// SubjectDID is the holder DID asserted as presentation issuer.
	SubjectDID string
	// Keys are candidate signing keys; selection is deterministic
	// (kms.SelectSigningKey).
	Keys []*kms.StoredKey
	// Restorer rebuilds the selected key; defaults to kms.JWKRestorer.
	Restorer kms.KeyRestoration
	// Signer, when set, is used directly and key selection is skipped.
	Signer jwt.Signer
	// DisclosedClaims names the claims to disclose on the SD-JWT strategy;
	// empty means all.
	DisclosedClaims []string
	// Fields are claim filters checked before signing on the JWT strategy.
	Fields []*Field
	// LinkSecret is the holder's blinding secret for the ZKP strategy.
	LinkSecret string
	// Prover is the zero-knowledge proof capability for the ZKP strategy.
	Prover anoncreds.Prover
	// AttributeMap overrides the auto-computed revealed-attribute map.
	AttributeMap map[string]bool
	// PredicateList overrides the auto-computed predicate referents.
	PredicateList []string
}

// BuildResult is the emitted presentation: a bare signed token on the
// JWT/SD-JWT paths, a PresentationContainer on the presentation-exchange
// path.
type BuildResult struct {
	State     State
	Token     string
	Container *PresentationContainer
}

// proofRequestPayload is the JWT-strategy request body.
type proofRequestPayload struct {
	Domain    string `json:"domain"`
	Challenge string `json:"challenge"`
}

// Builder dispatches on the requested proof type to produce a signed
// presentation payload. No partial signature is ever emitted: eligibility is
// settled before any signer is invoked.
type Builder struct {
	matcher *Matcher
}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{matcher: NewMatcher()}
}

// Build runs one presentation build for the given request.
func (b *Builder) Build(ctx context.Context, requestType string, request []byte,
	cred credential.Credential, opts ProofRequestOptions) (*BuildResult, error) {
	switch requestType {
	case ProofTypeJWT:
		return b.buildJWT(request, cred, opts)
	case ProofTypeSDJWT:
		return b.buildSDJWT(request, cred, opts)
	case ProofTypePresentationExchange:
		return b.buildPresentationExchange(request, cred, opts)
	case ProofTypeAnonCreds:
		return b.buildAnonCreds(ctx, request, cred, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProofType, requestType)
	}
}

func (b *Builder) buildJWT(request []byte, cred credential.Credential,
	opts ProofRequestOptions) (*BuildResult, error) {
	var payload proofRequestPayload

	if err := json.Unmarshal(request, &payload); err != nil {
		return nil, fmt.Errorf("parse proof request payload: %w", err)
	}

	if err := b.checkFields(cred, "", opts.Fields); err != nil {
		return nil, err
	}

	vpToken, err := b.signPresentationToken(cred, payload, opts)
	if err != nil {
		return nil, err
	}

	if len(opts.Fields) == 0 {
		return &BuildResult{State: StateEmitted, Token: vpToken}, nil
	}

	// claim filters imply a submission envelope the verifier can re-check
	return &BuildResult{
		State:     StateEmitted,
		Container: newContainer(uuid.NewString(), uuid.NewString(), descriptorFormat(cred), vpToken),
	}, nil
}

func (b *Builder) buildPresentationExchange(request []byte, cred credential.Credential,
	opts ProofRequestOptions) (*BuildResult, error) {
	pd, payload, err := parseDefinitionRequest(request)
	if err != nil {
		return nil, err
	}

	for _, descriptor := range pd.InputDescriptors {
		if descriptor.Constraints == nil {
			continue
		}

		if err := b.checkFields(cred, descriptor.ID, descriptor.Constraints.Fields); err != nil {
			return nil, err
		}
	}

	vpToken, err := b.signPresentationToken(cred, payload, opts)
	if err != nil {
		return nil, err
	}

	descriptorID := uuid.NewString()
	if len(pd.InputDescriptors) > 0 {
		descriptorID = pd.InputDescriptors[0].ID
	}

	return &BuildResult{
		State:     StateEmitted,
		Container: newContainer(pd.ID, descriptorID, descriptorFormat(cred), vpToken),
	}, nil
}

func (b *Builder) buildSDJWT(request []byte, cred credential.Credential,
	opts ProofRequestOptions) (*BuildResult, error) {
	sdCred, ok := cred.(*credential.SDJWTCredential)
	if !ok {
		return nil, fmt.Errorf("%w: credential format %q cannot build an SD-JWT presentation",
			ErrUnsupportedProofType, cred.Format())
	}

	var payload proofRequestPayload

	if err := json.Unmarshal(request, &payload); err != nil {
		return nil, fmt.Errorf("parse proof request payload: %w", err)
	}

	disclosures, err := selectDisclosures(sdCred, opts.DisclosedClaims)
	if err != nil {
		return nil, err
	}

	combined := &sdjwt.CombinedFormatForPresentation{
		SDJWT:       sdjwt.ParseCombinedFormatForIssuance(sdCred.Compact).SDJWT,
		Disclosures: disclosures,
	}

	if opts.Signer != nil || len(opts.Keys) > 0 {
		binding, signErr := b.signHolderBinding(sdCred, payload, opts)
		if signErr != nil {
			return nil, signErr
		}

		combined.HolderBinding = binding
	}

	return &BuildResult{State: StateEmitted, Token: combined.Serialize()}, nil
}

func (b *Builder) buildAnonCreds(ctx context.Context, request []byte, cred credential.Credential,
	opts ProofRequestOptions) (*BuildResult, error) {
	zkpCred, ok := cred.(*credential.ZKPCredentialStack)
	if !ok {
		return nil, fmt.Errorf("%w: credential format %q cannot answer an anoncreds proof request",
			ErrUnsupportedProofType, cred.Format())
	}

	proofRequest, err := anoncreds.ParseProofRequest(request)
	if err != nil {
		return nil, err
	}

	attributes := opts.AttributeMap
	if attributes == nil {
		attributes, err = proofRequest.AutoAttributeMap()
		if err != nil {
			return nil, err
		}
	}

	predicates := opts.PredicateList
	if predicates == nil {
		predicates = proofRequest.AutoPredicateList()
	}

	if opts.LinkSecret == "" {
		return nil, fmt.Errorf("%w: link secret", kms.ErrRequiresExportableKey)
	}

	if opts.Prover == nil {
		return nil, errors.New("no proof-generation capability configured")
	}

	proof, err := opts.Prover.CreateProof(ctx, proofRequest, zkpCred, opts.LinkSecret, attributes, predicates)
	if err != nil {
		return nil, fmt.Errorf("create zkp proof: %w", err)
	}

	return &BuildResult{State: StateEmitted, Token: string(proof)}, nil
}

// checkFields settles eligibility before any signing. A required field with
// no satisfying match aborts the build.
func (b *Builder) checkFields(cred credential.Credential, descriptorID string, fields []*Field) error {
	if len(fields) == 0 {
		return nil
	}

	tree, err := cred.Claims()
	if err != nil {
		return fmt.Errorf("resolve credential claims: %w", err)
	}

	doc := normalizeClaims(tree.Interface())

	for _, field := range fields {
		if _, matchErr := b.matcher.MatchField(doc, field); matchErr != nil {
			if field.Required {
				return &DescriptorNotSatisfiedError{DescriptorID: descriptorID, Path: field.Path, Reason: matchErr}
			}
		}
	}

	return nil
}

func (b *Builder) signPresentationToken(cred credential.Credential, payload proofRequestPayload,
	opts ProofRequestOptions) (string, error) {
	credToken, err := credentialToken(cred)
	if err != nil {
		return "", err
	}

	signer, err := resolveSigner(cred, opts)
	if err != nil {
		return "", err
	}

	vpClaims := map[string]interface{}{
		"iss":   opts.SubjectDID,
		"aud":   payload.Domain,
		"nonce": payload.Challenge,
		"nbf":   time.Now().Unix(),
		"vp": map[string]interface{}{
			"@context":             []string{"https://www.w3.org/2018/credentials/v1"},
			"type":                 []string{"VerifiablePresentation"},
			"verifiableCredential": []string{credToken},
		},
	}

	token, err := jwt.NewSigned(vpClaims, nil, signer)
	if err != nil {
		return "", fmt.Errorf("sign presentation: %w", err)
	}

	return token.Serialize()
}

func (b *Builder) signHolderBinding(cred credential.Credential, payload proofRequestPayload,
	opts ProofRequestOptions) (string, error) {
	signer, err := resolveSigner(cred, opts)
	if err != nil {
		return "", err
	}

	bindingClaims := map[string]interface{}{
		"iss":   opts.SubjectDID,
		"aud":   payload.Domain,
		"nonce": payload.Challenge,
		"iat":   time.Now().Unix(),
	}

	token, err := jwt.NewSigned(bindingClaims, nil, signer)
	if err != nil {
		return "", fmt.Errorf("sign holder binding: %w", err)
	}

	return token.Serialize()
}

func resolveSigner(cred credential.Credential, opts ProofRequestOptions) (jwt.Signer, error) {
	if opts.Signer != nil {
		return opts.Signer, nil
	}

	selected, err := kms.SelectSigningKey(opts.Keys, signingCurve(cred))
	if err != nil {
		return nil, err
	}

	restorer := opts.Restorer
	if restorer == nil {
		restorer = kms.JWKRestorer{}
	}

	privateKey, err := restorer.RestorePrivateKey(selected)
	if err != nil {
		return nil, err
	}

	return jwt.NewKeySigner(privateKey, selected.ID), nil
}

// signingCurve maps the credential's signature algorithm to the JWA curve its
// presentation must be signed on. Unknown algorithms impose no constraint.
func signingCurve(cred credential.Credential) string {
	var alg string

	switch c := cred.(type) {
	case *credential.JWTCredential:
		alg = c.RawJWT.LookupStringHeader(jwt.HeaderAlgorithm)
	case *credential.SDJWTCredential:
		alg = c.SDJWT.LookupStringHeader(jwt.HeaderAlgorithm)
	}

	switch alg {
	case "EdDSA":
		return "Ed25519"
	case "ES256":
		return "P-256"
	default:
		return ""
	}
}

func credentialToken(cred credential.Credential) (string, error) {
	switch c := cred.(type) {
	case *credential.JWTCredential:
		return c.JWT, nil
	case *credential.SDJWTCredential:
		return c.Compact, nil
	default:
		return "", fmt.Errorf("%w: credential format %q carries no presentable token",
			ErrUnsupportedProofType, cred.Format())
	}
}

func descriptorFormat(cred credential.Credential) string {
	if cred.Format() == credential.FormatSDJWT {
		return FormatSDJWT
	}

	return FormatJWTVC
}

// newContainer assembles the envelope with the fixed descriptor-map path
// literals verifiers parse positionally.
func newContainer(definitionID, descriptorID, vcFormat, vpToken string) *PresentationContainer {
	return &PresentationContainer{
		PresentationSubmission: &PresentationSubmission{
			ID:           uuid.NewString(),
			DefinitionID: definitionID,
			DescriptorMap: []*InputDescriptorMapping{
				{
					ID:     descriptorID,
					Format: FormatJWTVP,
					Path:   DescriptorPath,
					PathNested: &InputDescriptorMapping{
						ID:     descriptorID,
						Format: vcFormat,
						Path:   DescriptorNestedPath,
					},
				},
			},
		},
		VerifiableCredential: []string{vpToken},
	}
}

// parseDefinitionRequest accepts either a bare presentation definition or a
// request object wrapping it alongside domain/challenge options.
func parseDefinitionRequest(request []byte) (*PresentationDefinition, proofRequestPayload, error) {
	var wrapper struct {
		Definition *PresentationDefinition `json:"presentation_definition"`
		Options    *proofRequestPayload    `json:"options"`
	}

	payload := proofRequestPayload{}

	if err := json.Unmarshal(request, &wrapper); err == nil && wrapper.Definition != nil {
		if wrapper.Options != nil {
			payload = *wrapper.Options
		}

		return wrapper.Definition, payload, validateDefinition(wrapper.Definition)
	}

	pd := &PresentationDefinition{}

	if err := json.Unmarshal(request, pd); err != nil {
		return nil, payload, fmt.Errorf("parse presentation definition: %w", err)
	}

	return pd, payload, validateDefinition(pd)
}

func validateDefinition(pd *PresentationDefinition) error {
	if err := pd.ValidateSchema(); err != nil {
		return fmt.Errorf("invalid presentation definition: %w", err)
	}

	return nil
}

func selectDisclosures(cred *credential.SDJWTCredential, names []string) ([]string, error) {
	if len(names) == 0 {
		disclosures := make([]string, 0, len(cred.Disclosed))
		for _, claim := range cred.Disclosed {
			disclosures = append(disclosures, claim.Disclosure)
		}

		return disclosures, nil
	}

	byName := make(map[string]string, len(cred.Disclosed))
	for _, claim := range cred.Disclosed {
		byName[claim.Name] = claim.Disclosure
	}

	disclosures := make([]string, 0, len(names))

	for _, name := range names {
		disclosure, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("claim %q is not disclosable", name)
		}

		disclosures = append(disclosures, disclosure)
	}

	return disclosures, nil
}

// normalizeClaims re-encodes claim values through encoding/json so JSONPath
// evaluation sees plain maps, slices and float64 numbers.
func normalizeClaims(claims map[string]interface{}) interface{} {
	encoded, err := json.Marshal(claims)
	if err != nil {
		return claims
	}

	var doc interface{}

	if err := json.Unmarshal(encoded, &doc); err != nil {
		return claims
	}

	return doc
}

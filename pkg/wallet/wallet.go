/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package wallet exposes the holder-side surface: parsing and restoring
// credentials, answering proof requests and verifying received presentations.
// It wires the credential parser, the presentation builder and verifier, the
// DID resolution chain and the external key store together.
package wallet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/openwallet-foundation/walletcore/pkg/anoncreds"
	"github.com/openwallet-foundation/walletcore/pkg/common/log"
	"github.com/openwallet-foundation/walletcore/pkg/credential"
	"github.com/openwallet-foundation/walletcore/pkg/kms"
	"github.com/openwallet-foundation/walletcore/pkg/presexch"
)

var logger = log.New("wallet")

// Provider contains the external collaborators a wallet reads through.
type Provider interface {
	KeyStore() kms.KeyStore
	Resolver() presexch.Resolver
}

// Wallet is the holder-side engine facade.
type Wallet struct {
	keyStore kms.KeyStore
	resolver presexch.Resolver
	restorer kms.KeyRestoration
	prover   anoncreds.Prover

	builder  *presexch.Builder
	verifier *presexch.Verifier
}

// Option configures a wallet instance.
type Option func(*Wallet)

// WithKeyRestoration overrides the default JWK-based key restoration.
func WithKeyRestoration(restorer kms.KeyRestoration) Option {
	return func(w *Wallet) {
		w.restorer = restorer
	}
}

// WithProver installs the zero-knowledge proof capability used for anoncreds
// proof requests.
func WithProver(prover anoncreds.Prover) Option {
	return func(w *Wallet) {
		w.prover = prover
	}
}

// New creates a wallet reading keys and resolving DIDs through provider.
func New(provider Provider, opts ...Option) *Wallet {
	w := &Wallet{
		keyStore: provider.KeyStore(),
		resolver: provider.Resolver(),
		restorer: kms.JWKRestorer{},
		builder:  presexch.NewBuilder(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.verifier = presexch.NewVerifier(w.resolver)

	return w
}

// ParseCredential classifies and parses raw credential bytes. Hints, when
// given, take priority over structural sniffing.
func (w *Wallet) ParseCredential(data []byte, hints ...string) (credential.Credential, error) {
	return credential.Parse(data, hints...)
}

// RestoreCredential rebuilds a stored credential from its recovery identifier
// and stored bytes.
func (w *Wallet) RestoreCredential(recoveryID string, data []byte) (credential.Credential, error) {
	return credential.Restore(recoveryID, data)
}

// ProofRequestOption adjusts how one proof request is answered.
type ProofRequestOption func(*presexch.ProofRequestOptions)

// WithSubjectDID sets the holder DID asserted as presentation issuer. The
// signing keys bound to this DID are read from the key store.
func WithSubjectDID(did string) ProofRequestOption {
	return func(opts *presexch.ProofRequestOptions) {
		opts.SubjectDID = did
	}
}

// WithDisclosedClaims limits SD-JWT presentations to the named claims.
func WithDisclosedClaims(names ...string) ProofRequestOption {
	return func(opts *presexch.ProofRequestOptions) {
		opts.DisclosedClaims = names
	}
}

// WithClaimFields adds claim filters checked against the credential before any
// signing happens.
func WithClaimFields(fields ...*presexch.Field) ProofRequestOption {
	return func(opts *presexch.ProofRequestOptions) {
		opts.Fields = fields
	}
}

// ProcessCredentialRequest answers one proof request with the given
// credential. The request type selects the build strategy; signing keys, the
// link secret and the proof capability come from the wallet's collaborators.
func (w *Wallet) ProcessCredentialRequest(ctx context.Context, requestType string, request []byte,
	cred credential.Credential, reqOpts ...ProofRequestOption) (*presexch.BuildResult, error) {
	opts := presexch.ProofRequestOptions{
		Restorer: w.restorer,
		Prover:   w.prover,
	}

	for _, opt := range reqOpts {
		opt(&opts)
	}

	if err := w.loadKeys(&opts); err != nil {
		return nil, err
	}

	if requestType == presexch.ProofTypeAnonCreds {
		if err := w.loadLinkSecret(&opts); err != nil {
			return nil, err
		}
	}

	result, err := w.builder.Build(ctx, requestType, request, cred, opts)
	if err != nil {
		logger.Warnf("proof request of type %q failed: %v", requestType, err)

		return nil, err
	}

	logger.Debugf("answered proof request of type %q in state %s", requestType, result.State)

	return result, nil
}

// loadKeys reads the candidate signing keys: the subject DID's bound keys when
// a subject is asserted, otherwise every stored key.
func (w *Wallet) loadKeys(opts *presexch.ProofRequestOptions) error {
	var (
		keys []*kms.StoredKey
		err  error
	)

	if opts.SubjectDID != "" {
		keys, err = w.keyStore.DIDPrivateKeys(opts.SubjectDID)
	} else {
		keys, err = w.keyStore.AllKeys()
	}

	if err != nil {
		return fmt.Errorf("read signing keys: %w", err)
	}

	opts.Keys = keys

	return nil
}

func (w *Wallet) loadLinkSecret(opts *presexch.ProofRequestOptions) error {
	secret, err := w.keyStore.LinkSecret()
	if err != nil {
		return fmt.Errorf("read link secret: %w", err)
	}

	if secret != nil {
		opts.LinkSecret = secret.ID
	}

	return nil
}

// CreatePresentationRequest builds a presentation-exchange request from claim
// filters. Every filter becomes a required field constraint of a single input
// descriptor, so the matching and building stages enforce it.
func (w *Wallet) CreatePresentationRequest(name string, fields []*presexch.Field,
	domain, challenge string) ([]byte, error) {
	// copies keep the caller's field values untouched
	required := make([]*presexch.Field, 0, len(fields))

	for _, field := range fields {
		copied := *field
		copied.Required = true
		required = append(required, &copied)
	}

	pd := &presexch.PresentationDefinition{
		ID: uuid.NewString(),
		InputDescriptors: []*presexch.InputDescriptor{
			{
				ID:          uuid.NewString(),
				Name:        name,
				Constraints: &presexch.Constraints{Fields: required},
			},
		},
	}

	if err := pd.ValidateSchema(); err != nil {
		return nil, fmt.Errorf("build presentation request: %w", err)
	}

	request := map[string]interface{}{
		"presentation_definition": pd,
		"options": map[string]string{
			"domain":    domain,
			"challenge": challenge,
		},
	}

	return json.Marshal(request)
}

// VerifyPresentation checks a received presentation envelope, optionally
// re-checking it against the definition it answers.
func (w *Wallet) VerifyPresentation(ctx context.Context, envelope []byte,
	definition *presexch.PresentationDefinition) (*presexch.VerificationResult, error) {
	result, err := w.verifier.Verify(ctx, envelope, definition)
	if err != nil {
		return nil, err
	}

	if !result.Verified {
		logger.Infof("presentation rejected with %d descriptor errors", len(result.Errors))
	}

	return result, nil
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package presexch implements the Presentation Exchange surface of the
// engine: the definition/submission model, claim path matching, presentation
// building and verification (https://identity.foundation/presentation-exchange/).
package presexch

import (
	"errors"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Descriptor-map path literals. Verifiers parse the produced envelope
// positionally, so these exact strings are part of the wire contract.
const (
	// DescriptorPath locates the presentation token inside the container.
	DescriptorPath = "$.verifiable_credential[0]"
	// DescriptorNestedPath locates the embedded credential inside the
	// presentation token's claims.
	DescriptorNestedPath = "$.vp.verifiableCredential[0].id"
)

// Claim format designations used in descriptor maps.
const (
	FormatJWTVP = "jwt_vp"
	FormatJWTVC = "jwt_vc"
	FormatSDJWT = "sd_jwt"
)

// Format describes PresentationDefinition`s Format field.
type Format struct {
	Jwt   *JwtType `json:"jwt,omitempty"`
	JwtVC *JwtType `json:"jwt_vc,omitempty"`
	JwtVP *JwtType `json:"jwt_vp,omitempty"`
}

// JwtType contains alg.
type JwtType struct {
	Alg []string `json:"alg,omitempty"`
}

// PresentationDefinition presentation definitions (https://identity.foundation/presentation-exchange/).
type PresentationDefinition struct {
	// ID unique resource identifier.
	ID string `json:"id,omitempty"`
	// Name human-friendly name that describes what the Presentation Definition pertains to.
	Name string `json:"name,omitempty"`
	// Purpose describes the purpose for which the Presentation Definition's inputs are being requested.
	Purpose string `json:"purpose,omitempty"`
	// Format informs the Holder of the claim format configurations the Verifier can process.
	Format           *Format            `json:"format,omitempty"`
	InputDescriptors []*InputDescriptor `json:"input_descriptors,omitempty"`
}

// InputDescriptor input descriptors.
type InputDescriptor struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Purpose     string       `json:"purpose,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`
}

// Constraints describes InputDescriptor`s Constraints field.
type Constraints struct {
	LimitDisclosure bool     `json:"limit_disclosure,omitempty"`
	Fields          []*Field `json:"fields,omitempty"`
}

// Field is a single claim filter: the paths to probe and the value shape the
// verifier demands.
type Field struct {
	Path     []string `json:"path,omitempty"`
	ID       string   `json:"id,omitempty"`
	Purpose  string   `json:"purpose,omitempty"`
	Required bool     `json:"required,omitempty"`
	Filter   *Filter  `json:"filter,omitempty"`
}

// Filter describes filter.
type Filter struct {
	Type    *string `json:"type,omitempty"`
	Pattern string  `json:"pattern,omitempty"`
}

// PresentationSubmission is the container for the descriptor_map:
// https://identity.foundation/presentation-exchange/#presentation-submission.
type PresentationSubmission struct {
	// ID unique resource identifier.
	ID string `json:"id,omitempty"`
	// DefinitionID links the submission to its definition and must be the id
	// value of a valid Presentation Definition.
	DefinitionID  string                    `json:"definition_id,omitempty"`
	DescriptorMap []*InputDescriptorMapping `json:"descriptor_map"`
}

// InputDescriptorMapping maps an InputDescriptor to a verifiable credential
// pointed to by the JSONPath in `Path`.
type InputDescriptorMapping struct {
	ID         string                  `json:"id,omitempty"`
	Format     string                  `json:"format,omitempty"`
	Path       string                  `json:"path,omitempty"`
	PathNested *InputDescriptorMapping `json:"path_nested,omitempty"`
}

// PresentationContainer is the envelope emitted on the presentation-exchange
// path. Its JSON shape is part of the wire contract.
type PresentationContainer struct {
	PresentationSubmission *PresentationSubmission `json:"presentationSubmission"`
	VerifiableCredential   []string                `json:"verifiableCredential"`
}

// ValidateSchema validates presentation definition.
func (pd *PresentationDefinition) ValidateSchema() error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewGoLoader(struct {
			PD *PresentationDefinition `json:"presentation_definition"`
		}{PD: pd}),
	)
	if err != nil {
		return err
	}

	if result.Valid() {
		return nil
	}

	resultErrors := result.Errors()

	errs := make([]string, len(resultErrors))
	for i := range resultErrors {
		errs[i] = resultErrors[i].String()
	}

	return errors.New(strings.Join(errs, ","))
}

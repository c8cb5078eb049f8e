/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwt provides compact JWS/JWT handling for the credential engine.
// Signing is a capability supplied by the caller; parsing is structural and
// signature verification is opt-in.
package jwt

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-jose/go-jose/v3/json"
)

const (
	// TypeJWT defines JWT type.
	TypeJWT = "JWT"

	// AlgorithmNone used to indicate unsecured JWT.
	AlgorithmNone = "none"

	// HeaderAlgorithm identifies the JOSE alg header.
	HeaderAlgorithm = "alg"
	// HeaderKeyID identifies the JOSE kid header.
	HeaderKeyID = "kid"
	// HeaderType identifies the JOSE typ header.
	HeaderType = "typ"

	compactJWSParts = 3
)

// Headers represents JOSE headers.
type Headers map[string]interface{}

// Algorithm returns the alg header.
func (h Headers) Algorithm() (string, bool) {
	return h.stringValue(HeaderAlgorithm)
}

// KeyID returns the kid header.
func (h Headers) KeyID() (string, bool) {
	return h.stringValue(HeaderKeyID)
}

func (h Headers) stringValue(name string) (string, bool) {
	v, ok := h[name]
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// Signer defines the signing capability consumed when building tokens. The
// actual key handling lives with the caller.
type Signer interface {
	// Sign signs the JWS signing input.
	Sign(data []byte) ([]byte, error)

	// Headers returns JOSE headers to merge into the protected header,
	// at minimum alg.
	Headers() Headers
}

// SignatureVerifier verifies a token signature over its signing input.
type SignatureVerifier interface {
	Verify(headers Headers, payload, signingInput, signature []byte) error
}

// SignatureVerifierFunc makes a plain function a SignatureVerifier.
type SignatureVerifierFunc func(headers Headers, payload, signingInput, signature []byte) error

// Verify implements SignatureVerifier.
func (f SignatureVerifierFunc) Verify(headers Headers, payload, signingInput, signature []byte) error {
	return f(headers, payload, signingInput, signature)
}

// JSONWebToken defines JSON Web Token (https://tools.ietf.org/html/rfc7519).
type JSONWebToken struct {
	Headers Headers
	Payload map[string]interface{}

	signingInput []byte
	signature    []byte
	serialized   string
}

// parseOpts holds options for the JWT parsing.
type parseOpts struct {
	sigVerifier SignatureVerifier
}

// ParseOpt is the JWT Parser option.
type ParseOpt func(opts *parseOpts)

// WithSignatureVerifier option verifies the token signature while parsing.
func WithSignatureVerifier(signatureVerifier SignatureVerifier) ParseOpt {
	return func(opts *parseOpts) {
		opts.sigVerifier = signatureVerifier
	}
}

// IsCompactJWS checks weather input is a compact JWS (based on https://tools.ietf.org/html/rfc7516#section-9).
func IsCompactJWS(s string) bool {
	parts := strings.Split(s, ".")

	return len(parts) == compactJWSParts && isValidJSON(parts[0])
}

// Parse parses input JWT in serialized form into JSON Web Token.
func Parse(jwtSerialized string, opts ...ParseOpt) (*JSONWebToken, error) {
	if !IsCompactJWS(jwtSerialized) {
		return nil, errors.New("JWT of compacted JWS form is supported only")
	}

	pOpts := &parseOpts{}

	for _, opt := range opts {
		opt(pOpts)
	}

	parts := strings.Split(jwtSerialized, ".")

	headersBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("decode JWT headers: %w", err)
	}

	var headers Headers

	err = json.Unmarshal(headersBytes, &headers)
	if err != nil {
		return nil, fmt.Errorf("unmarshal JWT headers: %w", err)
	}

	err = checkHeaders(headers)
	if err != nil {
		return nil, fmt.Errorf("check JWT headers: %w", err)
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode JWT payload: %w", err)
	}

	payload, err := PayloadToMap(payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("read JWT claims from JWS payload: %w", err)
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("decode JWT signature: %w", err)
	}

	signingInput := []byte(parts[0] + "." + parts[1])

	if pOpts.sigVerifier != nil {
		err = pOpts.sigVerifier.Verify(headers, payloadBytes, signingInput, signature)
		if err != nil {
			return nil, err
		}
	}

	return &JSONWebToken{
		Headers:      headers,
		Payload:      payload,
		signingInput: signingInput,
		signature:    signature,
		serialized:   jwtSerialized,
	}, nil
}

// NewSigned creates new signed JSON Web Token based on input claims.
func NewSigned(claims interface{}, headers Headers, signer Signer) (*JSONWebToken, error) {
	payloadMap, err := PayloadToMap(claims)
	if err != nil {
		return nil, fmt.Errorf("unmarshallable claims: %w", err)
	}

	protected := Headers{HeaderType: TypeJWT}

	for k, v := range headers {
		protected[k] = v
	}

	for k, v := range signer.Headers() {
		protected[k] = v
	}

	if _, ok := protected.Algorithm(); !ok {
		return nil, errors.New("signer did not provide alg header")
	}

	headerBytes, err := json.Marshal(protected)
	if err != nil {
		return nil, fmt.Errorf("marshal JWT headers: %w", err)
	}

	payloadBytes, err := json.Marshal(payloadMap)
	if err != nil {
		return nil, fmt.Errorf("marshal JWT claims: %w", err)
	}

	signingInput := []byte(base64.RawURLEncoding.EncodeToString(headerBytes) +
		"." + base64.RawURLEncoding.EncodeToString(payloadBytes))

	signature, err := signer.Sign(signingInput)
	if err != nil {
		return nil, fmt.Errorf("sign JWT: %w", err)
	}

	return &JSONWebToken{
		Headers:      protected,
		Payload:      payloadMap,
		signingInput: signingInput,
		signature:    signature,
		serialized:   string(signingInput) + "." + base64.RawURLEncoding.EncodeToString(signature),
	}, nil
}

// NewUnsecured creates new unsecured JSON Web Token based on input claims.
func NewUnsecured(claims interface{}) (*JSONWebToken, error) {
	return NewSigned(claims, nil, &unsecuredJWTSigner{})
}

// Serialize makes (compact) serialization of token.
func (j *JSONWebToken) Serialize() (string, error) {
	if j.serialized == "" {
		return "", errors.New("JWS serialization is supported only")
	}

	return j.serialized, nil
}

// DecodeClaims fills input c with claims of a token.
func (j *JSONWebToken) DecodeClaims(c interface{}) error {
	pBytes, err := json.Marshal(j.Payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(pBytes, c)
}

// LookupStringHeader makes look up of particular header with string value.
func (j *JSONWebToken) LookupStringHeader(name string) string {
	s, _ := j.Headers.stringValue(name)

	return s
}

type unsecuredJWTSigner struct{}

func (s unsecuredJWTSigner) Sign(_ []byte) ([]byte, error) {
	return []byte(""), nil
}

func (s unsecuredJWTSigner) Headers() Headers {
	return Headers{HeaderAlgorithm: AlgorithmNone}
}

func isValidJSON(s string) bool {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return false
	}

	var j map[string]interface{}
	err = json.Unmarshal(b, &j)

	return err == nil
}

func checkHeaders(headers Headers) error {
	if _, ok := headers[HeaderAlgorithm]; !ok {
		return errors.New("alg header is not defined")
	}

	typ, ok := headers.stringValue(HeaderType)
	if ok && typ != TypeJWT {
		return errors.New("typ is not JWT")
	}

	return nil
}

// PayloadToMap transforms interface to map. Numbers are preserved as
// json.Number so re-encoding does not mangle them.
func PayloadToMap(i interface{}) (map[string]interface{}, error) {
	if reflect.ValueOf(i).Kind() == reflect.Map {
		return i.(map[string]interface{}), nil
	}

	var (
		b   []byte
		err error
	)

	switch cv := i.(type) {
	case []byte:
		b = cv
	case string:
		b = []byte(cv)
	default:
		b, err = json.Marshal(i)
		if err != nil {
			return nil, fmt.Errorf("marshal interface[%T]: %w", i, err)
		}
	}

	var m map[string]interface{}

	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()

	if err := d.Decode(&m); err != nil {
		return nil, fmt.Errorf("convert to map: %w", err)
	}

	return m, nil
}

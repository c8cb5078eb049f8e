/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpbinding resolves DIDs against a remote resolution endpoint over
// HTTP. The caller's context deadline bounds the request; the resolver adds
// no retry policy of its own.
package httpbinding

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/openwallet-foundation/walletcore/pkg/common/log"
	diddoc "github.com/openwallet-foundation/walletcore/pkg/doc/did"
	"github.com/openwallet-foundation/walletcore/pkg/vdr"
)

const didLDJson = "application/did+ld+json"

var logger = log.New("walletcore/vdr/httpbinding")

// HTTPStatusError carries the status of a failed resolution response.
type HTTPStatusError struct {
	Code int
	Body string
}

// Error implements error.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unsupported response from DID resolver [%d] body [%s]", e.Code, e.Body)
}

// Option configures the resolver.
type Option func(resolver *Resolver)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(resolver *Resolver) {
		resolver.client = client
	}
}

// WithResolveAuthToken sets an Authorization token for the endpoint.
func WithResolveAuthToken(token string) Option {
	return func(resolver *Resolver) {
		resolver.resolveAuthToken = "Bearer " + token
	}
}

// WithAccept sets the method acceptance predicate. Default accepts every
// method, for endpoints that front a universal resolver.
func WithAccept(accept func(method string) bool) Option {
	return func(resolver *Resolver) {
		resolver.accept = accept
	}
}

// Resolver resolves short-form DIDs via a remote endpoint.
type Resolver struct {
	endpointURL      string
	client           *http.Client
	resolveAuthToken string
	accept           func(method string) bool
}

// New creates new DID Resolver based on an endpoint.
func New(endpointURL string, opts ...Option) (*Resolver, error) {
	resolver := &Resolver{
		endpointURL: endpointURL,
		client:      &http.Client{},
		accept:      func(string) bool { return true },
	}

	for _, opt := range opts {
		opt(resolver)
	}

	if _, err := url.ParseRequestURI(endpointURL); err != nil {
		return nil, fmt.Errorf("base URL invalid: %w", err)
	}

	return resolver, nil
}

// Accept implements vdr.Resolver.
func (r *Resolver) Accept(method string) bool {
	return r.accept(method)
}

// Resolve implements vdr.Resolver.
func (r *Resolver) Resolve(ctx context.Context, didID string) (*diddoc.Doc, error) {
	reqURL, err := url.ParseRequestURI(r.endpointURL)
	if err != nil {
		return nil, fmt.Errorf("url parse request uri failed: %w", err)
	}

	reqURL.Path = path.Join(reqURL.Path, didID)

	data, err := r.resolveDID(ctx, reqURL.String())
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, vdr.ErrNotFound
	}

	doc, err := diddoc.ParseDocument(data)
	if err != nil {
		logger.Warnf("parse resolved document for %s failed: %s", didID, err)

		return nil, err
	}

	return doc, nil
}

// resolveDID makes DID resolution via HTTP.
func (r *Resolver) resolveDID(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTP create get request failed: %w", err)
	}

	req.Header.Add("Accept", didLDJson)

	if r.resolveAuthToken != "" {
		req.Header.Add("Authorization", r.resolveAuthToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP Get request failed: %w", err)
	}

	defer closeResponseBody(resp.Body)

	gotBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	if resp.StatusCode == http.StatusOK &&
		strings.Contains(resp.Header.Get("Content-type"), didLDJson) {
		return gotBody, nil
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, vdr.ErrNotFound
	}

	return nil, &HTTPStatusError{Code: resp.StatusCode, Body: string(gotBody)}
}

func closeResponseBody(respBody io.Closer) {
	if err := respBody.Close(); err != nil {
		logger.Errorf("failed to close response body: %v", err)
	}
}

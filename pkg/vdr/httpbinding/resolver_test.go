/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpbinding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openwallet-foundation/walletcore/pkg/vdr"
)

const resolvedDoc = `{
  "@context": ["https://www.w3.org/ns/did/v1"],
  "id": "did:prism:abc"
}`

func TestNew(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		resolver, err := New("https://resolver.example")
		require.NoError(t, err)
		require.True(t, resolver.Accept("prism"))
		require.True(t, resolver.Accept("anything"))
	})

	t.Run("error - invalid endpoint URL", func(t *testing.T) {
		_, err := New("not a url")
		require.Error(t, err)
		require.Contains(t, err.Error(), "base URL invalid")
	})

	t.Run("accept predicate override", func(t *testing.T) {
		resolver, err := New("https://resolver.example",
			WithAccept(func(method string) bool { return method == "prism" }))
		require.NoError(t, err)
		require.True(t, resolver.Accept("prism"))
		require.False(t, resolver.Accept("peer"))
	})
}

func TestResolve(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotAccept, gotAuth, gotPath string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAccept = r.Header.Get("Accept")
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path

			w.Header().Set("Content-type", "application/did+ld+json")
			_, _ = w.Write([]byte(resolvedDoc))
		}))
		defer server.Close()

		resolver, err := New(server.URL, WithResolveAuthToken("token-1"))
		require.NoError(t, err)

		doc, err := resolver.Resolve(context.Background(), "did:prism:abc")
		require.NoError(t, err)
		require.Equal(t, "did:prism:abc", doc.ID)
		require.Equal(t, "application/did+ld+json", gotAccept)
		require.Equal(t, "Bearer token-1", gotAuth)
		require.Equal(t, "/did:prism:abc", gotPath)
	})

	t.Run("error - 404 means not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		resolver, err := New(server.URL)
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), "did:prism:missing")
		require.ErrorIs(t, err, vdr.ErrNotFound)
	})

	t.Run("error - unexpected status carries code and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("resolver exploded"))
		}))
		defer server.Close()

		resolver, err := New(server.URL)
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), "did:prism:abc")
		require.Error(t, err)

		var statusErr *HTTPStatusError

		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, http.StatusInternalServerError, statusErr.Code)
		require.Contains(t, statusErr.Body, "resolver exploded")
	})

	t.Run("error - wrong content type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-type", "text/html")
			_, _ = w.Write([]byte(resolvedDoc))
		}))
		defer server.Close()

		resolver, err := New(server.URL)
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), "did:prism:abc")
		require.Error(t, err)
	})

	t.Run("error - resolved document without id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-type", "application/did+ld+json")
			_, _ = w.Write([]byte(`{"@context":["https://www.w3.org/ns/did/v1"]}`))
		}))
		defer server.Close()

		resolver, err := New(server.URL)
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), "did:prism:abc")
		require.Error(t, err)
	})

	t.Run("context cancellation aborts the request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-type", "application/did+ld+json")
			_, _ = w.Write([]byte(resolvedDoc))
		}))
		defer server.Close()

		resolver, err := New(server.URL)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = resolver.Resolve(ctx, "did:prism:abc")
		require.Error(t, err)
	})
}

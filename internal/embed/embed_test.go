// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mximoph/mximoph/internal/httputil"
	"github.com/mximoph/mximoph/pkg/types"
)

func testConfig(url string, dim int) types.EmbeddingConfig {
	return types.EmbeddingConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "mximoph/test"},
		ServerURL:  url,
		Dimension:  dim,
		BatchSize:  2,
	}
}

// vecServer returns a test server that answers every input with a constant
// vector of length dim and records the batches it saw.
func vecServer(t *testing.T, dim int, batches *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if batches != nil {
			*batches = append(*batches, req.Inputs)
		}

		vecs := make([][]float32, len(req.Inputs))
		for i := range vecs {
			vecs[i] = make([]float32, dim)
			vecs[i][0] = float32(i + 1)
		}
		json.NewEncoder(w).Encode(vecs)
	}))
}

func TestServerEmbedder(t *testing.T) {
	t.Run("embeds and validates dimension", func(t *testing.T) {
		srv := vecServer(t, 384, nil)
		defer srv.Close()

		e := NewServerEmbedder(testConfig(srv.URL, 384))
		vecs, err := e.Embed(context.Background(), []string{"alpha", "beta"})
		require.NoError(t, err)
		require.Len(t, vecs, 2)
		assert.Len(t, vecs[0], 384)
	})

	t.Run("rejects dimension mismatch", func(t *testing.T) {
		srv := vecServer(t, 768, nil)
		defer srv.Close()

		e := NewServerEmbedder(testConfig(srv.URL, 384))
		_, err := e.Embed(context.Background(), []string{"alpha"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimension mismatch")
	})

	t.Run("splits input into batches", func(t *testing.T) {
		var batches [][]string
		srv := vecServer(t, 4, &batches)
		defer srv.Close()

		e := NewServerEmbedder(testConfig(srv.URL, 4))
		vecs, err := e.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
		require.NoError(t, err)
		assert.Len(t, vecs, 5)
		assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, batches)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		e := NewServerEmbedder(testConfig("http://localhost:1", 4))
		vecs, err := e.Embed(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vecs)
	})

	t.Run("surfaces server errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer srv.Close()

		e := NewServerEmbedder(testConfig(srv.URL, 4))
		_, err := e.Embed(context.Background(), []string{"a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model not loaded")
	})

	t.Run("retries while the server warms up", func(t *testing.T) {
		old := httputil.RetryBaseDelay
		httputil.RetryBaseDelay = time.Millisecond
		t.Cleanup(func() { httputil.RetryBaseDelay = old })

		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode([][]float32{{1, 0, 0, 0}})
		}))
		defer srv.Close()

		e := NewServerEmbedder(testConfig(srv.URL, 4))
		vecs, err := e.Embed(context.Background(), []string{"a"})
		require.NoError(t, err)
		assert.Len(t, vecs, 1)
		assert.Equal(t, 2, calls)
	})

	t.Run("sends bearer token when configured", func(t *testing.T) {
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode([][]float32{{1, 0, 0, 0}})
		}))
		defer srv.Close()

		cfg := testConfig(srv.URL, 4)
		cfg.APIKey = "tok123"
		e := NewServerEmbedder(cfg)
		_, err := e.Embed(context.Background(), []string{"a"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok123", auth)
	})
}

func TestEmbedOne(t *testing.T) {
	srv := vecServer(t, 4, nil)
	defer srv.Close()

	e := NewServerEmbedder(testConfig(srv.URL, 4))
	vec, err := EmbedOne(context.Background(), e, "query")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

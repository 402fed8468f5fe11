// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetries(t *testing.T) {
	t.Helper()
	old := RetryBaseDelay
	RetryBaseDelay = time.Millisecond
	t.Cleanup(func() { RetryBaseDelay = old })
}

func TestDoWithRetry(t *testing.T) {
	fastRetries(t)

	t.Run("returns success immediately", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		resp, err := DoWithRetry(context.Background(), srv.Client(), req, 3)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries 429 until success", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		resp, err := DoWithRetry(context.Background(), srv.Client(), req, 5)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 3, calls)
	})

	t.Run("retries 503 from a warming server", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		resp, err := DoWithRetry(context.Background(), srv.Client(), req, 3)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 2, calls)
	})

	t.Run("returns last response after exhausting retries", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		resp, err := DoWithRetry(context.Background(), srv.Client(), req, 2)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, 3, calls) // initial attempt + 2 retries
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		resp, err := DoWithRetry(context.Background(), srv.Client(), req, 5)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context aborts backoff wait", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err = DoWithRetry(ctx, srv.Client(), req, 3)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackoffDelay(t *testing.T) {
	fastRetries(t)

	t.Run("honours Retry-After seconds", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"7"}}}
		assert.Equal(t, 7*time.Second, backoffDelay(resp, 0))
	})

	t.Run("ignores unparseable Retry-After", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"Wed, 21 Oct 2026 07:28:00 GMT"}}}
		assert.Equal(t, RetryBaseDelay, backoffDelay(resp, 0))
	})

	t.Run("doubles per attempt", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		assert.Equal(t, RetryBaseDelay, backoffDelay(resp, 0))
		assert.Equal(t, 2*RetryBaseDelay, backoffDelay(resp, 1))
		assert.Equal(t, 4*RetryBaseDelay, backoffDelay(resp, 2))
	})
}

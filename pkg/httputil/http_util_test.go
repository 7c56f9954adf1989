package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "token", r.Header.Get("X-Token"))
		assert.Equal(t, "soil health", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"loam"}`))
	}))
	defer server.Close()

	client := NewClient(DefaultClientOptions(), zerolog.Nop())

	var out struct {
		Name string `json:"name"`
	}
	err := client.GetJSON(context.Background(), RequestDetails{
		URL:     server.URL,
		Query:   url.Values{"q": {"soil health"}},
		Headers: map[string]string{"X-Token": "token"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "loam", out.Name)
}

func TestSendRequestRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{Timeout: time.Second, RetryAttempts: 2, RetryDelay: time.Millisecond}, zerolog.Nop())

	body, err := client.SendRequest(context.Background(), RequestDetails{URL: server.URL, RequestBody: map[string]string{"a": "b"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad token"))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{Timeout: time.Second, RetryAttempts: 3, RetryDelay: time.Millisecond}, zerolog.Nop())

	_, err := client.SendRequest(context.Background(), RequestDetails{Method: http.MethodGet, URL: server.URL})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "bad token", statusErr.Body)
	assert.False(t, statusErr.Temporary())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendRequestGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{Timeout: time.Second, RetryAttempts: 1, RetryDelay: time.Millisecond}, zerolog.Nop())

	_, err := client.SendRequest(context.Background(), RequestDetails{Method: http.MethodGet, URL: server.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "żół...", truncate("żółw błotny", 3))
}

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aierrors "github.com/mmichie/greenie/pkg/aikit/errors"
)

func TestBiasQuery(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"companion planting", "companion planting"},
		{"  Garden pests ", "Garden pests"},
		{"SOIL ph", "SOIL ph"},
		{"aphid control", "ecology aphid control"},
		{"", "ecology "},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, BiasQuery(tt.query))
		})
	}
}

func TestFormat(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "No search results found.", Format(nil))
		assert.Equal(t, 0, CountEntries(Format(nil)))
	})

	t.Run("layout", func(t *testing.T) {
		out := Format([]Result{
			{Title: "Aphids", URL: "https://example.org/aphids", Description: "Soft-bodied insects"},
			{Title: "Ladybugs", URL: "https://example.org/ladybugs", Description: "Natural predators"},
		})
		want := "Search Results:\n\n" +
			"1. Aphids\n   https://example.org/aphids\n   Soft-bodied insects\n\n" +
			"2. Ladybugs\n   https://example.org/ladybugs\n   Natural predators\n\n"
		assert.Equal(t, want, out)
	})

	t.Run("multi-line fields stay on one line", func(t *testing.T) {
		out := Format([]Result{{Title: "A\nB", URL: "u", Description: "line one\n2. not an entry"}})
		assert.Equal(t, 1, CountEntries(out))
	})
}

func TestFormatCountRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 5, 12} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			results := make([]Result, n)
			for i := range results {
				results[i] = Result{
					Title:       fmt.Sprintf("%d. Result", i),
					URL:         fmt.Sprintf("https://example.org/%d", i),
					Description: fmt.Sprintf("Description %d", i),
				}
			}
			assert.Equal(t, n, CountEntries(Format(results)))
		})
	}
}

func TestBraveSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "ecology pest control", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"web":{"results":[
			{"title":"One","url":"https://one.example","description":"first"},
			{"title":"Two","url":"https://two.example","description":"second"},
			{"title":"Three","url":"https://three.example","description":"third"}
		]}}`))
	}))
	defer server.Close()

	b := NewBrave(BraveConfig{APIKey: "test-key", BaseURL: server.URL}, zerolog.Nop())
	require.True(t, b.Available())

	results, err := b.Search(context.Background(), "pest control", 2)
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Title: "One", URL: "https://one.example", Description: "first"},
		{Title: "Two", URL: "https://two.example", Description: "second"},
	}, results)
}

func TestBraveSearchWithoutKey(t *testing.T) {
	b := NewBrave(BraveConfig{}, zerolog.Nop())
	assert.False(t, b.Available())

	results, err := b.Search(context.Background(), "soil", 5)
	assert.Empty(t, results)
	assert.ErrorIs(t, err, aierrors.ErrProviderUnavailable)
}

func TestBraveSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	b := NewBrave(BraveConfig{APIKey: "k", BaseURL: server.URL}, zerolog.Nop())
	results, err := b.Search(context.Background(), "crop rotation", 0)
	assert.Empty(t, results)
	assert.ErrorIs(t, err, aierrors.ErrProviderCall)
}

func TestBraveSearchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	b := NewBrave(BraveConfig{APIKey: "k", BaseURL: server.URL, RetryDelay: time.Millisecond}, zerolog.Nop())
	_, err := b.Search(context.Background(), "pollinators", 0)
	assert.ErrorIs(t, err, aierrors.ErrProviderCall)
	assert.ErrorIs(t, err, aierrors.ErrRateLimit)
	assert.True(t, aierrors.IsRetryable(err))
	assert.False(t, errors.Is(err, aierrors.ErrTransient))
}

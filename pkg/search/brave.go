package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	aierrors "github.com/mmichie/greenie/pkg/aikit/errors"
	"github.com/mmichie/greenie/pkg/httputil"
)

const (
	braveName = "brave"

	// DefaultBraveURL is the Brave web search endpoint
	DefaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

	// DefaultCount is the number of results requested when the caller passes no limit
	DefaultCount = 5

	maxCount = 20
)

// BraveConfig configures the Brave Search client
type BraveConfig struct {
	APIKey     string
	BaseURL    string
	Count      int
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Brave queries the Brave Search API. An API key is sent as X-Subscription-Token.
type Brave struct {
	apiKey  string
	baseURL string
	count   int
	client  *httputil.Client
	logger  zerolog.Logger
}

// NewBrave creates a Brave client. A missing API key is not an error: the
// client is built and every Search reports aierrors.ErrProviderUnavailable.
func NewBrave(cfg BraveConfig, logger zerolog.Logger) *Brave {
	logger = logger.With().Str("provider", braveName).Logger()

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBraveURL
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn().Msg("Brave Search API key not found; web search is unavailable")
	}

	return &Brave{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: cfg.BaseURL,
		count:   cfg.Count,
		client: httputil.NewClient(httputil.ClientOptions{
			Timeout:       cfg.Timeout,
			RetryAttempts: cfg.MaxRetries,
			RetryDelay:    cfg.RetryDelay,
		}, logger),
		logger: logger,
	}
}

// Name returns the provider name
func (b *Brave) Name() string {
	return braveName
}

// Available reports whether an API key is configured
func (b *Brave) Available() bool {
	return b.apiKey != ""
}

type braveResponse struct {
	Web struct {
		Results []Result `json:"results"`
	} `json:"web"`
}

// Search runs the domain-biased query and returns at most limit results in
// provider order. limit <= 0 uses the configured count.
func (b *Brave) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if !b.Available() {
		return nil, aierrors.New(braveName, "search", aierrors.ErrProviderUnavailable)
	}

	if limit <= 0 {
		limit = b.count
	}
	if limit > maxCount {
		limit = maxCount
	}

	q := BiasQuery(query)

	var payload braveResponse
	err := b.client.GetJSON(ctx, httputil.RequestDetails{
		URL: b.baseURL,
		Query: url.Values{
			"q":     {q},
			"count": {strconv.Itoa(limit)},
		},
		Headers: map[string]string{"X-Subscription-Token": b.apiKey},
	}, &payload)
	if err != nil {
		b.logger.Error().Err(err).Msg("Brave search failed")
		return nil, aierrors.CallFailed(braveName, "search", classify(err))
	}

	results := payload.Web.Results
	if len(results) > limit {
		results = results[:limit]
	}

	b.logger.Debug().Str("query", q).Int("results", len(results)).Msg("Brave search completed")
	return results, nil
}

// classify marks rate limiting and 5xx responses that outlived the client's own retries
func classify(err error) error {
	var statusErr *httputil.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	switch {
	case statusErr.StatusCode == http.StatusTooManyRequests:
		return aierrors.Mark(aierrors.ErrRateLimit, err)
	case statusErr.Temporary():
		return aierrors.Mark(aierrors.ErrTransient, err)
	}
	return err
}

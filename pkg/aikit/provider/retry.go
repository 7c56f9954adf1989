package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	aierrors "github.com/mmichie/greenie/pkg/aikit/errors"
)

// RetryingProvider repeats failed calls on transport-level failures only.
// Unavailable providers and cancelled contexts fail on the first attempt.
type RetryingProvider struct {
	Provider
	maxRetries int
	delay      time.Duration
	logger     zerolog.Logger
}

// WithRetries wraps p with bounded retry. maxRetries <= 0 returns p unchanged.
func WithRetries(p Provider, maxRetries int, delay time.Duration, logger zerolog.Logger) Provider {
	if maxRetries <= 0 {
		return p
	}
	return &RetryingProvider{
		Provider:   p,
		maxRetries: maxRetries,
		delay:      delay,
		logger:     logger.With().Str("provider", p.Name()).Logger(),
	}
}

// GenerateText retries the wrapped provider's GenerateText
func (r *RetryingProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	return r.do(ctx, "generate_text", func() (string, error) {
		return r.Provider.GenerateText(ctx, prompt)
	})
}

// GenerateWithImage retries the wrapped provider's GenerateWithImage
func (r *RetryingProvider) GenerateWithImage(ctx context.Context, prompt string, image []byte) (string, error) {
	return r.do(ctx, "generate_with_image", func() (string, error) {
		return r.Provider.GenerateWithImage(ctx, prompt, image)
	})
}

func (r *RetryingProvider) do(ctx context.Context, op string, call func() (string, error)) (string, error) {
	var (
		out string
		err error
	)

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", aierrors.Wrap(ctx.Err(), r.Name(), op)
			case <-time.After(r.delay):
			}
		}

		out, err = call()
		if err == nil {
			return out, nil
		}

		if !aierrors.IsRetryable(err) || ctx.Err() != nil {
			break
		}

		r.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("Provider call failed, retrying")
	}

	return "", err
}

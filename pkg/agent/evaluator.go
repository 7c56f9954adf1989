package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	aierrors "github.com/mmichie/greenie/pkg/aikit/errors"
	"github.com/mmichie/greenie/pkg/aikit/prompt"
)

// Evaluator reviews the draft against the original question
type Evaluator struct {
	gen      TextGenerator
	prompts  *prompt.Registry
	observer Observer
	logger   zerolog.Logger
}

// NewEvaluator creates an Evaluator
func NewEvaluator(gen TextGenerator, prompts *prompt.Registry, opts ...Option) *Evaluator {
	s := newSettings(opts)
	return &Evaluator{
		gen:      gen,
		prompts:  prompts,
		observer: s.observer,
		logger:   s.logger.With().Str("component", "evaluator").Logger(),
	}
}

// EvaluateResponse returns the reviewed answer, or the draft unchanged when
// the review fails. The apology and empty drafts are passed through without
// a model call.
func (e *Evaluator) EvaluateResponse(ctx context.Context, draft, originalMessage string) EvalResult {
	result := e.evaluate(ctx, draft, originalMessage)
	if result.Err != nil {
		e.logger.Error().Err(result.Err).Msg("Error evaluating response, returning draft")
		result.Response = draft
	}
	e.observer.StageCompleted(StageEvaluate, result.Degraded())
	return result
}

func (e *Evaluator) evaluate(ctx context.Context, draft, originalMessage string) EvalResult {
	if draft == ApologyMessage || strings.TrimSpace(draft) == "" {
		return EvalResult{Response: draft}
	}

	text, err := e.prompts.Render(prompt.Templates.Evaluate, map[string]any{
		"Message": originalMessage,
		"Draft":   draft,
	})
	if err != nil {
		return EvalResult{Err: fmt.Errorf("%w: %w", aierrors.ErrApplication, err)}
	}

	out, err := e.gen.GenerateText(ctx, text)
	if err == nil && strings.TrimSpace(out) == "" {
		err = aierrors.CallFailed(ProviderModel, StageEvaluate, aierrors.ErrEmptyResponse)
	}
	e.observer.ProviderCalled(ProviderModel, StageEvaluate, err)
	if err != nil {
		return EvalResult{Err: err}
	}

	return EvalResult{Response: strings.TrimSpace(out)}
}

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	aierrors "github.com/mmichie/greenie/pkg/aikit/errors"
	"github.com/mmichie/greenie/pkg/aikit/prompt"
	"github.com/mmichie/greenie/pkg/search"
)

// Executor gathers what the plan asks for and writes the draft answer
type Executor struct {
	gen         TextGenerator
	prompts     *prompt.Registry
	searcher    Searcher
	analyzer    ImageAnalyzer
	searchLimit int
	observer    Observer
	logger      zerolog.Logger
}

// NewExecutor creates an Executor. Without WithSearcher or
// WithImageAnalyzer the corresponding step is skipped.
func NewExecutor(gen TextGenerator, prompts *prompt.Registry, opts ...Option) *Executor {
	s := newSettings(opts)
	return &Executor{
		gen:         gen,
		prompts:     prompts,
		searcher:    s.searcher,
		analyzer:    s.analyzer,
		searchLimit: s.searchLimit,
		observer:    s.observer,
		logger:      s.logger.With().Str("component", "executor").Logger(),
	}
}

// ExecutePlan returns the draft answer. Search and image failures drop
// their block; a failed answering call yields ApologyMessage with the cause
// in Err.
func (e *Executor) ExecutePlan(ctx context.Context, plan Plan) ExecResult {
	ec := ExecutionContext{PlanText: plan.Instructions}

	if plan.NeedsWebSearch {
		ec.SearchBlock = e.searchBlock(ctx, plan.Instructions)
	}

	if plan.ShouldAnalyzeImage() {
		ec.ImageBlock = e.imageBlock(ctx, plan)
	}

	result := ExecResult{Context: ec}
	result.Response, result.Err = e.answer(ctx, ec)
	if result.Err != nil {
		e.logger.Error().Err(result.Err).Msg("Error executing plan")
		result.Response = ApologyMessage
	}

	e.observer.StageCompleted(StageExecute, result.Degraded())
	return result
}

func (e *Executor) searchBlock(ctx context.Context, query string) string {
	if e.searcher == nil {
		e.logger.Debug().Msg("Web search requested but no searcher configured")
		return ""
	}

	results, err := e.searcher.Search(ctx, query, e.searchLimit)
	e.observer.ProviderCalled(ProviderSearch, "search", err)
	if err != nil {
		if aierrors.IsUnavailable(err) {
			e.logger.Warn().Err(err).Msg("Web search unavailable, continuing without results")
		} else {
			e.logger.Error().Err(err).Msg("Web search failed, continuing without results")
		}
		return ""
	}

	return search.Format(results)
}

func (e *Executor) imageBlock(ctx context.Context, plan Plan) string {
	if e.analyzer == nil {
		e.logger.Debug().Msg("Image analysis requested but no analyzer configured")
		return ""
	}

	analysis := e.analyzer.Analyze(ctx, plan.Image, "")
	var err error
	if !analysis.Success {
		err = fmt.Errorf("image analysis failed: %s", analysis.Error)
	}
	e.observer.ProviderCalled(ProviderVision, "analyze", err)
	if err != nil {
		e.logger.Error().Err(err).Msg("Image analysis failed, continuing without it")
		return ""
	}

	return analysis.Analysis
}

func (e *Executor) answer(ctx context.Context, ec ExecutionContext) (string, error) {
	text, err := e.prompts.Render(prompt.Templates.Execute, map[string]any{"Context": ec.Render()})
	if err != nil {
		return "", fmt.Errorf("%w: %w", aierrors.ErrApplication, err)
	}

	out, err := e.gen.GenerateText(ctx, text)
	if err == nil && strings.TrimSpace(out) == "" {
		err = aierrors.CallFailed(ProviderModel, StageExecute, aierrors.ErrEmptyResponse)
	}
	e.observer.ProviderCalled(ProviderModel, StageExecute, err)
	return out, err
}

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	aierrors "github.com/mmichie/greenie/pkg/aikit/errors"
	"github.com/mmichie/greenie/pkg/aikit/prompt"
	"github.com/mmichie/greenie/pkg/vision"
)

// Planner asks the model how to answer a message
type Planner struct {
	gen      TextGenerator
	prompts  *prompt.Registry
	observer Observer
	logger   zerolog.Logger
}

// NewPlanner creates a Planner. prompts must contain the plan template.
func NewPlanner(gen TextGenerator, prompts *prompt.Registry, opts ...Option) *Planner {
	s := newSettings(opts)
	return &Planner{
		gen:      gen,
		prompts:  prompts,
		observer: s.observer,
		logger:   s.logger.With().Str("component", "planner").Logger(),
	}
}

// CreatePlan always returns a plan. When the model call fails the result
// carries FallbackPlan and the cause in Err.
func (p *Planner) CreatePlan(ctx context.Context, message string, image *vision.Image) PlanResult {
	result := p.createPlan(ctx, message, image)
	if result.Err != nil {
		p.logger.Error().Err(result.Err).Msg("Error creating plan")
	}
	p.observer.StageCompleted(StagePlan, result.Degraded())
	return result
}

func (p *Planner) createPlan(ctx context.Context, message string, image *vision.Image) PlanResult {
	text, err := p.prompts.Render(prompt.Templates.Plan, map[string]any{"Message": message})
	if err != nil {
		return PlanResult{Plan: FallbackPlan(), Err: fmt.Errorf("%w: %w", aierrors.ErrApplication, err)}
	}

	var out string
	if image.Empty() {
		out, err = p.gen.GenerateText(ctx, text)
	} else {
		out, err = p.gen.GenerateWithImage(ctx, text, image.Data)
	}
	if err == nil && strings.TrimSpace(out) == "" {
		err = aierrors.CallFailed(ProviderModel, StagePlan, aierrors.ErrEmptyResponse)
	}
	p.observer.ProviderCalled(ProviderModel, StagePlan, err)
	if err != nil {
		return PlanResult{Plan: FallbackPlan(), Err: err}
	}

	plan := NewPlan(out, RequestsWebSearch(message), image)
	p.logger.Debug().
		Bool("web_search", plan.NeedsWebSearch).
		Bool("image_analysis", plan.NeedsImageAnalysis).
		Msg("Plan created")

	return PlanResult{Plan: plan}
}

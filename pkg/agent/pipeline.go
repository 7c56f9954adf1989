package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmichie/greenie/pkg/aikit/prompt"
	"github.com/mmichie/greenie/pkg/vision"
)

// Pipeline runs Planner, Executor and Evaluator in sequence. It holds no
// per-request state and may be shared between goroutines.
type Pipeline struct {
	planner   *Planner
	executor  *Executor
	evaluator *Evaluator
	observer  Observer
	logger    zerolog.Logger
}

// Trace records every stage's result for one request
type Trace struct {
	Plan  PlanResult
	Draft ExecResult
	Final EvalResult
}

// New builds a pipeline whose stages share gen, prompts and opts
func New(gen TextGenerator, prompts *prompt.Registry, opts ...Option) *Pipeline {
	s := newSettings(opts)
	return &Pipeline{
		planner:   NewPlanner(gen, prompts, opts...),
		executor:  NewExecutor(gen, prompts, opts...),
		evaluator: NewEvaluator(gen, prompts, opts...),
		observer:  s.observer,
		logger:    s.logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run answers message and returns only the final response
func (p *Pipeline) Run(ctx context.Context, message string, image *vision.Image) string {
	return p.Process(ctx, message, image).Final.Response
}

// Process answers message and returns the result of every stage
func (p *Pipeline) Process(ctx context.Context, message string, image *vision.Image) Trace {
	start := time.Now()

	var t Trace
	t.Plan = p.planner.CreatePlan(ctx, message, image)
	t.Draft = p.executor.ExecutePlan(ctx, t.Plan.Plan)
	t.Final = p.evaluator.EvaluateResponse(ctx, t.Draft.Response, message)

	elapsed := time.Since(start)
	p.observer.PipelineCompleted(elapsed)
	p.logger.Info().
		Dur("elapsed", elapsed).
		Bool("plan_degraded", t.Plan.Degraded()).
		Bool("execute_degraded", t.Draft.Degraded()).
		Bool("evaluate_degraded", t.Final.Degraded()).
		Msg("Request processed")

	return t
}

// Package agent implements the plan, execute and evaluate pipeline that
// turns one user message (and optional photo) into the assistant's answer.
//
// Every stage is total: a provider failure is logged, recorded on the
// stage's result and replaced with that stage's fallback value, so the
// pipeline always produces an answer.
package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmichie/greenie/pkg/search"
	"github.com/mmichie/greenie/pkg/vision"
)

//go:generate mockgen -destination=mocks/mock_agent.go -package=mocks github.com/mmichie/greenie/pkg/agent TextGenerator,Searcher,ImageAnalyzer,Observer

// TextGenerator is the language-model capability every stage calls
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, prompt string, image []byte) (string, error)
}

// Searcher runs a web search
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// ImageAnalyzer describes a photo. An empty question requests the default
// analysis.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, img *vision.Image, question string) vision.Analysis
}

// Observer receives stage and provider outcomes, typically for metrics
type Observer interface {
	StageCompleted(stage string, degraded bool)
	ProviderCalled(provider, op string, err error)
	PipelineCompleted(elapsed time.Duration)
}

// Stage names reported to the Observer
const (
	StagePlan     = "plan"
	StageExecute  = "execute"
	StageEvaluate = "evaluate"
)

// Provider names reported to the Observer
const (
	ProviderModel  = "model"
	ProviderSearch = "search"
	ProviderVision = "vision"
)

type nopObserver struct{}

func (nopObserver) StageCompleted(string, bool)         {}
func (nopObserver) ProviderCalled(string, string, error) {}
func (nopObserver) PipelineCompleted(time.Duration)     {}

// Option configures the stages and the pipeline
type Option func(*settings)

type settings struct {
	searcher    Searcher
	analyzer    ImageAnalyzer
	observer    Observer
	logger      zerolog.Logger
	searchLimit int
}

func newSettings(opts []Option) settings {
	s := settings{
		observer:    nopObserver{},
		logger:      zerolog.Nop(),
		searchLimit: search.DefaultCount,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithSearcher enables web search for plans that ask for it
func WithSearcher(s Searcher) Option {
	return func(o *settings) {
		o.searcher = s
	}
}

// WithImageAnalyzer enables image analysis for plans that carry a photo
func WithImageAnalyzer(a ImageAnalyzer) Option {
	return func(o *settings) {
		o.analyzer = a
	}
}

// WithObserver reports stage and provider outcomes to o
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(o *settings) {
		o.logger = l
	}
}

// WithSearchLimit sets how many search results are requested
func WithSearchLimit(n int) Option {
	return func(o *settings) {
		if n > 0 {
			o.searchLimit = n
		}
	}
}

package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aierrors "github.com/mmichie/greenie/pkg/aikit/errors"
	"github.com/mmichie/greenie/pkg/aikit/prompt"
	"github.com/mmichie/greenie/pkg/agent/mocks"
	"github.com/mmichie/greenie/pkg/search"
	"github.com/mmichie/greenie/pkg/vision"
)

var photo = vision.NewImage("plant.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3})

type fixture struct {
	ctrl     *gomock.Controller
	gen      *mocks.MockTextGenerator
	searcher *mocks.MockSearcher
	analyzer *mocks.MockImageAnalyzer
	prompts  *prompt.Registry
}

func setupTest(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	prompts, err := prompt.Default()
	require.NoError(t, err)

	return &fixture{
		ctrl:     ctrl,
		gen:      mocks.NewMockTextGenerator(ctrl),
		searcher: mocks.NewMockSearcher(ctrl),
		analyzer: mocks.NewMockImageAnalyzer(ctrl),
		prompts:  prompts,
	}
}

func (f *fixture) options() []Option {
	return []Option{WithSearcher(f.searcher), WithImageAnalyzer(f.analyzer)}
}

func TestRequestsWebSearch(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"Can you research companion planting?", true},
		{"I need INFORMATION about bees", true},
		{"Researchers say clover fixes nitrogen", true},
		{"How do I treat aphids on my tomato plants?", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, RequestsWebSearch(tt.message))
		})
	}
}

func TestNewPlan(t *testing.T) {
	t.Run("Image present", func(t *testing.T) {
		plan := NewPlan("look at it", false, photo)
		assert.True(t, plan.NeedsImageAnalysis)
		assert.True(t, plan.ShouldAnalyzeImage())
	})

	t.Run("Empty image is dropped", func(t *testing.T) {
		plan := NewPlan("look at it", true, &vision.Image{Name: "empty.jpg"})
		assert.False(t, plan.NeedsImageAnalysis)
		assert.Nil(t, plan.Image)
		assert.True(t, plan.NeedsWebSearch)
	})

	t.Run("Flag without image is ignored", func(t *testing.T) {
		plan := Plan{Instructions: "x", NeedsImageAnalysis: true}
		assert.False(t, plan.ShouldAnalyzeImage())
	})

	t.Run("Fallback", func(t *testing.T) {
		plan := FallbackPlan()
		assert.Equal(t, "Provide a simple response based on general knowledge", plan.Instructions)
		assert.False(t, plan.NeedsWebSearch)
		assert.False(t, plan.NeedsImageAnalysis)
	})
}

func TestExecutionContextRender(t *testing.T) {
	t.Run("Plan only", func(t *testing.T) {
		assert.Equal(t, "Plan: gather facts\n\n", ExecutionContext{PlanText: "gather facts"}.Render())
	})

	t.Run("Blocks in order", func(t *testing.T) {
		out := ExecutionContext{PlanText: "p", SearchBlock: "S", ImageBlock: "I"}.Render()
		assert.Equal(t, "Plan: p\n\nWeb Search Results:\nS\n\nImage Analysis Results:\nI\n\n", out)
	})

	t.Run("Image without search", func(t *testing.T) {
		out := ExecutionContext{PlanText: "p", ImageBlock: "I"}.Render()
		assert.Equal(t, "Plan: p\n\nImage Analysis Results:\nI\n\n", out)
	})
}

func TestPlanner(t *testing.T) {
	f := setupTest(t)
	defer f.ctrl.Finish()

	planner := NewPlanner(f.gen, f.prompts)
	ctx := context.Background()

	t.Run("Stores model output verbatim", func(t *testing.T) {
		f.gen.EXPECT().
			GenerateText(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p string) (string, error) {
				assert.Contains(t, p, "User Query: Can you research soil microbes?")
				return `{"information": ["microbes"]}`, nil
			})

		result := planner.CreatePlan(ctx, "Can you research soil microbes?", nil)
		require.NoError(t, result.Err)
		assert.Equal(t, `{"information": ["microbes"]}`, result.Plan.Instructions)
		assert.True(t, result.Plan.NeedsWebSearch)
		assert.False(t, result.Plan.NeedsImageAnalysis)
	})

	t.Run("Sends the image with the planning prompt", func(t *testing.T) {
		f.gen.EXPECT().GenerateWithImage(gomock.Any(), gomock.Any(), photo.Data).Return("identify it", nil)

		result := planner.CreatePlan(ctx, "What is this plant?", photo)
		require.NoError(t, result.Err)
		assert.True(t, result.Plan.NeedsImageAnalysis)
		assert.Same(t, photo, result.Plan.Image)
	})

	t.Run("Falls back on provider failure", func(t *testing.T) {
		f.gen.EXPECT().GenerateText(gomock.Any(), gomock.Any()).Return("", aierrors.CallFailed("gemini", "generate_text", assert.AnError))

		result := planner.CreatePlan(ctx, "Any information on mulch?", nil)
		assert.True(t, result.Degraded())
		assert.ErrorIs(t, result.Err, aierrors.ErrProviderCall)
		assert.Equal(t, FallbackPlan(), result.Plan)
	})

	t.Run("Falls back on empty output", func(t *testing.T) {
		f.gen.EXPECT().GenerateWithImage(gomock.Any(), gomock.Any(), gomock.Any()).Return("  ", nil)

		result := planner.CreatePlan(ctx, "What is this?", photo)
		assert.ErrorIs(t, result.Err, aierrors.ErrEmptyResponse)
		assert.Equal(t, FallbackPlan(), result.Plan)
	})
}

func TestExecutor(t *testing.T) {
	f := setupTest(t)
	defer f.ctrl.Finish()

	executor := NewExecutor(f.gen, f.prompts, f.options()...)
	ctx := context.Background()

	t.Run("No image guard", func(t *testing.T) {
		f.gen.EXPECT().GenerateText(gomock.Any(), gomock.Any()).Return("answer", nil)

		result := executor.ExecutePlan(ctx, Plan{Instructions: "p", NeedsImageAnalysis: true})
		require.NoError(t, result.Err)
		assert.Equal(t, "answer", result.Response)
		assert.Empty(t, result.Context.ImageBlock)
	})

	t.Run("Search failure does not short-circuit", func(t *testing.T) {
		f.searcher.EXPECT().Search(gomock.Any(), "p", search.DefaultCount).Return(nil, aierrors.CallFailed("brave", "search", assert.AnError))
		f.gen.EXPECT().
			GenerateText(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p string) (string, error) {
				assert.NotContains(t, p, "Web Search Results:")
				assert.Contains(t, p, "Plan: p")
				return "answer", nil
			})

		result := executor.ExecutePlan(ctx, Plan{Instructions: "p", NeedsWebSearch: true})
		require.NoError(t, result.Err)
		assert.Empty(t, result.Context.SearchBlock)
		assert.Equal(t, "answer", result.Response)
	})

	t.Run("Search and image blocks are merged in order", func(t *testing.T) {
		hits := []search.Result{{Title: "Clover", URL: "https://example.org/clover", Description: "Nitrogen fixer"}}
		f.searcher.EXPECT().Search(gomock.Any(), "plan text", search.DefaultCount).Return(hits, nil)
		f.analyzer.EXPECT().Analyze(gomock.Any(), photo, "").Return(vision.Analysis{Success: true, Analysis: "White clover"})
		f.gen.EXPECT().
			GenerateText(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p string) (string, error) {
				assert.True(t, strings.HasPrefix(p, "You are an ecological assistant. Execute the following plan"))
				plan := strings.Index(p, "Plan: plan text")
				web := strings.Index(p, "Web Search Results:\nSearch Results:\n\n1. Clover")
				img := strings.Index(p, "Image Analysis Results:\nWhite clover")
				assert.True(t, plan >= 0 && web > plan && img > web, p)
				return "answer", nil
			})

		result := executor.ExecutePlan(ctx, NewPlan("plan text", true, photo))
		require.NoError(t, result.Err)
		assert.Equal(t, 1, search.CountEntries(result.Context.SearchBlock))
	})

	t.Run("Failed image analysis is omitted", func(t *testing.T) {
		f.analyzer.EXPECT().Analyze(gomock.Any(), photo, "").Return(vision.Analysis{Error: "Error analyzing image: boom"})
		f.gen.EXPECT().GenerateText(gomock.Any(), gomock.Any()).Return("answer", nil)

		result := executor.ExecutePlan(ctx, NewPlan("p", false, photo))
		require.NoError(t, result.Err)
		assert.Empty(t, result.Context.ImageBlock)
	})

	t.Run("Model failure returns the apology verbatim", func(t *testing.T) {
		f.gen.EXPECT().GenerateText(gomock.Any(), gomock.Any()).Return("", assert.AnError)

		result := executor.ExecutePlan(ctx, Plan{Instructions: "p"})
		assert.Equal(t, "I'm sorry, I encountered an issue while processing your request. Please try again or ask a different question.", result.Response)
		assert.ErrorIs(t, result.Err, assert.AnError)
	})

	t.Run("No searcher configured", func(t *testing.T) {
		bare := NewExecutor(f.gen, f.prompts)
		f.gen.EXPECT().GenerateText(gomock.Any(), gomock.Any()).Return("answer", nil)

		result := bare.ExecutePlan(ctx, Plan{Instructions: "p", NeedsWebSearch: true})
		assert.Equal(t, "answer", result.Response)
	})
}

func TestEvaluator(t *testing.T) {
	f := setupTest(t)
	defer f.ctrl.Finish()

	evaluator := NewEvaluator(f.gen, f.prompts)
	ctx := context.Background()

	t.Run("Returns the revised answer", func(t *testing.T) {
		f.gen.EXPECT().
			GenerateText(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p string) (string, error) {
				assert.Contains(t, p, "User Query: How deep should I mulch?")
				assert.Contains(t, p, "Draft Response:\n5 cm")
				return " 5 to 7 cm of wood chips. ", nil
			})

		result := evaluator.EvaluateResponse(ctx, "5 cm", "How deep should I mulch?")
		require.NoError(t, result.Err)
		assert.Equal(t, "5 to 7 cm of wood chips.", result.Response)
	})

	t.Run("Returns the draft on failure", func(t *testing.T) {
		f.gen.EXPECT().GenerateText(gomock.Any(), gomock.Any()).Return("", assert.AnError)

		result := evaluator.EvaluateResponse(ctx, "5 cm", "How deep should I mulch?")
		assert.True(t, result.Degraded())
		assert.Equal(t, "5 cm", result.Response)
	})

	t.Run("Passes the apology through without a model call", func(t *testing.T) {
		result := evaluator.EvaluateResponse(ctx, ApologyMessage, "anything")
		assert.NoError(t, result.Err)
		assert.Equal(t, ApologyMessage, result.Response)
	})
}

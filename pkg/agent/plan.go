package agent

import (
	"strings"

	"github.com/mmichie/greenie/pkg/vision"
)

const (
	// FallbackInstructions replaces the plan when planning fails
	FallbackInstructions = "Provide a simple response based on general knowledge"

	// ApologyMessage is the answer returned when the response cannot be generated
	ApologyMessage = "I'm sorry, I encountered an issue while processing your request. Please try again or ask a different question."
)

var searchTriggers = []string{"research", "information"}

// Plan describes what the executor should gather before answering.
// Instructions is the model's plan text, kept verbatim.
type Plan struct {
	Instructions       string        `json:"instructions"`
	NeedsImageAnalysis bool          `json:"needs_image_analysis"`
	NeedsWebSearch     bool          `json:"needs_web_search"`
	Image              *vision.Image `json:"-"`
}

// NewPlan builds a plan; image analysis is requested exactly when an image
// is present.
func NewPlan(instructions string, needsWebSearch bool, image *vision.Image) Plan {
	if image.Empty() {
		image = nil
	}
	return Plan{
		Instructions:       instructions,
		NeedsImageAnalysis: image != nil,
		NeedsWebSearch:     needsWebSearch,
		Image:              image,
	}
}

// FallbackPlan is the plan used when the planning call fails
func FallbackPlan() Plan {
	return Plan{Instructions: FallbackInstructions}
}

// ShouldAnalyzeImage reports whether the image step can run. A plan that
// asks for analysis without an image is treated as not asking.
func (p Plan) ShouldAnalyzeImage() bool {
	return p.NeedsImageAnalysis && !p.Image.Empty()
}

// RequestsWebSearch reports whether message asks for research or information
func RequestsWebSearch(message string) bool {
	lower := strings.ToLower(message)
	for _, trigger := range searchTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// ExecutionContext is the material gathered for the answering call
type ExecutionContext struct {
	PlanText    string
	SearchBlock string
	ImageBlock  string
}

// Render lays out the plan, then search results, then image analysis
func (c ExecutionContext) Render() string {
	var b strings.Builder
	b.WriteString("Plan: ")
	b.WriteString(c.PlanText)
	b.WriteString("\n\n")

	if c.SearchBlock != "" {
		b.WriteString("Web Search Results:\n")
		b.WriteString(c.SearchBlock)
		b.WriteString("\n\n")
	}

	if c.ImageBlock != "" {
		b.WriteString("Image Analysis Results:\n")
		b.WriteString(c.ImageBlock)
		b.WriteString("\n\n")
	}

	return b.String()
}

// PlanResult is the planner's output. Err holds the cause when Plan is the
// fallback.
type PlanResult struct {
	Plan Plan
	Err  error
}

// Degraded reports whether the fallback plan was used
func (r PlanResult) Degraded() bool { return r.Err != nil }

// ExecResult is the executor's output. Err holds the cause when Response is
// the apology.
type ExecResult struct {
	Response string
	Context  ExecutionContext
	Err      error
}

// Degraded reports whether the apology was returned
func (r ExecResult) Degraded() bool { return r.Err != nil }

// EvalResult is the evaluator's output. Err holds the cause when the draft
// was returned unrevised.
type EvalResult struct {
	Response string
	Err      error
}

// Degraded reports whether the draft was returned because evaluation failed
func (r EvalResult) Degraded() bool { return r.Err != nil }

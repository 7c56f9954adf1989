// Package vision analyzes plant, soil and other ecological photos through a
// vision-capable language model.
package vision

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mmichie/greenie/pkg/aikit/prompt"
)

// Image is an uploaded or loaded picture
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// NewImage wraps raw bytes, sniffing the MIME type
func NewImage(name string, data []byte) *Image {
	return &Image{Name: name, MIMEType: http.DetectContentType(data), Data: data}
}

// Load reads an image from disk
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read image %s", path)
	}
	return NewImage(filepath.Base(path), data), nil
}

// Empty reports whether the image carries no bytes
func (i *Image) Empty() bool {
	return i == nil || len(i.Data) == 0
}

// Analysis is the outcome of one image analysis
type Analysis struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis,omitempty"`
	Error    string `json:"error,omitempty"`
}

//go:generate mockgen -destination=mocks/mock_generator.go -package=mocks github.com/mmichie/greenie/pkg/vision Generator

// Generator is the model call the analyzer depends on
type Generator interface {
	GenerateWithImage(ctx context.Context, prompt string, image []byte) (string, error)
}

// Analyzer runs image prompts against a Generator
type Analyzer struct {
	gen     Generator
	prompts *prompt.Registry
	logger  zerolog.Logger
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(gen Generator, prompts *prompt.Registry, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		gen:     gen,
		prompts: prompts,
		logger:  logger.With().Str("component", "vision").Logger(),
	}
}

// Analyze describes the image. An empty question uses the general
// identification, health, issues and care instruction; otherwise the model
// answers the question about the image.
func (a *Analyzer) Analyze(ctx context.Context, img *Image, question string) Analysis {
	if question == "" {
		return a.run(ctx, img, prompt.Templates.ImageAnalysis, nil)
	}
	return a.run(ctx, img, prompt.Templates.ImageQuestion, map[string]any{"Question": question})
}

// IdentifyPlant names the plant in the image
func (a *Analyzer) IdentifyPlant(ctx context.Context, img *Image) Analysis {
	return a.run(ctx, img, prompt.Templates.PlantIdentification, nil)
}

// DiagnosePlantIssue looks for symptoms, causes and treatments
func (a *Analyzer) DiagnosePlantIssue(ctx context.Context, img *Image) Analysis {
	return a.run(ctx, img, prompt.Templates.PlantDiagnosis, nil)
}

func (a *Analyzer) run(ctx context.Context, img *Image, template string, values map[string]any) Analysis {
	if img.Empty() {
		return Analysis{Error: "Image file not found"}
	}

	text, err := a.prompts.Render(template, values)
	if err != nil {
		a.logger.Error().Err(err).Str("template", template).Msg("Error building image prompt")
		return Analysis{Error: fmt.Sprintf("Error analyzing image: %v", err)}
	}

	out, err := a.gen.GenerateWithImage(ctx, text, img.Data)
	if err != nil {
		a.logger.Error().Err(err).Str("image", img.Name).Msg("Error analyzing image")
		return Analysis{Error: fmt.Sprintf("Error analyzing image: %v", err)}
	}

	return Analysis{Success: true, Analysis: out}
}

// Package provider defines the capability provider contract used by every
// generation call and its Gemini implementation.
package provider

import (
	"context"
)

// Provider represents a language-model backend able to answer text prompts
// and prompts that carry an image.
type Provider interface {
	// GenerateText sends a text-only prompt and returns the model's text
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateWithImage sends a prompt together with raw image bytes
	GenerateWithImage(ctx context.Context, prompt string, image []byte) (string, error)

	// Name identifies the provider (e.g. "gemini")
	Name() string

	// Model returns the model currently in use
	Model() string
}

// ModelCapabilities defines what a model can do
type ModelCapabilities struct {
	Supported     bool
	VisionCapable bool
}

package provider

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mmichie/greenie/pkg/aikit/config"
	aierrors "github.com/mmichie/greenie/pkg/aikit/errors"
)

const (
	geminiName         = "gemini"
	DefaultGeminiModel = "gemini-1.5-flash"
)

// SupportedGeminiModels lists the models the assistant may switch between
var SupportedGeminiModels = map[string]ModelCapabilities{
	"gemini-1.5-flash": {Supported: true, VisionCapable: true},
	"gemini-1.5-pro":   {Supported: true, VisionCapable: true},
}

// GeminiProvider implements Provider on top of Google's Gemini API.
// A provider built without an API key stays usable: every call reports
// aierrors.ErrProviderUnavailable so callers can degrade.
type GeminiProvider struct {
	mu     sync.RWMutex
	client *genai.Client
	model  string
	cfg    config.Config
	logger zerolog.Logger
}

// NewGeminiProvider creates a Gemini provider from explicit configuration
func NewGeminiProvider(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*GeminiProvider, error) {
	model := cfg.Model
	if _, ok := SupportedGeminiModels[model]; !ok {
		model = DefaultGeminiModel
	}

	p := &GeminiProvider{
		model:  model,
		cfg:    cfg,
		logger: logger.With().Str("provider", geminiName).Logger(),
	}

	if !cfg.HasCredentials() {
		p.logger.Warn().Msg("Gemini API key not found; text generation is unavailable")
		return p, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, aierrors.New(geminiName, "create", errors.Wrap(err, "failed to create Gemini client"))
	}
	p.client = client

	p.logger.Info().Str("model", model).Msg("Gemini provider initialized")
	return p, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return geminiName
}

// Model returns the current model
func (p *GeminiProvider) Model() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// Available reports whether the provider was configured with credentials
func (p *GeminiProvider) Available() bool {
	return p.client != nil
}

// SwitchModel changes the active model. Unsupported names leave the current
// model in place and return false.
func (p *GeminiProvider) SwitchModel(model string) bool {
	capabilities, ok := SupportedGeminiModels[model]
	if !ok || !capabilities.Supported {
		p.logger.Warn().Str("model", model).Msg("Unsupported model")
		return false
	}

	p.mu.Lock()
	p.model = model
	p.mu.Unlock()

	p.logger.Info().Str("model", model).Msg("Switched model")
	return true
}

// GenerateText sends a text prompt to Gemini
func (p *GeminiProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	return p.generate(ctx, "generate_text", genai.Text(prompt))
}

// GenerateWithImage sends a prompt and an inline image to Gemini
func (p *GeminiProvider) GenerateWithImage(ctx context.Context, prompt string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", aierrors.New(geminiName, "generate_with_image", aierrors.ErrInvalidConfig)
	}
	if !SupportedGeminiModels[p.Model()].VisionCapable {
		return "", aierrors.New(geminiName, "generate_with_image",
			errors.Wrapf(aierrors.ErrInvalidConfig, "model %s does not accept images", p.Model()))
	}
	return p.generate(ctx, "generate_with_image", genai.Text(prompt), genai.ImageData(imageFormat(image), image))
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *GeminiProvider) generate(ctx context.Context, op string, parts ...genai.Part) (string, error) {
	if p.client == nil {
		return "", aierrors.New(geminiName, op, aierrors.ErrProviderUnavailable)
	}

	model := p.client.GenerativeModel(p.Model())
	if p.cfg.Temperature > 0 {
		model.SetTemperature(float32(p.cfg.Temperature))
	}
	if p.cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(p.cfg.MaxTokens))
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", aierrors.CallFailed(geminiName, op, classify(err))
	}

	text := ResponseText(resp)
	if text == "" {
		return "", aierrors.CallFailed(geminiName, op, aierrors.ErrEmptyResponse)
	}

	return text, nil
}

// classify marks rate limiting and transient transport failures so the
// retry wrapper can tell them apart from rejected requests.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return aierrors.Mark(aierrors.ErrRateLimit, err)
		case apiErr.Code == http.StatusRequestTimeout || apiErr.Code >= 500:
			return aierrors.Mark(aierrors.ErrTransient, err)
		}
		return err
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted:
			return aierrors.Mark(aierrors.ErrRateLimit, err)
		case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
			return aierrors.Mark(aierrors.ErrTransient, err)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return aierrors.Mark(aierrors.ErrTransient, err)
	}
	return err
}

// ResponseText concatenates the text parts of the first candidate that has content
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var fullResponse strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				fullResponse.WriteString(string(text))
			}
		}
		if fullResponse.Len() > 0 {
			break
		}
	}

	return strings.TrimSpace(fullResponse.String())
}

// imageFormat sniffs the image subtype ("png", "jpeg", ...) that genai.ImageData expects
func imageFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	if format, ok := strings.CutPrefix(contentType, "image/"); ok {
		return format
	}
	return "jpeg"
}

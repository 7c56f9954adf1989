// Package commands provides all the CLI commands for the application
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mmichie/greenie/internal/config"
	"github.com/mmichie/greenie/pkg/agent"
	"github.com/mmichie/greenie/pkg/aikit/prompt"
	"github.com/mmichie/greenie/pkg/aikit/provider"
	"github.com/mmichie/greenie/pkg/logging"
	"github.com/mmichie/greenie/pkg/metrics"
	"github.com/mmichie/greenie/pkg/search"
	"github.com/mmichie/greenie/pkg/store"
	"github.com/mmichie/greenie/pkg/vision"
)

var appConfig *config.Config

// SetConfig hands the loaded configuration to the commands. The root
// command calls it before any command runs.
func SetConfig(cfg *config.Config) {
	appConfig = cfg
}

// app wires every component a command may need
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	gemini   *provider.GeminiProvider
	analyzer *vision.Analyzer
	pipeline *agent.Pipeline
	history  *store.ChatStore
	metrics  *metrics.Registry
}

type appOptions struct {
	console bool
}

// newApp builds the providers, pipeline and store from the loaded config.
// Console logging is suppressed when the caller owns the terminal.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	if appConfig == nil {
		return nil, errors.New("configuration not loaded")
	}
	cfg := appConfig

	log, err := logging.New(logging.Config{
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console && opts.console,
	})
	if err != nil {
		return nil, err
	}

	prompts, err := prompt.Default()
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	gemini, err := provider.NewGeminiProvider(ctx, cfg.Gemini.ProviderConfig(), log.Logger)
	if err != nil {
		log.Close()
		return nil, err
	}
	model := provider.WithRetries(gemini, cfg.Gemini.MaxRetries, cfg.Gemini.RetryDelay, log.Logger)

	history, err := store.Open(cfg.Database.Path, log.Logger)
	if err != nil {
		gemini.Close()
		log.Close()
		return nil, fmt.Errorf("failed to open chat store: %w", err)
	}

	reg := metrics.New()
	analyzer := vision.NewAnalyzer(model, prompts, log.Logger)

	pipeline := agent.New(model, prompts,
		agent.WithSearcher(search.NewBrave(cfg.Search.BraveConfig(), log.Logger)),
		agent.WithImageAnalyzer(analyzer),
		agent.WithObserver(reg),
		agent.WithLogger(log.Logger),
		agent.WithSearchLimit(cfg.Search.ResultCount),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		gemini:   gemini,
		analyzer: analyzer,
		pipeline: pipeline,
		history:  history,
		metrics:  reg,
	}, nil
}

// Close releases the store, the model client and the log files
func (a *app) Close() {
	if err := a.history.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close chat store")
	}
	if err := a.gemini.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close Gemini client")
	}
	a.log.Close()
}

// readInput joins args, or reads piped stdin when there are none
func readInput(args []string, stdin *os.File) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}

	if stdin == nil || term.IsTerminal(int(stdin.Fd())) {
		return "", nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("error reading from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func checkEmptyInput(input string) error {
	if input == "" {
		return fmt.Errorf("no input provided")
	}
	return nil
}

func loadImage(path string) (*vision.Image, error) {
	if path == "" {
		return nil, nil
	}
	img, err := vision.Load(path)
	if err != nil {
		return nil, err
	}
	if img.Empty() {
		return nil, fmt.Errorf("image %s is empty", path)
	}
	return img, nil
}

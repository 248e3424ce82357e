// Package generator provides the text generators the pipeline stages call.
//
// A Generator turns a prompt into raw text that is expected to be JSON.
// Implementations:
//   - Mock: deterministic canned payloads chosen by a fingerprint in the prompt
//   - Anthropic: Messages API over HTTP with rate limiting and retries
//   - OpenAI: chat completions through langchaingo
//   - Fallback: serves from a secondary generator when the primary errors
//
// New selects one from configuration. Stage code never branches on which
// implementation it holds.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"go.uber.org/zap"
)

// DefaultSystemMessage instructs the model to answer with JSON only.
const DefaultSystemMessage = `You are an autonomous WordPress site generation agent.
You must output ONLY valid JSON following the exact schema specified in the prompt.
Be deterministic and precise.
Never include explanatory text outside the JSON structure.`

// Provider names accepted by New.
const (
	ProviderMock      = "mock"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Options are per-call generation parameters.
type Options struct {
	Temperature   float64
	TopP          float64
	MaxTokens     int
	SystemMessage string
}

// system returns the system message, defaulting to DefaultSystemMessage.
func (o Options) system() string {
	if strings.TrimSpace(o.SystemMessage) == "" {
		return DefaultSystemMessage
	}
	return o.SystemMessage
}

// Generator produces raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// New builds the generator selected by cfg.Provider. Real providers are
// wrapped in a Fallback to the mock when cfg.FallbackToMock is set. A real
// provider without an API key degrades to the mock under the same flag.
func New(cfg config.GeneratorConfig, logger *logging.Logger) (Generator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	mock := NewMock()

	provider := strings.ToLower(cfg.Provider)
	if provider == "" || provider == ProviderMock {
		return mock, nil
	}

	if !cfg.APIKey.IsSet() {
		if cfg.FallbackToMock {
			logger.Warn(context.Background(), "generator API key not set, using mock generator",
				zap.String("provider", provider))
			return mock, nil
		}
		return nil, fmt.Errorf("%s generator requires an API key", provider)
	}

	var (
		primary Generator
		err     error
	)
	switch provider {
	case ProviderAnthropic:
		primary, err = NewAnthropic(cfg)
	case ProviderOpenAI:
		primary, err = NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s generator: %w", provider, err)
	}
	logger.Info(context.Background(), "generator configured",
		zap.String("provider", provider),
		zap.String("model", cfg.Model),
		logging.Secret("api_key", cfg.APIKey))

	if cfg.FallbackToMock {
		return NewFallback(primary, mock, logger), nil
	}
	return primary, nil
}

// Mode reports "mock" when g only ever serves canned payloads, otherwise "real".
func Mode(g Generator) string {
	if _, ok := g.(*Mock); ok {
		return "mock"
	}
	return "real"
}

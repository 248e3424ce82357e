package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI generates text through an OpenAI-compatible chat endpoint.
type OpenAI struct {
	model llms.Model
}

// NewOpenAI creates an OpenAI generator backed by langchaingo.
func NewOpenAI(cfg config.GeneratorConfig) (*OpenAI, error) {
	if !cfg.APIKey.IsSet() {
		return nil, errors.New("openai API key required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey.Value()),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAI{model: llm}, nil
}

// NewOpenAIWithModel wraps an existing langchaingo model.
func NewOpenAIWithModel(model llms.Model) *OpenAI {
	return &OpenAI{model: model}
}

// Generate sends the system message and prompt as one chat exchange.
func (o *OpenAI) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, opts.system()),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	resp, err := o.model.GenerateContent(ctx, messages,
		llms.WithTemperature(opts.Temperature),
		llms.WithTopP(opts.TopP),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("empty response from API")
	}
	return resp.Choices[0].Content, nil
}

var _ Generator = (*OpenAI)(nil)

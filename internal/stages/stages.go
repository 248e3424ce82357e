// Package stages implements the four generation stages of the pipeline:
// planning, content, design and plugin selection.
//
// Planning and content call the generator; design and plugin selection are
// deterministic lookups. All of them return a stage.Result.
package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/generator"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"go.uber.org/zap"
)

// ErrGenerationFormat is returned when generator output cannot be coerced
// into a stage envelope even after repair.
var ErrGenerationFormat = errors.New("generation format error")

// Params are the generation parameters shared by the generator-backed stages.
type Params struct {
	Temperature float64
	TopP        float64
	Tokens      config.TokenBudgets
}

// ParamsFromConfig builds Params from loaded configuration.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Temperature: cfg.Generator.Temperature,
		TopP:        cfg.Generator.TopP,
		Tokens:      cfg.Tokens,
	}
}

// DefaultParams mirrors config.Default.
func DefaultParams() Params {
	return ParamsFromConfig(config.Default())
}

func (p Params) options(maxTokens int) generator.Options {
	return generator.Options{
		Temperature: p.Temperature,
		TopP:        p.TopP,
		MaxTokens:   maxTokens,
	}
}

// BusinessContext is the slice of business input passed to content generation.
type BusinessContext struct {
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	Industry     string `json:"industry"`
}

// generate calls the generator and decodes its output into a JSON object.
// Generator transport errors are returned; unparseable output becomes the
// canned failure payload.
func generate(ctx context.Context, gen generator.Generator, logger *logging.Logger, prompt string, opts generator.Options) (map[string]any, error) {
	raw, err := gen.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	doc, repaired := generator.Decode(raw)
	if repaired {
		logger.Warn(ctx, "generator output required repair",
			zap.Int("raw_len", len(raw)),
			zap.Any("action", doc["action"]))
	}
	return doc, nil
}

// decodeField re-encodes doc[key] into dst. Missing keys leave dst untouched.
func decodeField(doc map[string]any, key string, dst any) (bool, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return true, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

var (
	_ stage.Executor[stage.BusinessInput] = (*Planning)(nil)
	_ stage.Executor[ContentInput]        = (*Content)(nil)
	_ stage.Executor[DesignInput]         = (*Design)(nil)
	_ stage.Executor[PluginInput]         = (*Plugins)(nil)
)

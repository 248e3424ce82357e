package generator

import (
	"context"

	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"go.uber.org/zap"
)

// Fallback serves from Secondary whenever Primary errors.
type Fallback struct {
	Primary   Generator
	Secondary Generator
	logger    *logging.Logger
}

// NewFallback creates a fallback generator.
func NewFallback(primary, secondary Generator, logger *logging.Logger) *Fallback {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fallback{Primary: primary, Secondary: secondary, logger: logger}
}

// Generate tries Primary, then Secondary. A cancelled context is never retried.
func (f *Fallback) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	out, err := f.Primary.Generate(ctx, prompt, opts)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	f.logger.Warn(ctx, "primary generator failed, falling back", zap.Error(err))
	return f.Secondary.Generate(ctx, prompt, opts)
}

var _ Generator = (*Fallback)(nil)

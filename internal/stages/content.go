package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fyrsmithlabs/sitegen/internal/generator"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"go.uber.org/zap"
)

const (
	contentBatchSize  = 5
	maxInitialPosts   = 3
	contentConfidence = 0.82
)

// ContentInput is what the content stage needs from planning.
type ContentInput struct {
	Structure stage.SiteStructure
	Strategy  stage.ContentStrategy
	Business  BusinessContext
	Tone      string
}

// Content generates page and post bodies.
type Content struct {
	gen    generator.Generator
	params Params
	logger *logging.Logger
}

// NewContent creates the content stage.
func NewContent(gen generator.Generator, params Params, logger *logging.Logger) *Content {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Content{gen: gen, params: params, logger: logger.Named("content")}
}

// Execute generates pages in batches of five, then up to three blog posts.
func (c *Content) Execute(ctx context.Context, in ContentInput) (*stage.Result, error) {
	c.logger.Info(ctx, "starting content generation", zap.Int("planned_pages", len(in.Structure.Pages)))

	tone := in.Tone
	if tone == "" {
		tone = stage.DefaultTone
	}
	businessJSON, err := json.MarshalIndent(in.Business, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode business context: %w", err)
	}

	pages := []stage.Page{}
	for start := 0; start < len(in.Structure.Pages); start += contentBatchSize {
		end := min(start+contentBatchSize, len(in.Structure.Pages))
		batch, err := c.generateBatch(ctx, in.Structure.Pages[start:end], string(businessJSON), tone)
		if err != nil {
			return nil, err
		}
		pages = append(pages, batch...)
	}

	posts, err := c.generatePosts(ctx, in.Business.BusinessName, in.Strategy.SuggestedPosts)
	if err != nil {
		return nil, err
	}

	c.logger.Info(ctx, "content generation completed",
		zap.Int("pages", len(pages)),
		zap.Int("posts", len(posts)))

	return (&stage.Result{
		Status:     stage.StatusOK,
		Action:     "content_generated",
		Summary:    fmt.Sprintf("Generated %d pages and %d posts", len(pages), len(posts)),
		Payload:    &stage.ContentResult{Pages: pages, Posts: posts},
		Confidence: contentConfidence,
		NextSteps:  []string{"select_theme"},
	}).Normalize(), nil
}

func (c *Content) generateBatch(ctx context.Context, batch []stage.PageSpec, business, tone string) ([]stage.Page, error) {
	pagesJSON, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode page batch: %w", err)
	}
	prompt := generator.Render(contentBatchTemplate, map[string]string{
		"pages":            string(pagesJSON),
		"business_context": business,
		"tone":             tone,
	})

	doc, err := generate(ctx, c.gen, c.logger, prompt, c.params.options(c.params.Tokens.Content))
	if err != nil {
		return nil, fmt.Errorf("content generation: %w", err)
	}

	var pages []stage.Page
	if _, err := decodeField(doc, "pages", &pages); err != nil {
		c.logger.Warn(ctx, "discarding malformed page batch", zap.Error(err))
		return nil, nil
	}
	return pages, nil
}

func (c *Content) generatePosts(ctx context.Context, businessName string, suggested []stage.SuggestedPost) ([]stage.Post, error) {
	if len(suggested) > maxInitialPosts {
		suggested = suggested[:maxInitialPosts]
	}
	if len(suggested) == 0 {
		return []stage.Post{}, nil
	}

	topics, err := json.Marshal(suggested)
	if err != nil {
		return nil, fmt.Errorf("encode post topics: %w", err)
	}
	prompt := generator.Render(postsTemplate, map[string]string{
		"count":         strconv.Itoa(len(suggested)),
		"business_name": businessName,
		"topics":        string(topics),
	})

	doc, err := generate(ctx, c.gen, c.logger, prompt, c.params.options(c.params.Tokens.Content))
	if err != nil {
		return nil, fmt.Errorf("post generation: %w", err)
	}

	posts := []stage.Post{}
	if _, err := decodeField(doc, "posts", &posts); err != nil {
		c.logger.Warn(ctx, "discarding malformed posts", zap.Error(err))
		return []stage.Post{}, nil
	}
	return posts, nil
}

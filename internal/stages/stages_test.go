package stages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/fyrsmithlabs/sitegen/internal/generator"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// recorder wraps a generator and keeps every prompt it saw.
type recorder struct {
	mu      sync.Mutex
	next    generator.Generator
	prompts []string
	opts    []generator.Options
}

func (r *recorder) Generate(ctx context.Context, prompt string, opts generator.Options) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	r.opts = append(r.opts, opts)
	r.mu.Unlock()
	return r.next.Generate(ctx, prompt, opts)
}

func fixed(out string) generator.Generator {
	return generator.GeneratorFunc(func(context.Context, string, generator.Options) (string, error) {
		return out, nil
	})
}

func joes() stage.BusinessInput {
	return stage.BusinessInput{BusinessName: "Joe's Pizza", BusinessType: "restaurant"}
}

func TestInferIndustry(t *testing.T) {
	tests := map[string]string{
		"restaurant": "food_service",
		"Dental":     "healthcare",
		"law":        "legal",
		"retail":     "ecommerce",
		"consulting": "professional_services",
		"bakery":     "professional_services",
		"":           "professional_services",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, InferIndustry(in))
		})
	}
}

func TestPlanning_MockArchitecture(t *testing.T) {
	rec := &recorder{next: generator.NewMock()}
	p := NewPlanning(rec, DefaultParams(), nil)

	res, err := p.Execute(context.Background(), joes())
	require.NoError(t, err)

	assert.Equal(t, stage.StatusOK, res.Status)
	assert.Equal(t, 0.87, res.Confidence)
	assert.Equal(t, []string{
		"ASSUME: Industry inferred as food_service",
		"ASSUME: Using default description",
		"ASSUME: Using default goals: inform and generate leads",
	}, res.Assumptions)

	plan, ok := stage.PayloadAs[stage.PlanningResult](res)
	require.True(t, ok)
	assert.Len(t, plan.SiteStructure.Pages, 7)
	assert.Len(t, plan.ContentStrategy.SuggestedPosts, 3)
	assert.Equal(t, "food_service", plan.ResolvedIndustry)

	require.Len(t, rec.prompts, 1)
	prompt := rec.prompts[0]
	assert.Contains(t, prompt, "Business name: Joe's Pizza")
	assert.Contains(t, prompt, "Description: Professional restaurant website")
	assert.Contains(t, prompt, "Key goals: inform visitors, generate leads")
	assert.Contains(t, prompt, "Target audience: general public")
	assert.Equal(t, 600, rec.opts[0].MaxTokens)
	assert.Equal(t, 0.10, rec.opts[0].Temperature)
}

func TestPlanning_AssumptionsOnlyForFilledFields(t *testing.T) {
	in := joes()
	in.Industry = "hospitality"
	in.Goals = []string{"sell pizza"}

	res, err := NewPlanning(generator.NewMock(), DefaultParams(), nil).Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"ASSUME: Using default description"}, res.Assumptions)

	plan, ok := stage.PayloadAs[stage.PlanningResult](res)
	require.True(t, ok)
	assert.Equal(t, "hospitality", plan.ResolvedIndustry)
	assert.Equal(t, []string{"sell pizza"}, in.Goals, "caller input must not be mutated")
}

func TestPlanning_MalformedOutputFailsWithoutError(t *testing.T) {
	res, err := NewPlanning(fixed("I'm sorry, I can't produce JSON today."), DefaultParams(), nil).
		Execute(context.Background(), joes())
	require.NoError(t, err)

	assert.Equal(t, stage.StatusFailed, res.Status)
	assert.Equal(t, "json_extraction_failed", res.Action)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, []string{"retry_with_clearer_prompt"}, res.NextSteps)
	require.Len(t, res.Assumptions, 4)
	assert.Equal(t, "AI response was not valid JSON", res.Assumptions[0])
	assert.Equal(t, "ASSUME: Industry inferred as food_service", res.Assumptions[1])
}

func TestPlanning_FencedOutputIsRepaired(t *testing.T) {
	tl := logging.NewTestLogger()
	mockOut, err := generator.NewMock().Generate(context.Background(), "site architecture\nBusiness name: Fenced", generator.Options{})
	require.NoError(t, err)

	res, err := NewPlanning(fixed("```json\n"+mockOut+"\n```"), DefaultParams(), tl.Logger).
		Execute(context.Background(), joes())
	require.NoError(t, err)
	assert.Equal(t, stage.StatusOK, res.Status)
	tl.AssertLogged(t, zapcore.WarnLevel, "required repair")
}

func TestPlanning_EnvelopeViolations(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"missing confidence", `{"status":"ok","action":"x","result":{}}`},
		{"string confidence", `{"status":"ok","confidence":"high","result":{}}`},
		{"missing status", `{"confidence":0.9,"result":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlanning(fixed(tt.out), DefaultParams(), nil).Execute(context.Background(), joes())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrGenerationFormat)
		})
	}
}

func TestPlanning_SchemaValidation(t *testing.T) {
	out := `{"status":"ok","action":"site_architecture_generated","confidence":0.9,
		"result":{"site_structure":{"menus":[]},"features":[],"plugins":[]}}`

	res, err := NewPlanning(fixed(out), DefaultParams(), nil).Execute(context.Background(), joes())
	require.NoError(t, err)
	assert.Equal(t, stage.StatusFailed, res.Status)
	assert.Equal(t, "schema_validation_failed", res.Action)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Contains(t, res.Summary, "site_structure.pages")
	assert.Contains(t, res.Summary, "content_strategy")
	assert.Contains(t, res.Summary, "seo_foundation")
	assert.Len(t, res.Assumptions, 3)
}

func TestPlanning_NonOKStatusPassesThrough(t *testing.T) {
	out := `{"status":"needs_input","action":"clarify","result_summary":"need more","result":{"question":"which city?"},
		"assumptions":["model assumption"],"confidence":0.4,"next_steps":["ask_user"]}`

	res, err := NewPlanning(fixed(out), DefaultParams(), nil).Execute(context.Background(), joes())
	require.NoError(t, err)
	assert.Equal(t, stage.StatusNeedsInput, res.Status)
	assert.Equal(t, 0.4, res.Confidence)
	assert.Equal(t, map[string]any{"question": "which city?"}, res.Payload)
	assert.Equal(t, "model assumption", res.Assumptions[0])
	assert.Len(t, res.Assumptions, 4)
}

func TestPlanning_TooManyRequiredPluginsWarns(t *testing.T) {
	var plugins []string
	for i := range 6 {
		plugins = append(plugins, fmt.Sprintf(`{"name":"p%d","slug":"p%d","required":true}`, i, i))
	}
	out := `{"status":"ok","confidence":0.9,"result":{"site_structure":{"pages":[]},"features":[],
		"plugins":[` + strings.Join(plugins, ",") + `],"content_strategy":{},"seo_foundation":{}}}`

	tl := logging.NewTestLogger()
	res, err := NewPlanning(fixed(out), DefaultParams(), tl.Logger).Execute(context.Background(), joes())
	require.NoError(t, err)
	assert.Equal(t, stage.StatusOK, res.Status)
	tl.AssertLogged(t, zapcore.WarnLevel, "more required plugins")
}

func TestPlanning_GeneratorErrorIsReturned(t *testing.T) {
	boom := errors.New("connection refused")
	gen := generator.GeneratorFunc(func(context.Context, string, generator.Options) (string, error) {
		return "", boom
	})
	_, err := NewPlanning(gen, DefaultParams(), nil).Execute(context.Background(), joes())
	assert.ErrorIs(t, err, boom)
}

func specs(n int) []stage.PageSpec {
	out := make([]stage.PageSpec, n)
	for i := range out {
		out[i] = stage.PageSpec{Title: fmt.Sprintf("Page %d", i), Slug: fmt.Sprintf("page-%d", i)}
	}
	return out
}

func TestContent_Batching(t *testing.T) {
	tests := []struct {
		pages       int
		suggestions int
		wantCalls   int
		wantPages   int
		wantPosts   int
	}{
		{pages: 0, suggestions: 0, wantCalls: 0, wantPages: 0, wantPosts: 0},
		{pages: 5, suggestions: 0, wantCalls: 1, wantPages: 4, wantPosts: 0},
		{pages: 7, suggestions: 3, wantCalls: 3, wantPages: 8, wantPosts: 3},
		{pages: 11, suggestions: 5, wantCalls: 4, wantPages: 12, wantPosts: 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d pages %d suggestions", tt.pages, tt.suggestions), func(t *testing.T) {
			rec := &recorder{next: generator.NewMock()}
			suggested := make([]stage.SuggestedPost, tt.suggestions)
			for i := range suggested {
				suggested[i] = stage.SuggestedPost{Title: fmt.Sprintf("Post %d", i)}
			}

			res, err := NewContent(rec, DefaultParams(), nil).Execute(context.Background(), ContentInput{
				Structure: stage.SiteStructure{Pages: specs(tt.pages)},
				Strategy:  stage.ContentStrategy{SuggestedPosts: suggested},
				Business:  BusinessContext{BusinessName: "Joe's Pizza", BusinessType: "restaurant"},
			})
			require.NoError(t, err)

			assert.Len(t, rec.prompts, tt.wantCalls)
			content, ok := stage.PayloadAs[stage.ContentResult](res)
			require.True(t, ok)
			assert.Len(t, content.Pages, tt.wantPages)
			assert.Len(t, content.Posts, tt.wantPosts)
			assert.Equal(t, fmt.Sprintf("Generated %d pages and %d posts", tt.wantPages, tt.wantPosts), res.Summary)
			assert.Equal(t, 0.82, res.Confidence)
			assert.Equal(t, []string{"select_theme"}, res.NextSteps)
		})
	}
}

func TestContent_PromptShape(t *testing.T) {
	rec := &recorder{next: generator.NewMock()}
	_, err := NewContent(rec, DefaultParams(), nil).Execute(context.Background(), ContentInput{
		Structure: stage.SiteStructure{Pages: specs(6)},
		Strategy: stage.ContentStrategy{SuggestedPosts: []stage.SuggestedPost{
			{Title: "Welcome", Theme: "introduction"},
		}},
		Business: BusinessContext{BusinessName: "Joe's Pizza"},
	})
	require.NoError(t, err)
	require.Len(t, rec.prompts, 3)

	assert.Contains(t, rec.prompts[0], `"slug": "page-4"`)
	assert.NotContains(t, rec.prompts[0], `"slug": "page-5"`)
	assert.Contains(t, rec.prompts[1], `"slug": "page-5"`)
	assert.Contains(t, rec.prompts[0], "Tone: professional and approachable")
	assert.Contains(t, rec.prompts[2], "Generate 1 blog posts for:")
	assert.Contains(t, rec.prompts[2], "Business: Joe's Pizza")
	assert.Equal(t, 2000, rec.opts[2].MaxTokens)
}

func TestContent_MissingPagesCountAsZero(t *testing.T) {
	res, err := NewContent(fixed(`{"status":"ok"}`), DefaultParams(), nil).Execute(context.Background(), ContentInput{
		Structure: stage.SiteStructure{Pages: specs(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Generated 0 pages and 0 posts", res.Summary)
	assert.Equal(t, stage.StatusOK, res.Status)
}

func TestDesign(t *testing.T) {
	tests := []struct {
		industry string
		slug     string
		name     string
		primary  string
	}{
		{"professional_services", "astra", "Astra", "#1e73be"},
		{"healthcare", "neve", "Neve", "#0066cc"},
		{"ecommerce", "storefront", "Storefront", "#96588a"},
		{"creative", "blocksy", "Blocksy", "#ff5722"},
		{"food_service", "astra", "Astra", "#1e73be"},
	}
	for _, tt := range tests {
		t.Run(tt.industry, func(t *testing.T) {
			res, err := NewDesign(nil).Execute(context.Background(), DesignInput{Industry: tt.industry})
			require.NoError(t, err)

			d, ok := stage.PayloadAs[stage.DesignResult](res)
			require.True(t, ok)
			assert.Equal(t, tt.slug, d.PrimaryTheme.Slug)
			assert.Equal(t, tt.name, d.PrimaryTheme.Name)
			assert.Equal(t, tt.primary, d.DesignConfig.ColorPalette.Primary)
			assert.Equal(t, "Optimal for "+tt.industry+" industry", d.PrimaryTheme.Justification)
			assert.Equal(t, "Selected "+tt.slug+" theme", res.Summary)
			assert.Equal(t, 0.78, res.Confidence)
			assert.Equal(t, "Montserrat", d.DesignConfig.Typography.HeadingFont)
			assert.Equal(t, "1200px", d.DesignConfig.Layout.ContainerWidth)
		})
	}
}

func TestPlugins(t *testing.T) {
	t.Run("core set", func(t *testing.T) {
		res, err := NewPlugins(nil).Execute(context.Background(), PluginInput{
			Features: []stage.Feature{{Name: "Contact Form"}},
		})
		require.NoError(t, err)

		p, ok := stage.PayloadAs[stage.PluginResult](res)
		require.True(t, ok)
		require.Len(t, p.EssentialPlugins, 5)
		slugs := make([]string, 0, len(p.EssentialPlugins))
		for i, pl := range p.EssentialPlugins {
			slugs = append(slugs, pl.Slug)
			assert.True(t, pl.Required)
			assert.Equal(t, 10-i, pl.Priority)
		}
		assert.Equal(t, []string{"wordpress-seo", "wordfence", "litespeed-cache", "updraftplus", "wpforms-lite"}, slugs)
		assert.Equal(t, "Selected 5 essential plugins", res.Summary)
		assert.Equal(t, 0.85, res.Confidence)
		assert.Equal(t, "5 minutes", p.EstimatedSetupTime)
	})

	for _, feature := range []stage.Feature{
		{Name: "Ecommerce store"},
		{Name: "Shop", Implementation: "E-Commerce plugin"},
	} {
		t.Run("commerce "+feature.Name, func(t *testing.T) {
			res, err := NewPlugins(nil).Execute(context.Background(), PluginInput{Features: []stage.Feature{feature}})
			require.NoError(t, err)
			p, _ := stage.PayloadAs[stage.PluginResult](res)
			require.Len(t, p.EssentialPlugins, 6)
			woo := p.EssentialPlugins[5]
			assert.Equal(t, "woocommerce", woo.Slug)
			assert.False(t, woo.Required)
			assert.Equal(t, 5, woo.Priority)
			assert.Equal(t, map[string]any{}, woo.Configuration)
		})
	}
}

package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"go.uber.org/zap"
)

const designConfidence = 0.78

type themeEntry struct {
	slug    string
	palette stage.Palette
}

var themesByIndustry = map[string]themeEntry{
	"professional_services": {"astra", stage.Palette{Primary: "#1e73be", Secondary: "#23282d", Accent: "#ff6b6b"}},
	"healthcare":            {"neve", stage.Palette{Primary: "#0066cc", Secondary: "#ffffff", Accent: "#4CAF50"}},
	"ecommerce":             {"storefront", stage.Palette{Primary: "#96588a", Secondary: "#43454b", Accent: "#f47e27"}},
	"creative":              {"blocksy", stage.Palette{Primary: "#ff5722", Secondary: "#212121", Accent: "#FFC107"}},
}

// DesignInput is what the design stage needs from planning.
type DesignInput struct {
	Industry     string
	BusinessType string
}

// Design picks a theme and style configuration from a fixed industry table.
type Design struct {
	logger *logging.Logger
}

// NewDesign creates the design stage.
func NewDesign(logger *logging.Logger) *Design {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Design{logger: logger.Named("design")}
}

// Execute never fails; unknown industries get the professional services theme.
func (d *Design) Execute(ctx context.Context, in DesignInput) (*stage.Result, error) {
	industry := in.Industry
	if industry == "" {
		industry = DefaultIndustry
	}
	entry, ok := themesByIndustry[industry]
	if !ok {
		entry = themesByIndustry[DefaultIndustry]
	}
	d.logger.Info(ctx, "theme selected",
		zap.String("industry", industry),
		zap.String("theme", entry.slug),
		zap.Bool("table_hit", ok))

	return (&stage.Result{
		Status:  stage.StatusOK,
		Action:  "theme_selected",
		Summary: fmt.Sprintf("Selected %s theme", entry.slug),
		Payload: &stage.DesignResult{
			PrimaryTheme: stage.Theme{
				Name:             titleCase(entry.slug),
				Slug:             entry.slug,
				Version:          "latest",
				Type:             "free",
				Justification:    fmt.Sprintf("Optimal for %s industry", industry),
				Features:         []string{"responsive", "seo-friendly", "fast-loading"},
				PerformanceScore: "excellent",
			},
			DesignConfig: stage.DesignConfig{
				ColorPalette: entry.palette,
				Typography: stage.Typography{
					HeadingFont: "Montserrat",
					BodyFont:    "Open Sans",
					BaseSize:    "16px",
				},
				Layout: stage.Layout{
					ContainerWidth: "1200px",
					Sidebar:        "none",
					HeaderStyle:    "modern",
				},
			},
		},
		Confidence: designConfidence,
		NextSteps:  []string{"select_plugins"},
	}).Normalize(), nil
}

// titleCase upper-cases the first letter of each word, lower-casing the rest.
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

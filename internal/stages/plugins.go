package stages

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"go.uber.org/zap"
)

const pluginsConfidence = 0.85

// PluginInput is what plugin selection needs from planning.
type PluginInput struct {
	Features     []stage.Feature
	BusinessType string
}

// Plugins selects the plugin set. The five core plugins are always returned;
// WooCommerce is added for commerce features.
type Plugins struct {
	logger *logging.Logger
}

// NewPlugins creates the plugin selection stage.
func NewPlugins(logger *logging.Logger) *Plugins {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Plugins{logger: logger.Named("plugins")}
}

func corePlugins() []stage.Plugin {
	return []stage.Plugin{
		{Name: "Yoast SEO", Slug: "wordpress-seo", Purpose: "Search engine optimization", Required: true, Priority: 10,
			Configuration: map[string]any{"enable_xml_sitemap": true}},
		{Name: "Wordfence Security", Slug: "wordfence", Purpose: "Site security and firewall", Required: true, Priority: 9,
			Configuration: map[string]any{"enable_firewall": true}},
		{Name: "LiteSpeed Cache", Slug: "litespeed-cache", Purpose: "Performance optimization", Required: true, Priority: 8,
			Configuration: map[string]any{"enable_cache": true}},
		{Name: "UpdraftPlus", Slug: "updraftplus", Purpose: "Backup and restore", Required: true, Priority: 7,
			Configuration: map[string]any{"backup_schedule": "daily"}},
		{Name: "WPForms Lite", Slug: "wpforms-lite", Purpose: "Contact forms", Required: true, Priority: 6,
			Configuration: map[string]any{"enable_notification": true}},
	}
}

// Execute returns the plugin set in descending priority.
func (p *Plugins) Execute(ctx context.Context, in PluginInput) (*stage.Result, error) {
	plugins := corePlugins()
	if wantsCommerce(in.Features) {
		plugins = append(plugins, stage.Plugin{
			Name:          "WooCommerce",
			Slug:          "woocommerce",
			Purpose:       "E-commerce functionality",
			Required:      false,
			Priority:      5,
			Configuration: map[string]any{},
		})
	}
	p.logger.Info(ctx, "plugins selected", zap.Int("count", len(plugins)))

	return (&stage.Result{
		Status:  stage.StatusOK,
		Action:  "plugins_selected",
		Summary: fmt.Sprintf("Selected %d essential plugins", len(plugins)),
		Payload: &stage.PluginResult{
			EssentialPlugins:   plugins,
			EstimatedSetupTime: "5 minutes",
			PerformanceImpact:  "low",
		},
		Confidence: pluginsConfidence,
		NextSteps:  []string{"deploy_site"},
	}).Normalize(), nil
}

func wantsCommerce(features []stage.Feature) bool {
	for _, f := range features {
		if f.Mentions("ecommerce") || f.Mentions("e-commerce") {
			return true
		}
	}
	return false
}

package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/sitegen/internal/generator"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"go.uber.org/zap"
)

// Default values filled by planning. Each one applied records an assumption.
const (
	DefaultIndustry = "professional_services"
)

// DefaultGoals are used when the business input names none.
var DefaultGoals = []string{"inform visitors", "generate leads"}

var industryByType = map[string]string{
	"restaurant": "food_service",
	"dental":     "healthcare",
	"law":        "legal",
	"retail":     "ecommerce",
	"consulting": "professional_services",
}

// InferIndustry maps a business type to an industry bucket.
func InferIndustry(businessType string) string {
	if industry, ok := industryByType[strings.ToLower(strings.TrimSpace(businessType))]; ok {
		return industry
	}
	return DefaultIndustry
}

// maxRequiredPlugins is the recommended ceiling; exceeding it only warns.
const maxRequiredPlugins = 5

// Planning generates the site architecture.
type Planning struct {
	gen    generator.Generator
	params Params
	logger *logging.Logger
}

// NewPlanning creates the planning stage.
func NewPlanning(gen generator.Generator, params Params, logger *logging.Logger) *Planning {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Planning{gen: gen, params: params, logger: logger.Named("planning")}
}

// Execute fills defaults, prompts the generator, and validates the architecture.
//
// Malformed generator output yields a failed result, not an error. An error
// wrapping ErrGenerationFormat is returned only when the output parses but
// lacks a status or a numeric confidence.
func (p *Planning) Execute(ctx context.Context, in stage.BusinessInput) (*stage.Result, error) {
	p.logger.Info(ctx, "starting site planning", zap.String("business_type", in.BusinessType))

	business := in.WithDefaults()
	var assumptions stage.Assumptions

	if business.Industry == "" {
		business.Industry = InferIndustry(business.BusinessType)
		assumptions.Add(fmt.Sprintf("Industry inferred as %s", business.Industry))
	}
	if business.Description == "" {
		business.Description = fmt.Sprintf("Professional %s website", business.BusinessType)
		assumptions.Add("Using default description")
	}
	if len(business.Goals) == 0 {
		business.Goals = append([]string(nil), DefaultGoals...)
		assumptions.Add("Using default goals: inform and generate leads")
	}

	prompt := generator.Render(planningTemplate, map[string]string{
		"business_name":   business.BusinessName,
		"business_type":   business.BusinessType,
		"industry":        business.Industry,
		"description":     business.Description,
		"target_audience": business.TargetAudience,
		"goals":           strings.Join(business.Goals, ", "),
	})

	doc, err := generate(ctx, p.gen, p.logger, prompt, p.params.options(p.params.Tokens.Planning))
	if err != nil {
		return nil, fmt.Errorf("planning generation: %w", err)
	}

	env, err := stage.ParseEnvelope(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: planning: %v", ErrGenerationFormat, err)
	}
	merged := stage.Merge(env.Assumptions, assumptions)

	if env.Status != stage.StatusOK {
		p.logger.Warn(ctx, "planning returned non-ok status",
			zap.String("status", string(env.Status)),
			zap.String("action", env.Action))
		return (&stage.Result{
			Status:      env.Status,
			Action:      env.Action,
			Summary:     env.Summary,
			Payload:     rawPayload(env.Result),
			Assumptions: merged,
			Confidence:  *env.Confidence,
			NextSteps:   env.NextSteps,
		}).Normalize(), nil
	}

	plan, missing, err := parsePlanning(env.Result)
	if err != nil || len(missing) > 0 {
		reason := "missing " + strings.Join(missing, ", ")
		if err != nil {
			reason = err.Error()
		}
		p.logger.Warn(ctx, "planning response failed schema validation", zap.String("reason", reason))
		return stage.Failed(
			"schema_validation_failed",
			"Planning response invalid: "+reason,
			map[string]any{"missing": missing},
			merged,
			"retry_planning",
		), nil
	}
	plan.ResolvedIndustry = business.Industry

	if n := countRequired(plan.Plugins); n > maxRequiredPlugins {
		p.logger.Warn(ctx, "planning recommended more required plugins than advised",
			zap.Int("required_plugins", n),
			zap.Int("max", maxRequiredPlugins))
	}

	res := (&stage.Result{
		Status:      stage.StatusOK,
		Action:      env.Action,
		Summary:     env.Summary,
		Payload:     plan,
		Assumptions: merged,
		Confidence:  *env.Confidence,
		NextSteps:   env.NextSteps,
	}).Normalize()

	p.logger.Info(ctx, "site planning completed",
		zap.Float64("confidence", res.Confidence),
		zap.Int("pages", len(plan.SiteStructure.Pages)))
	return res, nil
}

// parsePlanning binds the raw result and lists the required sections it lacks.
func parsePlanning(raw json.RawMessage) (*stage.PlanningResult, []string, error) {
	var doc map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, nil, fmt.Errorf("result is not an object: %w", err)
		}
	}

	var missing []string
	if ss, ok := doc["site_structure"].(map[string]any); !ok {
		missing = append(missing, "site_structure.pages")
	} else if _, ok := ss["pages"].([]any); !ok {
		missing = append(missing, "site_structure.pages")
	}
	for _, key := range []string{"features", "plugins", "content_strategy", "seo_foundation"} {
		if v, ok := doc[key]; !ok || v == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, missing, nil
	}

	var plan stage.PlanningResult
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, nil, fmt.Errorf("result does not match the architecture schema: %w", err)
	}
	return &plan, nil, nil
}

func countRequired(plugins []stage.PluginRecommendation) int {
	n := 0
	for _, p := range plugins {
		if p.Required {
			n++
		}
	}
	return n
}

// rawPayload decodes a non-ok result into a generic map, {} when absent.
func rawPayload(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out
}

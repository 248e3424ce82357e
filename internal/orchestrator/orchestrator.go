package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/deploy"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/secrets"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"github.com/fyrsmithlabs/sitegen/internal/stages"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Stages are the executors a run composes, one per pipeline stage.
type Stages struct {
	Planning   stage.Executor[stage.BusinessInput]
	Content    stage.Executor[stages.ContentInput]
	Design     stage.Executor[stages.DesignInput]
	Plugins    stage.Executor[stages.PluginInput]
	Deployment stage.Executor[deploy.Input]
}

func (s Stages) validate() error {
	switch {
	case s.Planning == nil:
		return errors.New("orchestrator: planning stage is required")
	case s.Content == nil:
		return errors.New("orchestrator: content stage is required")
	case s.Design == nil:
		return errors.New("orchestrator: design stage is required")
	case s.Plugins == nil:
		return errors.New("orchestrator: plugins stage is required")
	case s.Deployment == nil:
		return errors.New("orchestrator: deployment stage is required")
	}
	return nil
}

// Options configure an Orchestrator. Zero values are usable.
type Options struct {
	// Gates run after every stage. Nil means DefaultGates with the default
	// thresholds.
	Gates    []Gate
	Metrics  *Metrics
	Scrubber secrets.Scrubber
	Logger   *logging.Logger
	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer
}

// Orchestrator runs the five stages of a site generation in order.
type Orchestrator struct {
	stages   Stages
	gates    []Gate
	metrics  *Metrics
	scrubber secrets.Scrubber
	logger   *logging.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// New creates an Orchestrator.
func New(s Stages, opts Options) (*Orchestrator, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if opts.Gates == nil {
		opts.Gates = DefaultGates(config.Default().Thresholds)
	}
	if opts.Scrubber == nil {
		opts.Scrubber = &secrets.NoopScrubber{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(InstrumentationName)
	}
	return &Orchestrator{
		stages:   s,
		gates:    opts.Gates,
		metrics:  opts.Metrics,
		scrubber: opts.Scrubber,
		logger:   opts.Logger.Named("orchestrator"),
		tracer:   opts.Tracer,
		now:      time.Now,
	}, nil
}

// run is the state of one pipeline execution.
type run struct {
	in       stage.BusinessInput
	res      *WorkflowResult
	progress ProgressFunc

	confidences []float64
	content     *stage.ContentResult
	design      *stage.DesignResult
	plugins     *stage.PluginResult
	deployment  *stage.Result
}

func (r *run) record(name stage.Name, res *stage.Result) {
	r.res.CompletedSteps = append(r.res.CompletedSteps, name)
	r.res.Results[name] = res.Payload
	r.res.StageStatus[name] = res.Status
	r.res.Assumptions = append(r.res.Assumptions, res.Assumptions...)
	r.confidences = append(r.confidences, res.Confidence)

	if r.progress != nil {
		cp := checkpoints[name]
		r.progress(Progress{Stage: name, Percentage: cp.percentage, Message: cp.message})
	}
}

// Run executes planning, content, design, plugins and deployment in order,
// feeding each stage the outputs it depends on. Any stage error aborts the
// remaining stages and yields a failed result that keeps what completed.
// Run never returns nil.
func (o *Orchestrator) Run(ctx context.Context, in stage.BusinessInput, progress ProgressFunc) *WorkflowResult {
	start := o.now()
	ctx, span := o.tracer.Start(ctx, "sitegen.workflow",
		trace.WithAttributes(
			attribute.String("business.name", in.BusinessName),
			attribute.String("business.type", in.BusinessType),
		))
	defer span.End()

	r := &run{in: in, res: newWorkflowResult(), progress: progress}
	o.logger.Info(ctx, "starting site generation",
		zap.String("business_name", in.BusinessName),
		zap.String("business_type", in.BusinessType))

	err := o.execute(ctx, r)
	elapsed := o.now().Sub(start)

	if err != nil {
		msg := o.scrubber.Scrub(err.Error()).Scrubbed
		span.RecordError(errors.New(msg))
		span.SetStatus(codes.Error, msg)
		o.fail(ctx, r, msg, elapsed)
	} else {
		o.complete(ctx, r, elapsed)
		span.SetAttributes(attribute.Float64("quality.overall_confidence", r.res.QualityMetrics.OverallConfidence))
	}
	o.metrics.recordWorkflow(ctx, r.res.Status)
	return r.res
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	in := r.in
	planRes, err := o.runStage(ctx, r, stage.Architecture, func(ctx context.Context) (*stage.Result, error) {
		return o.stages.Planning.Execute(ctx, in)
	})
	if err != nil {
		return err
	}
	plan, ok := stage.PayloadAs[stage.PlanningResult](planRes)
	if !ok {
		plan = &stage.PlanningResult{}
	}

	industry := plan.ResolvedIndustry
	if industry == "" {
		industry = in.Industry
	}
	if industry == "" {
		industry = stages.InferIndustry(in.BusinessType)
	}

	contentRes, err := o.runStage(ctx, r, stage.Content, func(ctx context.Context) (*stage.Result, error) {
		return o.stages.Content.Execute(ctx, stages.ContentInput{
			Structure: plan.SiteStructure,
			Strategy:  plan.ContentStrategy,
			Business: stages.BusinessContext{
				BusinessName: in.BusinessName,
				BusinessType: in.BusinessType,
				Industry:     industry,
			},
			Tone: in.WithDefaults().Tone,
		})
	})
	if err != nil {
		return err
	}
	if r.content, ok = stage.PayloadAs[stage.ContentResult](contentRes); !ok {
		r.content = &stage.ContentResult{}
	}

	designRes, err := o.runStage(ctx, r, stage.Design, func(ctx context.Context) (*stage.Result, error) {
		return o.stages.Design.Execute(ctx, stages.DesignInput{Industry: industry, BusinessType: in.BusinessType})
	})
	if err != nil {
		return err
	}
	if r.design, ok = stage.PayloadAs[stage.DesignResult](designRes); !ok {
		r.design = &stage.DesignResult{}
	}

	pluginsRes, err := o.runStage(ctx, r, stage.Plugins, func(ctx context.Context) (*stage.Result, error) {
		return o.stages.Plugins.Execute(ctx, stages.PluginInput{Features: plan.Features, BusinessType: in.BusinessType})
	})
	if err != nil {
		return err
	}
	if r.plugins, ok = stage.PayloadAs[stage.PluginResult](pluginsRes); !ok {
		r.plugins = &stage.PluginResult{}
	}

	r.deployment, err = o.runStage(ctx, r, stage.Deployment, func(ctx context.Context) (*stage.Result, error) {
		return o.stages.Deployment.Execute(ctx, deploy.Input{
			Credentials: in.Hosting,
			Theme:       r.design.PrimaryTheme,
			Plugins:     r.plugins.EssentialPlugins,
			Content:     *r.content,
			Menus:       plan.SiteStructure.Menus,
		})
	})
	return err
}

// runStage executes one stage inside its span, records the result and runs
// the quality gates.
func (o *Orchestrator) runStage(ctx context.Context, r *run, name stage.Name, exec func(context.Context) (*stage.Result, error)) (*stage.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("before %s stage: %w", name, err)
	}

	ctx = logging.WithStage(ctx, string(name))
	ctx, span := o.tracer.Start(ctx, "sitegen.stage."+string(name))
	defer span.End()

	start := time.Now()
	o.logger.Info(ctx, "stage started")

	res, err := o.call(ctx, exec)
	if err == nil && res == nil {
		err = errors.New("stage returned no result")
	}
	elapsed := time.Since(start)
	o.metrics.recordStage(ctx, name, res, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s stage: %w", name, err)
	}

	res.Normalize()
	span.SetAttributes(
		attribute.String("stage.status", string(res.Status)),
		attribute.String("stage.action", res.Action),
		attribute.Float64("stage.confidence", res.Confidence),
	)

	for _, g := range o.gates {
		for _, w := range g.Check(name, res) {
			o.logger.Warn(ctx, "stage quality warning",
				zap.String("gate", w.Gate),
				zap.String("description", w.Description))
			r.res.Warnings = append(r.res.Warnings, w)
		}
	}

	o.logger.Info(ctx, "stage completed",
		zap.String("status", string(res.Status)),
		zap.Float64("confidence", res.Confidence),
		zap.Duration("duration", elapsed))

	r.record(name, res)
	return res, nil
}

// call runs exec, turning a panic into an error.
func (o *Orchestrator) call(ctx context.Context, exec func(context.Context) (*stage.Result, error)) (res *stage.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			o.logger.Error(ctx, "stage panicked",
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			res, err = nil, fmt.Errorf("panicked: %v", p)
		}
	}()
	return exec(ctx)
}

func (o *Orchestrator) complete(ctx context.Context, r *run, elapsed time.Duration) {
	res := r.res
	res.Status = WorkflowCompleted

	siteURL := PendingSiteURL
	actions := []string{}
	if report, ok := stage.PayloadAs[deploy.Report](r.deployment); ok {
		if report.SiteDetails != nil && report.SiteDetails.URL != "" {
			siteURL = report.SiteDetails.URL
		}
		if report.PostDeployment != nil {
			actions = report.PostDeployment
		}
	}

	res.SiteSummary = &SiteSummary{
		BusinessName:       r.in.BusinessName,
		SiteURL:            siteURL,
		PagesCreated:       len(r.content.Pages),
		PostsCreated:       len(r.content.Posts),
		Theme:              r.design.PrimaryTheme.Name,
		PluginsCount:       len(r.plugins.EssentialPlugins),
		EstimatedSetupTime: fmt.Sprintf("%d seconds", int(elapsed.Seconds())),
		Status:             r.deployment.Status,
	}
	res.QualityMetrics = &QualityMetrics{
		OverallConfidence:    OverallConfidence(r.confidences),
		Completeness:         CompletenessLabel,
		EstimatedPerformance: PerformanceLabel,
		SEOReadiness:         SEOReadinessLabel,
	}
	res.UserActionsRequired = actions
	res.ExecutionTime = fmt.Sprintf("%.1f seconds", elapsed.Seconds())

	o.logger.Info(ctx, "site generation completed",
		zap.String("business_name", r.in.BusinessName),
		zap.Float64("overall_confidence", res.QualityMetrics.OverallConfidence),
		zap.String("deployment_status", string(r.deployment.Status)),
		zap.Duration("duration", elapsed))
}

func (o *Orchestrator) fail(ctx context.Context, r *run, msg string, elapsed time.Duration) {
	res := r.res
	res.Status = WorkflowFailed
	res.Error = msg
	res.RecoverySuggestions = RecoverySuggestions()
	res.ExecutionTime = fmt.Sprintf("%.1f seconds", elapsed.Seconds())

	names := make([]string, len(res.CompletedSteps))
	for i, n := range res.CompletedSteps {
		names[i] = string(n)
	}
	o.logger.Error(ctx, "site generation failed",
		zap.String("error", msg),
		zap.Strings("completed_steps", names))
}

// OverallConfidence is the arithmetic mean of the stage confidences rounded
// to two decimals. Stages that need input contribute their zero confidence.
func OverallConfidence(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return math.Round(sum/float64(len(confidences))*100) / 100
}

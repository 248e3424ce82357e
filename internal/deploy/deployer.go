package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/secrets"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrCredentialsMissing is returned by Deploy when the mandatory credentials
// are absent or incomplete.
var ErrCredentialsMissing = errors.New("wordpress credentials required")

const (
	successConfidence = 0.88
	defaultBatchSize  = 20
)

// Options tune a Deployer.
type Options struct {
	BatchSize          int
	PermalinkStructure string
	Timezone           string
}

// OptionsFromConfig maps the deploy config section onto Options.
func OptionsFromConfig(cfg config.DeployConfig) Options {
	return Options{
		BatchSize:          cfg.BatchSize,
		PermalinkStructure: cfg.PermalinkStructure,
		Timezone:           cfg.Timezone,
	}
}

// Deployer runs the deployment steps against a connected ContentSystem.
type Deployer struct {
	connector Connector
	opts      Options
	scrubber  secrets.Scrubber
	logger    *logging.Logger
	tracer    trace.Tracer
}

// New creates a Deployer. scrubber may be nil.
func New(connector Connector, opts Options, scrubber secrets.Scrubber, logger *logging.Logger) *Deployer {
	if opts.BatchSize < 1 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.PermalinkStructure == "" {
		opts.PermalinkStructure = "/%postname%/"
	}
	if opts.Timezone == "" {
		opts.Timezone = "UTC"
	}
	if scrubber == nil {
		scrubber = &secrets.NoopScrubber{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Deployer{
		connector: connector,
		opts:      opts,
		scrubber:  scrubber,
		logger:    logger.Named("deploy"),
		tracer:    otel.Tracer("sitegen.deploy"),
	}
}

// Execute is the deployment stage. Missing credentials produce a
// needs_input result without touching the remote system; an aborted
// deployment produces a failed result. Neither is returned as an error.
func (d *Deployer) Execute(ctx context.Context, in Input) (*stage.Result, error) {
	report, err := d.Deploy(ctx, in)
	switch {
	case errors.Is(err, ErrCredentialsMissing):
		d.logger.Info(ctx, "deployment blocked, credentials missing")
		return (&stage.Result{
			Status:              stage.StatusNeedsInput,
			Action:              "deployment_blocked",
			Summary:             "WordPress credentials required",
			Payload:             map[string]any{},
			Confidence:          0,
			NextSteps:           []string{"provide_credentials"},
			RequiredCredentials: append([]string(nil), stage.RequiredCredentialFields...),
		}).Normalize(), nil

	case err != nil:
		msg := d.scrubber.Scrub(err.Error()).Scrubbed
		report.Error = msg
		d.logger.Error(ctx, "deployment failed",
			zap.String("error", msg),
			zap.Int("completed_steps", len(report.DeploymentPlan)))
		return stage.Failed(
			"deployment_failed",
			"Deployment error: "+msg,
			report,
			nil,
			"review_error", "retry_deployment",
		), nil
	}

	siteURL := report.SiteDetails.URL
	return (&stage.Result{
		Status:     stage.StatusOK,
		Action:     "deployment_completed",
		Summary:    fmt.Sprintf("Site deployed successfully at %s", siteURL),
		Payload:    report,
		Confidence: successConfidence,
		NextSteps:  []string{"site_live"},
	}).Normalize(), nil
}

// Deploy runs the seven steps. On an abort it returns the partial report
// together with an error wrapping ErrFatal.
func (d *Deployer) Deploy(ctx context.Context, in Input) (*Report, error) {
	if !in.Credentials.Complete() {
		return nil, ErrCredentialsMissing
	}
	report := &Report{DeploymentPlan: []Step{}}
	siteURL := strings.TrimRight(strings.TrimSpace(in.Credentials.SiteURL), "/")

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("%w: %w", ErrFatal, err)
	}

	d.logger.Info(ctx, "starting deployment",
		zap.String("site_url", siteURL),
		zap.String("username", in.Credentials.Username),
		logging.Secret("password", in.Credentials.Password),
		zap.Bool("shell", in.Credentials.HasShell()))

	cs, closeFn, err := d.connector.Connect(ctx, in.Credentials)
	if err != nil {
		return report, fmt.Errorf("%w: connect to %s: %w", ErrFatal, siteURL, err)
	}
	defer func() {
		if closeFn == nil {
			return
		}
		if err := closeFn(); err != nil {
			d.logger.Warn(ctx, "closing remote session failed", zap.Error(err))
		}
	}()

	s := &session{cs: cs, in: in, opts: d.opts, siteURL: siteURL, scrubber: d.scrubber, logger: d.logger}
	steps := []struct {
		name string
		run  func(context.Context) Step
	}{
		{StepValidate, s.validate},
		{StepTheme, s.installTheme},
		{StepPlugins, s.installPlugins},
		{StepContent, s.importContent},
		{StepMenus, s.configureMenus},
		{StepSEO, s.configureSEO},
		{StepHealth, s.healthChecks},
	}

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w: before %s: %w", ErrFatal, st.name, err)
		}
		step, err := d.runStep(ctx, st.name, st.run)
		if err != nil {
			return report, err
		}
		report.DeploymentPlan = append(report.DeploymentPlan, step)
	}

	report.SiteDetails = &SiteDetails{
		URL:              siteURL,
		AdminURL:         siteURL + "/wp-admin",
		AdminUser:        in.Credentials.Username,
		WordPressVersion: "latest",
	}
	report.HealthChecks = s.health
	report.PostDeployment = []string{
		"Change admin password immediately",
		fmt.Sprintf("Review site at %s", siteURL),
		"Configure contact form notifications",
		"Submit sitemap to Google Search Console",
	}

	d.logger.Info(ctx, "deployment completed", zap.String("site_url", siteURL))
	return report, nil
}

// runStep executes one step inside a span. A panic becomes an ErrFatal error.
func (d *Deployer) runStep(ctx context.Context, name string, fn func(context.Context) Step) (step Step, err error) {
	ctx, span := d.tracer.Start(ctx, "sitegen.deploy."+name)
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: step %s panicked: %v", ErrFatal, name, r)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			return
		}
		step.Name = name
		step.Duration = time.Since(start).Round(time.Millisecond).String()
		span.SetAttributes(attribute.String("deploy.step.status", string(step.Status)))
		if step.Status == StepFailed {
			span.SetStatus(codes.Error, step.Error)
		}

		fields := []zap.Field{
			zap.String("step", name),
			zap.String("status", string(step.Status)),
			zap.String("duration", step.Duration),
		}
		if step.Error != "" {
			step.Error = d.scrubber.Scrub(step.Error).Scrubbed
			d.logger.Warn(ctx, "deployment step failed", append(fields, zap.String("error", step.Error))...)
			return
		}
		d.logger.Info(ctx, "deployment step finished", fields...)
	}()

	return fn(ctx), nil
}

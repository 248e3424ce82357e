package services

import (
	"fmt"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/deploy"
	"github.com/fyrsmithlabs/sitegen/internal/generator"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/orchestrator"
	"github.com/fyrsmithlabs/sitegen/internal/secrets"
	"github.com/fyrsmithlabs/sitegen/internal/stages"
	"github.com/fyrsmithlabs/sitegen/internal/wordpress"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Registry provides access to the services a generation needs.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Generator() generator.Generator
	Scrubber() secrets.Scrubber
	Connector() deploy.Connector
	Orchestrator() *orchestrator.Orchestrator
	// AIMode is "mock" when only canned payloads are served.
	AIMode() string
}

// Options configures the registry with service instances.
type Options struct {
	Generator    generator.Generator
	Scrubber     secrets.Scrubber
	Connector    deploy.Connector
	Orchestrator *orchestrator.Orchestrator
}

// registry is the concrete implementation of Registry.
type registry struct {
	generator    generator.Generator
	scrubber     secrets.Scrubber
	connector    deploy.Connector
	orchestrator *orchestrator.Orchestrator
}

// NewRegistry creates a registry from already built services.
func NewRegistry(opts Options) Registry {
	return &registry{
		generator:    opts.Generator,
		scrubber:     opts.Scrubber,
		connector:    opts.Connector,
		orchestrator: opts.Orchestrator,
	}
}

func (r *registry) Generator() generator.Generator           { return r.generator }
func (r *registry) Scrubber() secrets.Scrubber               { return r.scrubber }
func (r *registry) Connector() deploy.Connector              { return r.connector }
func (r *registry) Orchestrator() *orchestrator.Orchestrator { return r.orchestrator }

func (r *registry) AIMode() string {
	if r.generator == nil {
		return "mock"
	}
	return generator.Mode(r.generator)
}

// BuildOptions overrides parts of the configured wiring.
type BuildOptions struct {
	Logger *logging.Logger
	// Meter and Tracer default to the global providers.
	Meter  metric.Meter
	Tracer trace.Tracer
	// Generator replaces the configured provider.
	Generator generator.Generator
	// Connector replaces the WordPress connector, e.g. with wordpress.Fake.
	Connector deploy.Connector
}

// Build wires generator, stages, deployer and orchestrator from cfg.
func Build(cfg *config.Config, opts BuildOptions) (Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	scrubber, err := secrets.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create scrubber: %w", err)
	}

	gen := opts.Generator
	if gen == nil {
		gen, err = generator.New(cfg.Generator, logger.Named("generator"))
		if err != nil {
			return nil, err
		}
	}

	connector := opts.Connector
	if connector == nil {
		connector = &wordpress.Connector{
			Options: wordpress.OptionsFromConfig(cfg.Deploy),
			SSH: wordpress.SSHOptions{
				KnownHosts: cfg.Deploy.SSHKnownHosts,
				Timeout:    cfg.Deploy.APITimeout,
			},
			RemotePath: cfg.Deploy.WPPath,
			Logger:     logger.Named("wordpress"),
		}
	}

	metrics, err := orchestrator.NewMetrics(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("create orchestrator metrics: %w", err)
	}

	params := stages.ParamsFromConfig(cfg)
	orch, err := orchestrator.New(orchestrator.Stages{
		Planning:   stages.NewPlanning(gen, params, logger),
		Content:    stages.NewContent(gen, params, logger),
		Design:     stages.NewDesign(logger),
		Plugins:    stages.NewPlugins(logger),
		Deployment: deploy.New(connector, deploy.OptionsFromConfig(cfg.Deploy), scrubber, logger),
	}, orchestrator.Options{
		Gates:    orchestrator.DefaultGates(cfg.Thresholds),
		Metrics:  metrics,
		Scrubber: scrubber,
		Logger:   logger,
		Tracer:   opts.Tracer,
	})
	if err != nil {
		return nil, err
	}

	return NewRegistry(Options{
		Generator:    gen,
		Scrubber:     scrubber,
		Connector:    connector,
		Orchestrator: orch,
	}), nil
}

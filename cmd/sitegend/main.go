// Sitegend is the site generation daemon.
//
// It serves the job API over HTTP and runs each generation request through
// the five-stage pipeline in the background.
//
// Configuration is read from an optional YAML file and SITEGEN_* environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (mock generator, port 8000)
//	sitegend
//
//	# Use a config file and a real provider
//	SITEGEN_GENERATOR_API_KEY=sk-... sitegend -config sitegen.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	httpserver "github.com/fyrsmithlabs/sitegen/internal/http"
	"github.com/fyrsmithlabs/sitegen/internal/jobs"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/services"
	"github.com/fyrsmithlabs/sitegen/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath = flag.String("config", "", "path to a YAML config file")

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  sitegend [-config file]   Start the site generation daemon\n")
			fmt.Fprintf(os.Stderr, "  sitegend version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("sitegend by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until ctx is cancelled.
//
//  1. Loads and validates configuration
//  2. Initializes telemetry and the logger
//  3. Wires the pipeline services
//  4. Starts the job tracker and HTTP server
//  5. On cancellation, stops the server, then drains running jobs
func run(ctx context.Context, path string) error {
	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if version != "dev" {
		cfg.Telemetry.ServiceVersion = version
	}
	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	logCfg, err := logging.FromAppConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", h.Reason))
	}

	reg, err := services.Build(cfg, services.BuildOptions{
		Logger: logger,
		Meter:  tel.Meter("github.com/fyrsmithlabs/sitegen/orchestrator"),
		Tracer: tel.Tracer("github.com/fyrsmithlabs/sitegen/orchestrator"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tracker := jobs.NewTracker(jobs.Options{
		Timeout:  cfg.Jobs.Timeout,
		Metrics:  jobs.NewMetrics(promReg),
		Scrubber: reg.Scrubber(),
		Logger:   logger,
	})

	srv, err := httpserver.NewServer(cfg.Server, cfg.Auth, httpserver.Deps{
		Jobs:      tracker,
		Workflows: reg.Orchestrator().Workflow,
		AIMode:    reg.AIMode(),
		Version:   version,
		Gatherer:  promReg,
		Metrics:   httpserver.NewHTTPMetrics(tel.Meter("github.com/fyrsmithlabs/sitegen/http"), logger),
		Telemetry: tel,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info(ctx, "Starting sitegend",
		zap.String("version", version),
		zap.String("addr", srv.Addr()),
		zap.String("ai_mode", reg.AIMode()),
		zap.Bool("auth", cfg.Auth.Enabled()),
		zap.Bool("telemetry", tel.IsEnabled()))

	serveErr := srv.Start(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Jobs.ShutdownGrace)
	defer cancel()
	if err := tracker.Close(drainCtx); err != nil {
		logger.Warn(drainCtx, "jobs did not drain before shutdown", zap.Error(err))
	}

	return serveErr
}

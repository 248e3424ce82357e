package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	httpserver "github.com/fyrsmithlabs/sitegen/internal/http"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/orchestrator"
	"github.com/fyrsmithlabs/sitegen/internal/services"
	"github.com/fyrsmithlabs/sitegen/internal/wordpress"
)

var runFlags struct {
	req            httpserver.GenerateRequest
	configPath     string
	simulateDeploy bool
	verbose        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the generation pipeline in-process",
	Long: `Run the five-stage pipeline locally without a server and print the
workflow result as JSON. Accepts the same business flags as generate.

Examples:
  # Plan and write content with the mock generator
  sitegen run --name "Joe's Pizza" --type restaurant

  # Exercise deployment against an in-memory WordPress
  sitegen run --name Acme --type consulting --deploy --wp-url https://acme.example \
    --wp-user admin --simulate-deploy`,
	RunE: runPipeline,
}

func init() {
	addBusinessFlags(runCmd.Flags(), &runFlags.req)
	runCmd.Flags().StringVar(&runFlags.configPath, "config", "", "path to a YAML config file")
	runCmd.Flags().BoolVar(&runFlags.simulateDeploy, "simulate-deploy", false, "deploy to an in-memory WordPress instead of the real site")
	runCmd.Flags().BoolVarP(&runFlags.verbose, "verbose", "v", false, "log pipeline progress to stderr")
	_ = runCmd.MarkFlagRequired("name")
	_ = runCmd.MarkFlagRequired("type")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadWithFile(runFlags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewNop()
	if runFlags.verbose {
		cfg.Logging.Format = "console"
		logCfg, err := logging.FromAppConfig(cfg.Logging)
		if err != nil {
			return err
		}
		logger, err = logging.NewLogger(logCfg, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()
	}

	opts := services.BuildOptions{Logger: logger}
	if runFlags.simulateDeploy {
		opts.Connector = wordpress.NewFake().Connector()
	}
	reg, err := services.Build(cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	req := runFlags.req
	loadSecrets(&req)
	in, err := req.Input()
	if err != nil {
		return err
	}

	res := reg.Orchestrator().Run(ctx, in, func(p orchestrator.Progress) {
		fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(fmt.Sprintf("%3d%% %s", p.Percentage, p.Message)))
	})
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Completed() {
		return fmt.Errorf("workflow %s: %s", res.Status, res.Error)
	}
	return nil
}

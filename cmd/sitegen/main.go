// Package main implements the sitegen CLI for submitting and following site
// generation jobs on a sitegend server, or running the pipeline in-process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sitegen/internal/monitor"
)

var (
	// serverURL is the base URL for the sitegend HTTP server
	serverURL string
	// token is sent as a bearer token when set
	token string
	// version information
	version = "dev"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sitegen",
	Short: "CLI for AI website generation",
	Long: `sitegen submits website generation jobs to a sitegend server and follows
them, or runs the whole pipeline locally with the run command.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SITEGEN_URL", "http://localhost:8000"), "sitegend server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("SITEGEN_TOKEN"), "API bearer token")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tokenCmd)
}

func newClient() *monitor.Client {
	return monitor.NewClient(serverURL, token)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

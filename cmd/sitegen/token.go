package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	httpserver "github.com/fyrsmithlabs/sitegen/internal/http"
)

var tokenFlags struct {
	configPath string
	subject    string
	ttl        time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token from the server's auth configuration",
	Long: `Mint a bearer token signed with auth.jwt_secret. Run it where the
server's configuration (or SITEGEN_AUTH_JWT_SECRET) is available.

Examples:
  SITEGEN_AUTH_JWT_SECRET=... sitegen token --subject ci --ttl 24h`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.configPath, "config", "", "path to a YAML config file")
	tokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "sitegen-cli", "token subject")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 12*time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFile(tokenFlags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.Auth.Enabled() {
		return errors.New("auth.jwt_secret is not set; the server accepts requests without a token")
	}

	signed, err := httpserver.NewToken(cfg.Auth, tokenFlags.subject, tokenFlags.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}

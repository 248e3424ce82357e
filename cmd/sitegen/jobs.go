package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	httpserver "github.com/fyrsmithlabs/sitegen/internal/http"
	"github.com/fyrsmithlabs/sitegen/internal/jobs"
	"github.com/fyrsmithlabs/sitegen/internal/monitor"
)

var generateFlags struct {
	req      httpserver.GenerateRequest
	wait     bool
	interval time.Duration
	jsonOut  bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Submit a website generation job",
	Long: `Submit a website generation job to the server.

Examples:
  # Queue a job and print its ID
  sitegen generate --name "Joe's Pizza" --type restaurant

  # Deploy to WordPress and wait for the result
  SITEGEN_WP_PASSWORD="abcd efgh" sitegen generate --name Acme --type consulting \
    --deploy --wp-url https://acme.example --wp-user admin --wait`,
	RunE: runGenerate,
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show a job's status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Stream a job's progress until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check sitegend server health",
	RunE:  runHealth,
}

var statusJSON bool

func init() {
	addBusinessFlags(generateCmd.Flags(), &generateFlags.req)
	f := generateCmd.Flags()
	f.BoolVar(&generateFlags.wait, "wait", false, "poll until the job finishes")
	f.DurationVar(&generateFlags.interval, "interval", 2*time.Second, "poll interval for --wait")
	f.BoolVar(&generateFlags.jsonOut, "json", false, "print the final job as JSON")
	_ = generateCmd.MarkFlagRequired("name")
	_ = generateCmd.MarkFlagRequired("type")

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the full job as JSON")
}

// addBusinessFlags binds the request fields shared by generate and run.
func addBusinessFlags(f *pflag.FlagSet, req *httpserver.GenerateRequest) {
	f.StringVar(&req.BusinessName, "name", "", "business name (required)")
	f.StringVar(&req.BusinessType, "type", "", "business type, e.g. restaurant (required)")
	f.StringVar(&req.Description, "description", "", "short business description")
	f.StringVar(&req.Industry, "industry", "", "industry")
	f.StringVar(&req.TargetAudience, "audience", "", "target audience")
	f.StringSliceVar(&req.Goals, "goal", nil, "site goal, repeatable")
	f.StringVar(&req.Tone, "tone", "", "content tone")
	f.StringVar(&req.DesignPreference, "design", "", "design preference")
	f.StringVar(&req.Domain, "domain", "", "site domain")
	f.BoolVar(&req.Deploy, "deploy", false, "deploy to WordPress")
	f.StringVar(&req.WPSiteURL, "wp-url", "", "WordPress site URL")
	f.StringVar(&req.WPUsername, "wp-user", "", "WordPress username")
	f.StringVar(&req.WPSSHHost, "ssh-host", "", "SSH host for WP-CLI")
	f.IntVar(&req.WPSSHPort, "ssh-port", 0, "SSH port for WP-CLI")
	f.StringVar(&req.WPSSHUser, "ssh-user", "", "SSH user for WP-CLI")
	f.StringVar(&req.WPSSHKey, "ssh-key", "", "SSH private key path, resolved where the pipeline runs")
}

// loadSecrets fills passwords from the environment so they never appear in
// process listings.
func loadSecrets(req *httpserver.GenerateRequest) {
	req.WPPassword = os.Getenv("SITEGEN_WP_PASSWORD")
	req.WPSSHPassword = os.Getenv("SITEGEN_SSH_PASSWORD")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	req := generateFlags.req
	loadSecrets(&req)

	client := newClient()
	resp, err := client.Generate(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !generateFlags.wait {
		printField(out, "Job", resp.JobID)
		printField(out, "Status", string(resp.Status))
		fmt.Fprintln(out, dimStyle.Render(resp.Message))
		return nil
	}

	fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("job "+resp.JobID))
	last := ""
	job, err := client.Wait(ctx, resp.JobID, generateFlags.interval, func(j jobs.Job) {
		if line := progressLine(j); line != last {
			fmt.Fprintln(cmd.ErrOrStderr(), line)
			last = line
		}
	})
	if err != nil {
		return err
	}
	return finish(cmd, job, generateFlags.jsonOut)
}

// finish prints a terminal job and turns a failed job into an error exit.
func finish(cmd *cobra.Command, job jobs.Job, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		if err := printJSON(out, job); err != nil {
			return err
		}
	} else {
		printJob(out, job)
	}
	if job.Status == jobs.StatusFailed {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Message)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	job, err := newClient().Job(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if statusJSON {
		return printJSON(cmd.OutOrStdout(), job)
	}
	printJob(cmd.OutOrStdout(), job)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	list, err := newClient().Jobs(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	now := time.Now()
	for _, j := range list.Jobs {
		fmt.Fprintf(out, "%s  %s  %s  %s\n",
			j.JobID,
			monitor.FormatProgress(j.Progress),
			monitor.StatusBadge(j.Status),
			dimStyle.Render(monitor.FormatAge(j.CreatedAt, now)))
	}
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d job(s)", list.Total)))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	msg, err := newClient().DeleteJob(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg.Message)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	job, reason, err := newClient().Watch(cmd.Context(), args[0], func(j jobs.Job) {
		fmt.Fprintln(cmd.ErrOrStderr(), progressLine(j))
	})
	if err != nil {
		return err
	}
	if !job.Status.Terminal() {
		return fmt.Errorf("stream closed: %s", reason)
	}
	return finish(cmd, job, false)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	health, err := newClient().Health(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: Failed to connect to %s: %v\n", serverURL, err)
		return err
	}

	out := cmd.OutOrStdout()
	printField(out, "Status", health.Status)
	printField(out, "AI mode", health.AIMode)
	printField(out, "Server", serverURL)
	printField(out, "Active", fmt.Sprintf("%d", health.Jobs[jobs.StatusQueued]+health.Jobs[jobs.StatusProcessing]))
	return nil
}

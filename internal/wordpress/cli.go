package wordpress

import (
	"context"
	"fmt"
	"strings"
)

// Shell runs commands on the WordPress host.
type Shell interface {
	Run(ctx context.Context, cmd string) (stdout, stderr string, err error)
	Close() error
}

// CLI issues WP-CLI commands through a Shell.
type CLI struct {
	shell Shell
	path  string
}

// NewCLI wraps sh. path, when set, is passed as --path to every command.
func NewCLI(sh Shell, path string) *CLI {
	return &CLI{shell: sh, path: path}
}

// InstallTheme installs a theme from the directory.
func (c *CLI) InstallTheme(ctx context.Context, slug string) error {
	return c.wp(ctx, "theme", "install", slug)
}

// ActivateTheme switches the active theme.
func (c *CLI) ActivateTheme(ctx context.Context, slug string) error {
	return c.wp(ctx, "theme", "activate", slug)
}

// InstallPlugin installs and activates a plugin in one step.
func (c *CLI) InstallPlugin(ctx context.Context, slug string) error {
	return c.wp(ctx, "plugin", "install", slug, "--activate")
}

// OptionUpdate sets a site option.
func (c *CLI) OptionUpdate(ctx context.Context, name, value string) error {
	return c.wp(ctx, "option", "update", name, value)
}

func (c *CLI) wp(ctx context.Context, args ...string) error {
	cmd := c.command(args...)
	_, stderr, err := c.shell.Run(ctx, cmd)
	if err != nil {
		if msg := strings.TrimSpace(stderr); msg != "" {
			return fmt.Errorf("wp %s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("wp %s: %w", args[0], err)
	}
	return nil
}

func (c *CLI) command(args ...string) string {
	parts := make([]string, 0, len(args)+2)
	parts = append(parts, "wp")
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	if c.path != "" {
		parts = append(parts, "--path="+shellQuote(c.path))
	}
	return strings.Join(parts, " ")
}

// shellQuote single-quotes s for a POSIX shell unless it is plainly safe.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./%=:", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

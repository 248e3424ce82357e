package wordpress

import (
	"context"

	"github.com/fyrsmithlabs/sitegen/internal/deploy"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"go.uber.org/zap"
)

// Connector opens a REST client per deployment, with a WP-CLI shell when
// the credentials carry SSH access.
type Connector struct {
	Options    Options
	SSH        SSHOptions
	RemotePath string
	Logger     *logging.Logger
}

// Connect implements deploy.Connector.
func (c *Connector) Connect(ctx context.Context, creds *stage.Credentials) (deploy.ContentSystem, func() error, error) {
	var (
		cli   *CLI
		shell *SSHShell
	)
	if creds.HasShell() {
		if c.Logger != nil {
			c.Logger.Info(ctx, "opening WP-CLI shell",
				zap.String("ssh_host", creds.SSHHost),
				zap.String("ssh_user", creds.SSHUser),
				logging.Secret("ssh_password", creds.SSHPassword))
		}
		sh, err := NewSSHShell(creds, c.SSH)
		if err != nil {
			return nil, nil, err
		}
		shell = sh
		cli = NewCLI(sh, c.RemotePath)
	} else if c.Logger != nil {
		c.Logger.Info(ctx, "no shell credentials, theme installs will be skipped",
			zap.String("site_url", creds.SiteURL))
	}

	client, err := NewClient(creds, c.Options, cli, c.Logger)
	if err != nil {
		if shell != nil {
			_ = shell.Close()
		}
		return nil, nil, err
	}

	closeFn := func() error { return nil }
	if shell != nil {
		closeFn = shell.Close
	}
	return client, closeFn, nil
}

var _ deploy.Connector = (*Connector)(nil)

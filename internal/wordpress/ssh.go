package wordpress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHOptions tune an SSHShell.
type SSHOptions struct {
	// KnownHosts is a known_hosts file used to verify the host key. When
	// empty the host key is not verified.
	KnownHosts string
	Timeout    time.Duration
}

// SSHShell runs commands over SSH. It connects on first use.
type SSHShell struct {
	addr string
	cfg  *ssh.ClientConfig

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHShell builds a shell from the ssh_* credential fields. A key file
// takes precedence; a password is offered as well when both are set.
func NewSSHShell(creds *stage.Credentials, opts SSHOptions) (*SSHShell, error) {
	if !creds.HasShell() {
		return nil, ErrShellRequired
	}

	var auth []ssh.AuthMethod
	if creds.SSHKey != "" {
		pem, err := os.ReadFile(creds.SSHKey)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) && creds.SSHPassword.IsSet() {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(creds.SSHPassword.Value()))
		}
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if creds.SSHPassword.IsSet() {
		auth = append(auth, ssh.Password(creds.SSHPassword.Value()))
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if opts.KnownHosts != "" {
		cb, err := knownhosts.New(opts.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
		hostKey = cb
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	return &SSHShell{
		addr: net.JoinHostPort(creds.SSHHost, strconv.Itoa(creds.Port())),
		cfg: &ssh.ClientConfig{
			User:            creds.SSHUser,
			Auth:            auth,
			HostKeyCallback: hostKey,
			Timeout:         opts.Timeout,
		},
	}, nil
}

func (s *SSHShell) connect(ctx context.Context) (*ssh.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	d := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", s.addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, s.addr, s.cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", s.addr, err)
	}
	s.client = ssh.NewClient(c, chans, reqs)
	return s.client, nil
}

// Run executes cmd in a new session. A non-zero exit status is an error;
// stdout and stderr are returned either way.
func (s *SSHShell) Run(ctx context.Context, cmd string) (string, string, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return "", "", err
	}
	session, err := client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return "", "", ctx.Err()
	case err := <-done:
		return stdout.String(), stderr.String(), err
	}
}

// Close closes the connection if one was opened.
func (s *SSHShell) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

var _ Shell = (*SSHShell)(nil)

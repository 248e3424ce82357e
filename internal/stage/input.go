package stage

import (
	"errors"
	"strings"

	"github.com/fyrsmithlabs/sitegen/internal/config"
)

// Defaults applied when a business input omits the field.
const (
	DefaultTargetAudience   = "general public"
	DefaultTone             = "professional and approachable"
	DefaultDesignPreference = "modern and clean"
)

// BusinessInput describes the business a site is generated for.
// It is treated as immutable once a run starts; stages copy before filling defaults.
type BusinessInput struct {
	BusinessName     string       `json:"business_name"`
	BusinessType     string       `json:"business_type"`
	Description      string       `json:"description,omitempty"`
	Industry         string       `json:"industry,omitempty"`
	TargetAudience   string       `json:"target_audience,omitempty"`
	Goals            []string     `json:"goals,omitempty"`
	Tone             string       `json:"tone,omitempty"`
	DesignPreference string       `json:"design_preference,omitempty"`
	Hosting          *Credentials `json:"-"`
	Domain           string       `json:"domain,omitempty"`
}

// Validate checks the required fields.
func (b BusinessInput) Validate() error {
	if strings.TrimSpace(b.BusinessName) == "" {
		return errors.New("business_name is required")
	}
	if strings.TrimSpace(b.BusinessType) == "" {
		return errors.New("business_type is required")
	}
	return nil
}

// WithDefaults returns a copy with the constructor-level defaults filled in.
// Industry, description and goals are left for the planning stage, which
// records an assumption for each.
func (b BusinessInput) WithDefaults() BusinessInput {
	if b.TargetAudience == "" {
		b.TargetAudience = DefaultTargetAudience
	}
	if b.Tone == "" {
		b.Tone = DefaultTone
	}
	if b.DesignPreference == "" {
		b.DesignPreference = DefaultDesignPreference
	}
	if b.Goals != nil {
		b.Goals = append([]string(nil), b.Goals...)
	}
	return b
}

// RequiredCredentialFields names the credentials deployment cannot run without.
var RequiredCredentialFields = []string{"wp_url", "wp_user", "wp_password"}

// DefaultSSHPort is used when credentials carry a shell host without a port.
const DefaultSSHPort = 22

// Credentials grant access to the remote content system. They live only for
// the duration of a job and never serialize the secrets.
type Credentials struct {
	SiteURL     string        `json:"site_url"`
	Username    string        `json:"username"`
	Password    config.Secret `json:"password"`
	SSHHost     string        `json:"ssh_host,omitempty"`
	SSHPort     int           `json:"ssh_port,omitempty"`
	SSHUser     string        `json:"ssh_user,omitempty"`
	SSHKey      string        `json:"ssh_key,omitempty"`
	SSHPassword config.Secret `json:"ssh_password,omitempty"`
}

// Complete reports whether the mandatory fields are all set.
func (c *Credentials) Complete() bool {
	return c != nil &&
		strings.TrimSpace(c.SiteURL) != "" &&
		strings.TrimSpace(c.Username) != "" &&
		c.Password.IsSet()
}

// HasShell reports whether remote shell access was supplied.
func (c *Credentials) HasShell() bool {
	return c != nil && c.SSHHost != "" && c.SSHUser != "" && (c.SSHKey != "" || c.SSHPassword.IsSet())
}

// Port returns the SSH port, defaulting to 22.
func (c *Credentials) Port() int {
	if c == nil || c.SSHPort <= 0 {
		return DefaultSSHPort
	}
	return c.SSHPort
}

// Assumptions is an append-only list of recorded defaults.
type Assumptions []string

// AssumePrefix marks an assumption recorded by a stage.
const AssumePrefix = "ASSUME: "

// Add appends msg with the ASSUME: prefix.
func (a *Assumptions) Add(msg string) {
	*a = append(*a, AssumePrefix+msg)
}

// Merge concatenates upstream and own into a new slice. Upstream entries always come first.
func Merge(upstream, own []string) []string {
	out := make([]string, 0, len(upstream)+len(own))
	out = append(out, upstream...)
	return append(out, own...)
}

// Package deploy pushes a generated site to a remote content system.
//
// Deployment is a fixed sequence of seven steps. Each step reports its own
// outcome as a Step value; a failing step never stops the ones after it.
// Only a cancelled context, a connector error or a panic inside a step
// aborts the sequence, and the steps completed before that are kept.
package deploy

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/sitegen/internal/stage"
)

// ErrFatal marks a deployment that aborted before all steps ran.
var ErrFatal = errors.New("deployment aborted")

// Record is an object created on the remote system.
type Record struct {
	ID   int    `json:"id"`
	Link string `json:"link,omitempty"`
}

// ContentSystem is the capability set deployment needs from the remote site.
type ContentSystem interface {
	TestConnection(ctx context.Context) bool
	InstallTheme(ctx context.Context, slug string) error
	ActivateTheme(ctx context.Context, slug string) error
	InstallPlugin(ctx context.Context, slug string) error
	ActivatePlugin(ctx context.Context, slug string) error
	// CreatePage and CreatePost return an error only after their own retries
	// are exhausted.
	CreatePage(ctx context.Context, page stage.Page) (*Record, error)
	CreatePost(ctx context.Context, post stage.Post) (*Record, error)
	CreateMenu(ctx context.Context, menu stage.Menu) (*Record, error)
	SetOption(ctx context.Context, name, value string) error
}

// Connector opens a ContentSystem for a set of credentials. The returned
// close function releases any sessions it holds.
type Connector interface {
	Connect(ctx context.Context, creds *stage.Credentials) (ContentSystem, func() error, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, creds *stage.Credentials) (ContentSystem, func() error, error)

// Connect calls f(ctx, creds).
func (f ConnectorFunc) Connect(ctx context.Context, creds *stage.Credentials) (ContentSystem, func() error, error) {
	return f(ctx, creds)
}

// Input is everything deployment consumes from the earlier stages.
type Input struct {
	Credentials *stage.Credentials
	Theme       stage.Theme
	Plugins     []stage.Plugin
	Content     stage.ContentResult
	Menus       []stage.Menu
}

// StepStatus is the outcome of one deployment step.
type StepStatus string

// Step statuses.
const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepPartial   StepStatus = "partial"
)

// Step names in execution order.
const (
	StepValidate = "validate_wordpress"
	StepTheme    = "install_theme"
	StepPlugins  = "install_plugins"
	StepContent  = "import_content"
	StepMenus    = "configure_menus"
	StepSEO      = "configure_seo"
	StepHealth   = "health_checks"
)

// StepNames returns every step in execution order.
func StepNames() []string {
	return []string{StepValidate, StepTheme, StepPlugins, StepContent, StepMenus, StepSEO, StepHealth}
}

// ItemFailure is a single item that failed inside a step.
type ItemFailure struct {
	Slug  string `json:"slug"`
	Error string `json:"error"`
}

// Step is the recorded outcome of one deployment step.
type Step struct {
	Name     string     `json:"step"`
	Status   StepStatus `json:"status"`
	Details  any        `json:"details,omitempty"`
	Error    string     `json:"error,omitempty"`
	Duration string     `json:"duration"`

	// install_plugins
	Installed []string      `json:"installed,omitempty"`
	Failed    []ItemFailure `json:"failed,omitempty"`

	// import_content
	CreatedPages *int `json:"created_pages,omitempty"`
	CreatedPosts *int `json:"created_posts,omitempty"`
	FailedPages  *int `json:"failed_pages,omitempty"`
	FailedPosts  *int `json:"failed_posts,omitempty"`
}

// HealthChecks is the diagnostic bundle produced by the last step.
type HealthChecks struct {
	SiteAccessible   bool     `json:"site_accessible"`
	SSLActive        bool     `json:"ssl_active"`
	ThemeActive      bool     `json:"theme_active"`
	PluginsActive    []string `json:"plugins_active"`
	PagesCreated     int      `json:"pages_created"`
	PerformanceScore string   `json:"performance_score"`
}

// SiteDetails describes the deployed site.
type SiteDetails struct {
	URL              string `json:"url"`
	AdminURL         string `json:"admin_url"`
	AdminUser        string `json:"admin_user"`
	WordPressVersion string `json:"wordpress_version"`
}

// Report is the payload of the deployment stage.
type Report struct {
	DeploymentPlan []Step        `json:"deployment_plan"`
	SiteDetails    *SiteDetails  `json:"site_details,omitempty"`
	HealthChecks   *HealthChecks `json:"health_checks,omitempty"`
	PostDeployment []string      `json:"post_deployment,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// Step returns the recorded step with the given name.
func (r *Report) Step(name string) (Step, bool) {
	for _, s := range r.DeploymentPlan {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

package http

import (
	"strings"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/jobs"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
)

// GenerateRequest is the request body for POST /api/v1/sites/generate.
type GenerateRequest struct {
	BusinessName     string   `json:"business_name"`
	BusinessType     string   `json:"business_type"`
	Description      string   `json:"description,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	TargetAudience   string   `json:"target_audience,omitempty"`
	Goals            []string `json:"goals,omitempty"`
	Tone             string   `json:"tone,omitempty"`
	DesignPreference string   `json:"design_preference,omitempty"`
	Domain           string   `json:"domain,omitempty"`

	// Credentials arrive in plaintext and are wrapped in config.Secret
	// before they reach the pipeline.
	Deploy        bool   `json:"deploy"`
	WPSiteURL     string `json:"wp_site_url,omitempty"`
	WPUsername    string `json:"wp_username,omitempty"`
	WPPassword    string `json:"wp_password,omitempty"`
	WPSSHHost     string `json:"wp_ssh_host,omitempty"`
	WPSSHPort     int    `json:"wp_ssh_port,omitempty"`
	WPSSHUser     string `json:"wp_ssh_user,omitempty"`
	WPSSHKey      string `json:"wp_ssh_key,omitempty"`
	WPSSHPassword string `json:"wp_ssh_password,omitempty"`
}

// Input converts the request into a validated business input. Credentials
// are attached only when deployment was requested with a site URL.
func (r GenerateRequest) Input() (stage.BusinessInput, error) {
	in := stage.BusinessInput{
		BusinessName:     strings.TrimSpace(r.BusinessName),
		BusinessType:     strings.TrimSpace(r.BusinessType),
		Description:      r.Description,
		Industry:         r.Industry,
		TargetAudience:   r.TargetAudience,
		Goals:            r.Goals,
		Tone:             r.Tone,
		DesignPreference: r.DesignPreference,
		Domain:           r.Domain,
	}
	if err := in.Validate(); err != nil {
		return stage.BusinessInput{}, err
	}
	if r.Deploy && strings.TrimSpace(r.WPSiteURL) != "" {
		in.Hosting = &stage.Credentials{
			SiteURL:     strings.TrimSpace(r.WPSiteURL),
			Username:    r.WPUsername,
			Password:    config.Secret(r.WPPassword),
			SSHHost:     r.WPSSHHost,
			SSHPort:     r.WPSSHPort,
			SSHUser:     r.WPSSHUser,
			SSHKey:      r.WPSSHKey,
			SSHPassword: config.Secret(r.WPSSHPassword),
		}
	}
	return in, nil
}

// GenerateResponse is the response body for POST /api/v1/sites/generate.
type GenerateResponse struct {
	JobID   string      `json:"job_id"`
	Status  jobs.Status `json:"status"`
	Message string      `json:"message"`
}

// JobSummary is one entry of GET /api/v1/jobs.
type JobSummary struct {
	JobID     string      `json:"job_id"`
	Status    jobs.Status `json:"status"`
	Progress  int         `json:"progress"`
	CreatedAt time.Time   `json:"created_at"`
}

// JobListResponse is the response body for GET /api/v1/jobs.
type JobListResponse struct {
	Total int          `json:"total"`
	Jobs  []JobSummary `json:"jobs"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ServiceInfo is the response body for GET /.
type ServiceInfo struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	AIMode    string              `json:"ai_mode"`
	Jobs      map[jobs.Status]int `json:"jobs"`
	Telemetry any                 `json:"telemetry,omitempty"`
}

package orchestrator

import (
	"github.com/fyrsmithlabs/sitegen/internal/stage"
)

// WorkflowStatus is the outcome of a pipeline run.
type WorkflowStatus string

const (
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// Labels reported in the quality metrics block.
const (
	CompletenessLabel = "100%"
	PerformanceLabel  = "good"
	SEOReadinessLabel = "good"
	PendingSiteURL    = "pending"
)

// RecoverySuggestions are attached to every failed run.
func RecoverySuggestions() []string {
	return []string{
		"Check WordPress credentials",
		"Verify hosting accessibility",
		"Review error logs",
	}
}

// Progress is a checkpoint reported while a run advances.
type Progress struct {
	Stage      stage.Name `json:"stage,omitempty"`
	Percentage int        `json:"percentage"`
	Message    string     `json:"message"`
}

// ProgressFunc receives checkpoints during a run.
type ProgressFunc func(Progress)

// checkpoint is the progress reported once a stage finishes.
type checkpoint struct {
	percentage int
	message    string
}

var checkpoints = map[stage.Name]checkpoint{
	stage.Architecture: {40, "Site architecture generated"},
	stage.Content:      {60, "Content generated"},
	stage.Design:       {70, "Theme selected"},
	stage.Plugins:      {80, "Plugins selected"},
	stage.Deployment:   {90, "Deployment finished"},
}

// Checkpoints reported by the job workflow before the first stage runs.
const (
	InitProgress     = 10
	InitMessage      = "Initializing platform..."
	PlanningProgress = 20
	PlanningMessage  = "Generating site architecture..."
)

// SiteSummary describes the generated site.
type SiteSummary struct {
	BusinessName       string       `json:"business_name"`
	SiteURL            string       `json:"site_url"`
	PagesCreated       int          `json:"pages_created"`
	PostsCreated       int          `json:"posts_created"`
	Theme              string       `json:"theme"`
	PluginsCount       int          `json:"plugins_count"`
	EstimatedSetupTime string       `json:"estimated_setup_time"`
	Status             stage.Status `json:"status"`
}

// QualityMetrics summarises confidence across stages.
type QualityMetrics struct {
	OverallConfidence    float64 `json:"overall_confidence"`
	Completeness         string  `json:"completeness"`
	EstimatedPerformance string  `json:"estimated_performance"`
	SEOReadiness         string  `json:"seo_readiness"`
}

// WorkflowResult is the final output of a run. Completed runs carry the
// summary blocks; failed runs carry the error and recovery suggestions.
type WorkflowResult struct {
	Status         WorkflowStatus              `json:"workflow_status"`
	CompletedSteps []stage.Name                `json:"completed_steps"`
	Results        map[stage.Name]any          `json:"results"`
	StageStatus    map[stage.Name]stage.Status `json:"stage_status"`
	Assumptions    []string                    `json:"assumptions"`
	Warnings       []Warning                   `json:"quality_warnings,omitempty"`

	SiteSummary         *SiteSummary    `json:"site_summary,omitempty"`
	QualityMetrics      *QualityMetrics `json:"quality_metrics,omitempty"`
	UserActionsRequired []string        `json:"user_actions_required,omitempty"`
	ExecutionTime       string          `json:"execution_time"`

	Error               string   `json:"error,omitempty"`
	RecoverySuggestions []string `json:"recovery_suggestions,omitempty"`
}

// Completed reports whether the run finished every stage.
func (r *WorkflowResult) Completed() bool {
	return r != nil && r.Status == WorkflowCompleted
}

func newWorkflowResult() *WorkflowResult {
	return &WorkflowResult{
		CompletedSteps: []stage.Name{},
		Results:        map[stage.Name]any{},
		StageStatus:    map[stage.Name]stage.Status{},
		Assumptions:    []string{},
	}
}

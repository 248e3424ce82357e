package orchestrator

import (
	"fmt"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
)

// Warning is a quality concern raised after a stage finished. Warnings never
// stop a run.
type Warning struct {
	Stage       stage.Name `json:"stage"`
	Gate        string     `json:"gate"`
	Description string     `json:"description"`
}

// Gate inspects a finished stage.
type Gate interface {
	// Name returns the gate identifier
	Name() string

	// Check returns the warnings raised for the stage result, if any
	Check(name stage.Name, res *stage.Result) []Warning
}

// ConfidenceGate warns when a stage reports confidence below its threshold.
// Planning and plugin selection use the overall threshold. Results that
// need input are not judged.
type ConfidenceGate struct {
	thresholds map[stage.Name]float64
}

// NewConfidenceGate creates a gate from the configured thresholds.
func NewConfidenceGate(t config.Thresholds) *ConfidenceGate {
	return &ConfidenceGate{thresholds: map[stage.Name]float64{
		stage.Architecture: t.Overall,
		stage.Content:      t.Content,
		stage.Design:       t.Design,
		stage.Plugins:      t.Overall,
		stage.Deployment:   t.Deploy,
	}}
}

// Name returns the gate identifier
func (g *ConfidenceGate) Name() string {
	return "confidence-threshold"
}

// Check compares the stage confidence with its threshold.
func (g *ConfidenceGate) Check(name stage.Name, res *stage.Result) []Warning {
	if res.Status == stage.StatusNeedsInput {
		return nil
	}
	threshold, ok := g.thresholds[name]
	if !ok || res.Confidence >= threshold {
		return nil
	}
	return []Warning{{
		Stage:       name,
		Gate:        g.Name(),
		Description: fmt.Sprintf("confidence %.2f below threshold %.2f", res.Confidence, threshold),
	}}
}

// StatusGate warns when a stage embedded a failed status in its result.
type StatusGate struct{}

// NewStatusGate creates a status gate.
func NewStatusGate() *StatusGate {
	return &StatusGate{}
}

// Name returns the gate identifier
func (g *StatusGate) Name() string {
	return "stage-status"
}

// Check flags failed results.
func (g *StatusGate) Check(name stage.Name, res *stage.Result) []Warning {
	if res.Status != stage.StatusFailed {
		return nil
	}
	desc := "stage reported failure"
	if res.Action != "" {
		desc += ": " + res.Action
	}
	return []Warning{{Stage: name, Gate: g.Name(), Description: desc}}
}

// DefaultGates returns the gates every run applies.
func DefaultGates(t config.Thresholds) []Gate {
	return []Gate{NewConfidenceGate(t), NewStatusGate()}
}

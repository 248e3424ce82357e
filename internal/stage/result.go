// Package stage defines the contract shared by every step of the site
// generation pipeline.
//
// Each stage turns a typed input into a Result envelope. The orchestrator
// composes stages through the Executor interface without knowing which of
// them call external collaborators.
package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// Status is the outcome reported by a stage.
type Status string

// Stage statuses.
const (
	StatusOK         Status = "ok"
	StatusFailed     Status = "failed"
	StatusNeedsInput Status = "needs_input"
	StatusInProgress Status = "in_progress"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusFailed, StatusNeedsInput, StatusInProgress:
		return true
	}
	return false
}

// Name identifies a pipeline stage. The values double as the keys of the
// workflow result and the entries of completed_steps.
type Name string

// Pipeline stages in execution order.
const (
	Architecture Name = "architecture"
	Content      Name = "content"
	Design       Name = "design"
	Plugins      Name = "plugins"
	Deployment   Name = "deployment"
)

// Names returns every stage in execution order.
func Names() []Name {
	return []Name{Architecture, Content, Design, Plugins, Deployment}
}

// Result is the envelope every stage returns.
//
// Payload holds the stage-specific structure (*PlanningResult,
// *ContentResult, ...) or a generic map when the generator output could not
// be coerced into one.
type Result struct {
	Status              Status   `json:"status"`
	Action              string   `json:"action"`
	Summary             string   `json:"result_summary"`
	Payload             any      `json:"result"`
	Assumptions         []string `json:"assumptions"`
	Confidence          float64  `json:"confidence"`
	NextSteps           []string `json:"next_steps"`
	RequiredCredentials []string `json:"required_credentials,omitempty"`
}

// Normalize enforces the envelope invariants in place: confidence within
// [0, 1], payload never nil, list fields never nil. It returns r.
func (r *Result) Normalize() *Result {
	if math.IsNaN(r.Confidence) || r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	if r.Payload == nil {
		r.Payload = map[string]any{}
	}
	if r.Assumptions == nil {
		r.Assumptions = []string{}
	}
	if r.NextSteps == nil {
		r.NextSteps = []string{}
	}
	return r
}

// Failed builds a failed envelope with zero confidence.
func Failed(action, summary string, payload any, assumptions []string, nextSteps ...string) *Result {
	return (&Result{
		Status:      StatusFailed,
		Action:      action,
		Summary:     summary,
		Payload:     payload,
		Assumptions: assumptions,
		Confidence:  0,
		NextSteps:   nextSteps,
	}).Normalize()
}

// PayloadAs returns the payload as *T when it has that type.
func PayloadAs[T any](r *Result) (*T, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.Payload.(*T)
	return p, ok && p != nil
}

// Executor is the uniform stage interface.
type Executor[In any] interface {
	Execute(ctx context.Context, in In) (*Result, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc[In any] func(ctx context.Context, in In) (*Result, error)

// Execute calls f(ctx, in).
func (f ExecutorFunc[In]) Execute(ctx context.Context, in In) (*Result, error) {
	return f(ctx, in)
}

// Envelope is the wire form of a generator response before its result is
// bound to a typed payload.
type Envelope struct {
	Status      Status          `json:"status"`
	Action      string          `json:"action"`
	Summary     string          `json:"result_summary"`
	Result      json.RawMessage `json:"result"`
	Assumptions []string        `json:"assumptions"`
	Confidence  *float64        `json:"confidence"`
	NextSteps   []string        `json:"next_steps"`
}

// ParseEnvelope converts a decoded generator document into an Envelope.
// A missing status or a missing/non-numeric confidence is an error.
func ParseEnvelope(doc map[string]any) (*Envelope, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode generator document: %w", err)
	}
	if c, ok := doc["confidence"]; !ok {
		return nil, fmt.Errorf("confidence missing")
	} else if _, isNum := c.(float64); !isNum {
		return nil, fmt.Errorf("confidence is %T, want number", c)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Status == "" {
		return nil, fmt.Errorf("status missing")
	}
	if !env.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", env.Status)
	}
	return &env, nil
}

package orchestrator

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the name used for OTEL instrumentation.
const InstrumentationName = "github.com/fyrsmithlabs/sitegen/internal/orchestrator"

// Metrics provides OpenTelemetry instruments for pipeline runs.
type Metrics struct {
	stageDuration   metric.Float64Histogram
	stageConfidence metric.Float64Histogram
	workflowsTotal  metric.Int64Counter
}

// NewMetrics creates the instruments on meter, or on the global meter
// provider when meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.stageDuration, err = meter.Float64Histogram(
		"sitegen.stage.duration",
		metric.WithDescription("Duration of a pipeline stage"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	m.stageConfidence, err = meter.Float64Histogram(
		"sitegen.stage.confidence",
		metric.WithDescription("Confidence reported by a pipeline stage"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0, 0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 1),
	)
	if err != nil {
		return nil, err
	}

	m.workflowsTotal, err = meter.Int64Counter(
		"sitegen.workflow.total",
		metric.WithDescription("Completed and failed pipeline runs"),
		metric.WithUnit("{workflow}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordStage(ctx context.Context, name stage.Name, res *stage.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "error"
	if res != nil {
		status = string(res.Status)
	}
	attrs := metric.WithAttributes(
		attribute.String("stage", string(name)),
		attribute.String("status", status),
	)
	m.stageDuration.Record(ctx, elapsed.Seconds(), attrs)
	if res != nil {
		m.stageConfidence.Record(ctx, res.Confidence, attrs)
	}
}

func (m *Metrics) recordWorkflow(ctx context.Context, status WorkflowStatus) {
	if m == nil {
		return
	}
	m.workflowsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}

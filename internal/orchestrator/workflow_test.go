package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/deploy"
	"github.com/fyrsmithlabs/sitegen/internal/generator"
	"github.com/fyrsmithlabs/sitegen/internal/jobs"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"github.com/fyrsmithlabs/sitegen/internal/stages"
	"github.com/fyrsmithlabs/sitegen/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressLog struct {
	mu      sync.Mutex
	updates []int
	msgs    []string
}

func (p *progressLog) Update(progress int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, progress)
	p.msgs = append(p.msgs, message)
}

func TestWorkflow_ReportsCheckpoints(t *testing.T) {
	o := newOrchestrator(t, pipeline(t, generator.NewMock(), nil), Options{})

	log := &progressLog{}
	out, err := o.Workflow(joes())(context.Background(), log)
	require.NoError(t, err)

	res, ok := out.(*WorkflowResult)
	require.True(t, ok)
	assert.True(t, res.Completed())

	assert.Equal(t, []int{10, 20, 40, 60, 70, 80, 90}, log.updates)
	assert.Equal(t, InitMessage, log.msgs[0])
	assert.Equal(t, PlanningMessage, log.msgs[1])
}

func TestWorkflow_FailureCarriesPartialResult(t *testing.T) {
	s := pipeline(t, generator.NewMock(), nil)
	s.Design = stage.ExecutorFunc[stages.DesignInput](func(context.Context, stages.DesignInput) (*stage.Result, error) {
		return nil, errors.New("theme table unavailable")
	})
	o := newOrchestrator(t, s, Options{})

	out, err := o.Workflow(joes())(context.Background(), &progressLog{})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme table unavailable")

	var re *jobs.ResultError
	require.ErrorAs(t, err, &re)
	partial, ok := re.Result.(*WorkflowResult)
	require.True(t, ok)
	assert.Equal(t, WorkflowFailed, partial.Status)
	assert.Equal(t, []stage.Name{stage.Architecture, stage.Content}, partial.CompletedSteps)
}

func TestWorkflow_ThroughTracker(t *testing.T) {
	tracker := jobs.NewTracker(jobs.Options{})
	t.Cleanup(func() { _ = tracker.Close(context.Background()) })

	o := newOrchestrator(t, pipeline(t, generator.NewMock(), nil), Options{})

	id := tracker.Create()
	require.NoError(t, tracker.Schedule(id, o.Workflow(joes())))

	var job jobs.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = tracker.Get(id)
		return err == nil && job.Status.Terminal()
	}, 10*time.Second, 10*time.Millisecond)

	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, jobs.CompletedMessage, job.Message)

	res, ok := job.Result.(*WorkflowResult)
	require.True(t, ok)
	assert.Equal(t, stage.StatusNeedsInput, res.SiteSummary.Status)
	assert.Equal(t, 8, res.SiteSummary.PagesCreated)
}

func TestWorkflow_TimeoutKeepsFinishedStages(t *testing.T) {
	tracker := jobs.NewTracker(jobs.Options{Timeout: 300 * time.Millisecond})
	t.Cleanup(func() { _ = tracker.Close(context.Background()) })

	slow := deploy.ConnectorFunc(func(ctx context.Context, _ *stage.Credentials) (deploy.ContentSystem, func() error, error) {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	})
	o := newOrchestrator(t, pipeline(t, generator.NewMock(), slow), Options{})

	in := joes()
	in.Hosting = &stage.Credentials{
		SiteURL:  "https://joes.example",
		Username: "admin",
		Password: "abcd efgh ijkl mnop qrst uvwx",
	}
	id := tracker.Create()
	require.NoError(t, tracker.Schedule(id, o.Workflow(in)))

	var job jobs.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = tracker.Get(id)
		return err == nil && job.Status.Terminal()
	}, 10*time.Second, 10*time.Millisecond)

	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Message, "job interrupted")
	assert.Nil(t, job.Result)

	partial, ok := job.PartialResult.(*WorkflowResult)
	require.True(t, ok)
	assert.Equal(t, stage.Names(), partial.CompletedSteps)
	assert.Equal(t, stage.StatusFailed, partial.StageStatus[stage.Deployment])
	assert.Contains(t, partial.Results, stage.Content)
}

func TestRun_RecordsSpansAndMetrics(t *testing.T) {
	tt := telemetry.NewTestTelemetry()
	metrics, err := NewMetrics(tt.Meter(InstrumentationName))
	require.NoError(t, err)

	o := newOrchestrator(t, pipeline(t, generator.NewMock(), nil), Options{
		Metrics: metrics,
		Tracer:  tt.Tracer(InstrumentationName),
	})
	res := o.Run(context.Background(), joes(), nil)
	require.True(t, res.Completed())

	tt.AssertSpanExists(t, "sitegen.workflow")
	tt.AssertSpanAttribute(t, "sitegen.workflow", "business.name", "Joe's Pizza")
	for _, name := range stage.Names() {
		tt.AssertSpanExists(t, "sitegen.stage."+string(name))
	}

	names, err := tt.MetricNames(context.Background())
	require.NoError(t, err)
	assert.Contains(t, names, "sitegen.stage.duration")
	assert.Contains(t, names, "sitegen.stage.confidence")
	assert.Contains(t, names, "sitegen.workflow.total")
}

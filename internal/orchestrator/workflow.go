package orchestrator

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/sitegen/internal/jobs"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
)

// Workflow adapts a run to the job tracker. Stage checkpoints become job
// progress; a failed run becomes an error carrying the partial result.
func (o *Orchestrator) Workflow(in stage.BusinessInput) jobs.Workflow {
	return func(ctx context.Context, u jobs.Updater) (any, error) {
		u.Update(InitProgress, InitMessage)
		u.Update(PlanningProgress, PlanningMessage)

		res := o.Run(ctx, in, func(p Progress) {
			u.Update(p.Percentage, p.Message)
		})
		if !res.Completed() {
			return nil, jobs.WithResult(errors.New(res.Error), res)
		}
		return res, nil
	}
}

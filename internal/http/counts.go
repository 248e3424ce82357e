package http

import (
	"github.com/fyrsmithlabs/sitegen/internal/jobs"
)

// CountByStatus tallies jobs per status. Every status appears in the result,
// with zero when no job has it.
func CountByStatus(list []jobs.Job) map[jobs.Status]int {
	counts := map[jobs.Status]int{
		jobs.StatusQueued:     0,
		jobs.StatusProcessing: 0,
		jobs.StatusCompleted:  0,
		jobs.StatusFailed:     0,
	}
	for _, j := range list {
		counts[j.Status]++
	}
	return counts
}

func summaries(list []jobs.Job) []JobSummary {
	out := make([]JobSummary, 0, len(list))
	for _, j := range list {
		out = append(out, JobSummary{
			JobID:     j.ID,
			Status:    j.Status,
			Progress:  j.Progress,
			CreatedAt: j.CreatedAt,
		})
	}
	return out
}

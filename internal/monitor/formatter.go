package monitor

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/jobs"
)

// FormatAge formats the time since t as "Xs", "Xm" or "Xh Ym".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	if d < time.Minute {
		if d < 0 {
			d = 0
		}
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return FormatDuration(int64(d / time.Second))
}

// FormatDuration formats duration in seconds to "Xh Ym" or "Xm"
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatProgress formats a 0-100 progress value.
func FormatProgress(progress int) string {
	return fmt.Sprintf("%3d%%", clampProgress(progress))
}

// ShortID returns the first 8 characters of a job ID.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// StatusBadge renders a colored job status.
func StatusBadge(status jobs.Status) string {
	switch status {
	case jobs.StatusCompleted:
		return healthyStyle.Render("✓ completed")
	case jobs.StatusFailed:
		return errorStyle.Render("✗ failed")
	case jobs.StatusProcessing:
		return warningStyle.Render("● processing")
	default:
		return dimStyle.Render("○ " + string(status))
	}
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

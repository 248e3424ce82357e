package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/sitegen/internal/jobs"
	"github.com/fyrsmithlabs/sitegen/internal/monitor"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label+":")), valueStyle.Render(value))
}

func printJob(w io.Writer, job jobs.Job) {
	printField(w, "Job", job.ID)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", "Status:")), monitor.StatusBadge(job.Status))
	printField(w, "Progress", monitor.FormatProgress(job.Progress))
	if job.Message != "" {
		printField(w, "Message", job.Message)
	}
}

// progressLine renders one line of a followed job.
func progressLine(job jobs.Job) string {
	return fmt.Sprintf("%s %s %s",
		dimStyle.Render(monitor.FormatProgress(job.Progress)),
		monitor.StatusBadge(job.Status),
		job.Message)
}

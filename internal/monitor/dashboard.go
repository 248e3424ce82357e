package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	httpserver "github.com/fyrsmithlabs/sitegen/internal/http"
	"github.com/fyrsmithlabs/sitegen/internal/jobs"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
	maxRows         = 10
)

// Model is the BubbleTea job dashboard.
type Model struct {
	client     *Client
	interval   time.Duration
	lastUpdate time.Time
	snapshot   Snapshot
	err        error
	quitting   bool
	now        func() time.Time

	// activeHistory holds queued+processing counts, oldest first.
	activeHistory []float64
	jobProgress   progress.Model
}

// Snapshot is one poll of the server.
type Snapshot struct {
	Health httpserver.HealthResponse
	Jobs   []httpserver.JobSummary
}

// Active is the number of queued or processing jobs.
func (s Snapshot) Active() int {
	return s.Health.Jobs[jobs.StatusQueued] + s.Health.Jobs[jobs.StatusProcessing]
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a dashboard polling client every interval.
func NewModel(client *Client, interval time.Duration) Model {
	return Model{
		client:        client,
		interval:      interval,
		now:           time.Now,
		activeHistory: make([]float64, 0, historySize),
		jobProgress: progress.New(
			progress.WithGradient("#00ffff", "#00ff00"),
			progress.WithWidth(24),
		),
	}
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()

	return sparklineStyle.Render(spark.View())
}

type tickMsg time.Time
type snapshotMsg Snapshot
type errMsg struct{ err error }

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchSnapshot(m.client),
	)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshot(client *Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		health, err := client.Health(ctx)
		if err != nil {
			return errMsg{err}
		}
		list, err := client.Jobs(ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg{Health: health, Jobs: list.Jobs}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchSnapshot(m.client)
		}

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			fetchSnapshot(m.client),
		)

	case snapshotMsg:
		snap := Snapshot(msg)
		m.activeHistory = appendToHistory(m.activeHistory, float64(snap.Active()))
		m.snapshot = snap
		m.lastUpdate = m.now()
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return m.renderError()
	}
	return m.renderDashboard()
}

func (m Model) renderError() string {
	header := headerStyle.Render("sitegen Job Monitor")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot reach sitegen server") + "\n"
	content += "\n"
	content += dimStyle.Render("URL: ") + valueStyle.Render(m.client.BaseURL()) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

func (m Model) renderDashboard() string {
	var content string
	now := m.now()

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}

	health := m.snapshot.Health
	status := healthyStyle.Render("✓ " + health.Status)
	if health.Status != "healthy" {
		status = warningStyle.Render("⚠ " + health.Status)
	}

	content += headerStyle.Render(" sitegen Monitor ") + "\n"
	content += fmt.Sprintf("%s   %s %s   %s\n",
		status,
		dimStyle.Render("AI:"),
		valueStyle.Render(health.AIMode),
		dimStyle.Render(lastUpdateStr))

	content += "\n" + sectionStyle.Render("┃ Jobs") + "\n"
	content += labelStyle.Render("  Active: ") +
		valueStyle.Render(fmt.Sprintf("%d", m.snapshot.Active())) +
		"   " + createSparkline(m.activeHistory) + "\n"
	content += labelStyle.Render("  Completed: ") +
		valueStyle.Render(fmt.Sprintf("%d", health.Jobs[jobs.StatusCompleted])) +
		labelStyle.Render("  Failed: ") +
		valueStyle.Render(fmt.Sprintf("%d", health.Jobs[jobs.StatusFailed])) + "\n"

	content += "\n" + sectionStyle.Render("┃ Recent") + "\n"
	rows := m.snapshot.Jobs
	if len(rows) > maxRows {
		rows = rows[len(rows)-maxRows:]
	}
	if len(rows) == 0 {
		content += dimStyle.Render("  no jobs yet") + "\n"
	}
	for i := len(rows) - 1; i >= 0; i-- {
		j := rows[i]
		content += fmt.Sprintf("  %s  %s %s  %-14s %s\n",
			valueStyle.Render(ShortID(j.JobID)),
			m.jobProgress.ViewAs(float64(clampProgress(j.Progress))/100),
			dimStyle.Render(FormatProgress(j.Progress)),
			StatusBadge(j.Status),
			dimStyle.Render(FormatAge(j.CreatedAt, now)))
	}

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	return containerStyle.Render(content)
}

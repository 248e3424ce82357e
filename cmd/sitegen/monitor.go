package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sitegen/internal/monitor"
)

var monitorInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard of server health and jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(
			monitor.NewModel(newClient(), monitorInterval),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		_, err := p.Run()
		return err
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "refresh interval")
}

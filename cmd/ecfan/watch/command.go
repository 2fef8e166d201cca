package watch

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mdouchement/ecfan"
	"github.com/mdouchement/ecfan/cmd/ecfan/env"
	"github.com/spf13/cobra"
)

func Command(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Start the TUI status display",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), e.Controller, e.Config.RefreshInterval.Duration)
		},
	}
}

// Run displays the fan status, refreshed every interval, until q/ctrl+c or ctx cancelation.
func Run(ctx context.Context, ctrl *ecfan.Controller, interval time.Duration) error {
	tui := tea.NewProgram(newTUI(ctrl, interval), tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := tui.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

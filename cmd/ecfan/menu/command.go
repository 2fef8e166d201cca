package menu

import (
	"context"
	"os"

	"github.com/mdouchement/ecfan"
	"github.com/mdouchement/ecfan/cmd/ecfan/env"
	"github.com/mdouchement/ecfan/cmd/ecfan/watch"
	"github.com/mdouchement/ecfan/tty"
	"github.com/mdouchement/logger"
	"github.com/spf13/cobra"
)

func Command(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu to set fan percentages or give the control back to the BIOS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), e)
		},
	}
}

func Run(ctx context.Context, e *env.Env) error {
	m := ecfan.NewMenu(e.Controller, os.Stdin, os.Stdout, logger.LogWith(ctx))
	m.Clear = tty.IsTerminal(os.Stdout)
	m.Pause = e.Config.ErrorPause.Duration
	m.Refresh = e.Config.RefreshInterval.Duration
	if m.Clear && tty.IsTerminal(os.Stdin) {
		m.Watch = func(ctx context.Context) error {
			return watch.Run(ctx, e.Controller, e.Config.RefreshInterval.Duration)
		}
	}

	return m.Run(ctx)
}

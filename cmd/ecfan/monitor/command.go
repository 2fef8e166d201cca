package monitor

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/mdouchement/ecfan"
	"github.com/mdouchement/ecfan/cmd/ecfan/env"
	"github.com/mdouchement/ecfan/tty"
	"github.com/mdouchement/logger"
	"github.com/spf13/cobra"
)

func Command(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Monitor the fans on a single line and adjust their PWM from the keyboard",
		Long: "Monitor the fans on a single line and adjust their PWM from the keyboard.\n" +
			"Keys: 1-9 select a fan, w raises and s lowers its PWM.\n" +
			"The PWM values found at start are written back on Ctrl+C.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.LogWith(cmd.Context())

			session, err := ecfan.NewSession(e.Controller, e.Config.Step)
			if err != nil {
				log.WithError(err).Error("Some PWM values could not be captured, they will not be restored")
			}

			keyboard, err := tty.Open(os.Stdin)
			if err != nil {
				return fmt.Errorf("keyboard: %w", err)
			}
			defer keyboard.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			m := ecfan.NewMonitor(e.Controller, session, keyboard, os.Stdout, log, e.Config.PollInterval.Duration)
			m.Run(ctx) // Restoration failures are logged, the exit stays clean.
			return nil
		},
	}
}

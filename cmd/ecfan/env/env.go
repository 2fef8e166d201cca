package env

import (
	"context"
	"log/slog"
	"os"
	"regexp"

	"github.com/mdouchement/ecfan"
	"github.com/mdouchement/ecfan/ec"
	"github.com/mdouchement/ecfan/tty"
	"github.com/mdouchement/logger"
	"github.com/spf13/cobra"
)

// Env is what every command needs once the flags are parsed.
type Env struct {
	ConfigPath string
	Profile    string
	Device     string
	Dummy      bool

	Config     ecfan.Config
	Controller *ecfan.Controller
	Log        logger.Logger
}

func (e *Env) Flags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&e.ConfigPath, "config", "c", "/etc/ecfan/ecfan.yml", "Configfile path (built-in profile when missing)")
	cmd.PersistentFlags().StringVarP(&e.Profile, "profile", "p", "", "Use a built-in register map instead of the configured one")
	cmd.PersistentFlags().StringVarP(&e.Device, "device", "d", "", "EC io file (default "+ec.DefaultPath()+")")
	cmd.PersistentFlags().BoolVarP(&e.Dummy, "dummy", "", false, "Use an in-memory EC instead of the real one")
}

// Setup loads the config, builds the logger and opens the register space.
// The logger is stored in the command context.
func (e *Env) Setup(cmd *cobra.Command) error {
	cfg, err := ecfan.Load(e.ConfigPath)
	if err != nil {
		return err
	}

	if e.Profile != "" {
		if err = cfg.UseProfile(e.Profile); err != nil {
			return err
		}
	}
	if e.Device != "" {
		cfg.Device = e.Device
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	h := logger.NewSlogTextHandler(os.Stderr, &logger.SlogTextOption{
		Level:           level,
		ForceColors:     tty.IsTerminal(os.Stderr),
		ForceFormatting: true,
		PrefixRE:        regexp.MustCompile(`^(\[.*?\])\s`),
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	e.Log = logger.WrapSlogHandler(h)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithLogger(ctx, e.Log))

	var regs ecfan.Registers
	if e.Dummy {
		regs = ecfan.NewDummyECFor(cfg.Fans())
		e.Log.Info("Using a dummy EC")
	} else {
		dev := ec.Open(cfg.Device)
		cfg.Device = dev.Path()
		regs = dev
	}
	e.Log.Debug("Register map: profile " + cfg.Profile + " on " + cfg.Device)

	e.Config = cfg
	e.Controller = ecfan.New(regs, cfg.Fans(), e.Log)
	return nil
}

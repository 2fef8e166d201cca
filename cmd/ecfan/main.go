package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/mdouchement/ecfan"
	"github.com/mdouchement/ecfan/cmd/ecfan/control"
	"github.com/mdouchement/ecfan/cmd/ecfan/env"
	"github.com/mdouchement/ecfan/cmd/ecfan/menu"
	"github.com/mdouchement/ecfan/cmd/ecfan/monitor"
	showcurves "github.com/mdouchement/ecfan/cmd/ecfan/show_curves"
	"github.com/mdouchement/ecfan/cmd/ecfan/watch"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v4"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"
)

func main() {
	e := &env.Env{}

	cmd := &cobra.Command{
		Use:     "ecfan",
		Short:   "Monitor and drive the fans wired to the embedded controller",
		Long:    "Monitor and drive the fans wired to the embedded controller through the ec_sys debugfs interface.\nBuilt-in profiles: " + strings.Join(ecfan.Profiles(), ", "),
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return e.Setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return menu.Run(cmd.Context(), e)
		},
	}
	e.Flags(cmd)

	cmd.AddCommand(menu.Command(e))
	cmd.AddCommand(monitor.Command(e))
	cmd.AddCommand(watch.Command(e))
	cmd.AddCommand(control.Commands(e)...)
	cmd.AddCommand(showcurves.Command(e))
	cmd.AddCommand(&cobra.Command{
		Use:   "show-config",
		Short: "Show the resolved configuration and register map",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			codec := yaml.NewEncoder(os.Stdout)
			defer codec.Close()
			return codec.Encode(e.Config)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for ecfan",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cmd.Version)
		},
	})

	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

package control

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mdouchement/ecfan"
	"github.com/mdouchement/ecfan/cmd/ecfan/env"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v4"
)

func Commands(e *env.Env) []*cobra.Command {
	return []*cobra.Command{
		status(e),
		set(e),
		auto(e),
		dump(e),
	}
}

func status(e *env.Env) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the fan status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printStatus(os.Stdout, os.Stderr, e.Controller, asYAML)
		},
	}
	cmd.Flags().BoolVarP(&asYAML, "yaml", "", false, "Print the status as YAML")

	return cmd
}

// printStatus writes the status to w. A status decoded from partial EC data
// is still printed, the warning goes to werr so the YAML output stays parsable.
func printStatus(w, werr io.Writer, ctrl *ecfan.Controller, asYAML bool) error {
	statuses, err := ctrl.Status()
	if statuses == nil {
		return err
	}

	if asYAML {
		codec := yaml.NewEncoder(w)
		defer codec.Close()
		if err := codec.Encode(statuses); err != nil {
			return err
		}
	} else {
		ecfan.WriteStatus(w, ctrl.Fans(), statuses)
	}

	if err != nil {
		fmt.Fprintf(werr, "Warning: %v\n", err)
	}
	return nil
}

func set(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <fan|all> <percentage>",
		Short: "Switch a fan to manual control and set its duty cycle to the closest known percentage",
		Example: "  ecfan set 1 60\n" +
			"  ecfan set all 40",
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			pct, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
			if err != nil {
				return fmt.Errorf("%s: %w", strconv.Quote(args[1]), ecfan.ErrInvalidPercentage)
			}

			if args[0] == "all" {
				pcts := map[int]int{}
				for _, ch := range e.Controller.Fans() {
					pcts[ch.ID] = pct
				}
				return e.Controller.SetAll(pcts)
			}

			fan, err := strconv.Atoi(strings.TrimPrefix(args[0], "fan"))
			if err != nil {
				return fmt.Errorf("%s: invalid fan", strconv.Quote(args[0]))
			}

			step, err := e.Controller.SetPercentage(fan-1, pct)
			if err != nil {
				return err
			}

			fmt.Printf("Set fan%d to %d%% (value: %d)\n", fan, step.Percent, step.Value)
			return nil
		},
	}
}

func auto(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Give the control of all fans back to the BIOS",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return e.Controller.SetAuto()
		},
	}
}

func dump(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the whole EC register space",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := e.Controller.Snapshot()
			if data == nil {
				return err
			}

			ecfan.WriteDump(os.Stdout, data)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"io"

	"github.com/calvinmclean/pivend"
	"github.com/calvinmclean/pivend/controller"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

var (
	mapOutput      string
	mapPresentOnly bool
	statusOutput   string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map which trays are installed",
	Long: `Map probes every slot of rows A-F without moving any motors and lists which trays are
installed, whether they are home and whether can rows have cans.

Example:
  pivend map
  pivend map --present
  pivend map --output yaml > machine.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutput(mapOutput); err != nil {
			return err
		}

		c, err := connect(cmd)
		if err != nil {
			return err
		}

		slots, err := c.MapMachine(cmd.Context())
		if err != nil {
			return err
		}
		if mapPresentOnly {
			slots = presentSlots(slots)
		}
		return writeSlots(cmd.OutOrStdout(), mapOutput, slots)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [address]",
	Short: "Show the chiller state, and a slot's state when an address is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutput(statusOutput); err != nil {
			return err
		}

		c, err := connect(cmd)
		if err != nil {
			return err
		}

		var address string
		if len(args) > 0 {
			address = args[0]
		}

		status, err := c.Status(cmd.Context(), address)
		if err != nil {
			return err
		}
		return writeStatus(cmd.OutOrStdout(), statusOutput, status)
	},
}

func init() {
	mapCmd.Flags().StringVarP(&mapOutput, "output", "o", outputText, "output format: text or yaml")
	mapCmd.Flags().BoolVar(&mapPresentOnly, "present", false, "only list installed trays")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", outputText, "output format: text or yaml")
}

func checkOutput(output string) error {
	switch output {
	case outputText, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func presentSlots(slots []pivend.Slot) []pivend.Slot {
	var out []pivend.Slot
	for _, s := range slots {
		if s.Present {
			out = append(out, s)
		}
	}
	return out
}

func writeSlots(w io.Writer, output string, slots []pivend.Slot) error {
	if output == outputYAML {
		return writeYAML(w, slots)
	}

	for _, s := range slots {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	return nil
}

func writeStatus(w io.Writer, output string, status controller.Status) error {
	if output == outputYAML {
		return writeYAML(w, status)
	}

	chiller := "off"
	if status.Chiller {
		chiller = "on"
	}
	target := "none"
	if status.Target != nil {
		target = pivend.FormatCelsius(*status.Target) + " °C"
	}

	if _, err := fmt.Fprintf(w, "chiller: %s\ntarget:  %s\n", chiller, target); err != nil {
		return err
	}
	if status.Slot != nil {
		if _, err := fmt.Fprintf(w, "slot:    %s\n", status.Slot); err != nil {
			return err
		}
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

package main

import (
	"fmt"
	"strings"

	"github.com/calvinmclean/pivend"

	"github.com/spf13/cobra"
)

var chillerCmd = &cobra.Command{
	Use:       "chiller <on|off>",
	Short:     "Switch the chiller on or off directly",
	Long:      `Chiller switches the compressor directly. This stops any temperature control set with "pivend temp set".`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}

		on := strings.EqualFold(args[0], "on")
		if err := c.SetChiller(cmd.Context(), on); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "chiller", strings.ToLower(args[0]))
		return err
	},
}

var tempCmd = &cobra.Command{
	Use:   "temp",
	Short: "Read the cabinet temperature",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}

		milli, err := c.Temperature(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), pivend.FormatCelsius(milli), "°C")
		return err
	},
}

var tempSetCmd = &cobra.Command{
	Use:   "set <celsius>",
	Short: "Hold the cabinet at a temperature",
	Long: `Set starts temperature control: the firmware switches the chiller to keep the cabinet within
a degree of the target.

Example:
  pivend temp set 4
  pivend temp set 3.5
  pivend temp set -- -2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		milli, err := pivend.ParseCelsius(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q", err, args[0])
		}

		c, err := connect(cmd)
		if err != nil {
			return err
		}

		if err := c.SetTemperature(cmd.Context(), milli); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "target", pivend.FormatCelsius(milli), "°C")
		return err
	},
}

var tempOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Stop temperature control and turn the chiller off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}

		if err := c.DisableTemperature(cmd.Context()); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "temperature control off")
		return err
	},
}

func init() {
	tempCmd.AddCommand(tempSetCmd)
	tempCmd.AddCommand(tempOffCmd)
}

package main

import (
	"fmt"

	"github.com/calvinmclean/pivend"

	"github.com/spf13/cobra"
)

var vendCmd = &cobra.Command{
	Use:   "vend <address>",
	Short: "Vend the item at an address",
	Long: `Vend drives the motor at an address like A0 through one cycle and reports the outcome.

Rows A-D are standard trays, E and F are can rows and G is the gum and mint row.

Example:
  pivend vend A0
  pivend vend E3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}

		outcome, err := c.Vend(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return reportOutcome(cmd, outcome)
	},
}

var homeCmd = &cobra.Command{
	Use:   "home <address>",
	Short: "Run a row back to its home position",
	Long: `Home drives the motor at an address until it is back at its home position, skipping the
checks that stop a normal vend. Motors only turn forwards, so this may vend an item.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}

		outcome, err := c.Home(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return reportOutcome(cmd, outcome)
	},
}

// reportOutcome prints the outcome and turns anything but success into an error, so the exit
// code can be checked by scripts
func reportOutcome(cmd *cobra.Command, outcome pivend.Outcome) error {
	if outcome != pivend.OutcomeSuccess {
		return fmt.Errorf("vend failed: %s", outcome)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), outcome)
	return err
}

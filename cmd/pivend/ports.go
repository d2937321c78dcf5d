package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/calvinmclean/pivend/controller"

	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List USB serial ports, with any Pico first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := controller.GetSerialPorts()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PORT\tVID:PID\tSERIAL\tPRODUCT")
		for _, p := range ports {
			product := p.Product
			if controller.IsPico(p) {
				product += " (pico)"
			}
			fmt.Fprintf(w, "%s\t%s:%s\t%s\t%s\n", p.Name, p.VID, p.PID, p.SerialNumber, product)
		}
		return w.Flush()
	},
}

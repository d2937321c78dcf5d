package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/calvinmclean/pivend/controller"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Send commands to the firmware interactively",
	Long: `Console reads firmware commands like "VEND A0" or "MAP_MACHINE" from a prompt and prints the
responses. Type HELP for the firmware's command list and exit to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "pivend> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return fmt.Errorf("failed to create readline: %w", err)
		}
		defer rl.Close()

		return console(cmd, c, rl)
	},
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Send the commands in a file, or stdin, and print the responses",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) > 0 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		c, err := connect(cmd)
		if err != nil {
			return err
		}
		return c.Run(cmd.Context(), in, cmd.OutOrStdout())
	},
}

// console runs the prompt loop until EOF, exit or the command's context is done
func console(cmd *cobra.Command, c *controller.Controller, rl *readline.Instance) error {
	out := rl.Stdout()
	ctx := cmd.Context()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		lines, err := c.Exec(ctx, line)
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		if err != nil && !errors.Is(err, controller.ErrDevice) {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}

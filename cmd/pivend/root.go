package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/calvinmclean/pivend/controller"

	"github.com/spf13/cobra"
)

// Global flag values
var (
	flagConfig  string
	flagPort    string
	flagBaud    int
	flagTimeout time.Duration
	flagVerbose bool
)

var (
	logger = slog.New(slog.DiscardHandler)

	// ctrl is opened on first use by connect and closed after the command runs
	ctrl *controller.Controller
)

var rootCmd = &cobra.Command{
	Use:   "pivend",
	Short: "Control a vending machine through its Pico controller",
	Long: `pivend talks to the Pico firmware driving a vending machine's motor bank over USB serial.
It can vend items, re-home rows, map which trays are installed and run the chiller.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctrl == nil {
			return nil
		}
		err := ctrl.Close()
		ctrl = nil
		return err
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "config file (default: ./pivend.yaml or <user config dir>/pivend/pivend.yaml)")
	flags.StringVar(&flagPort, "port", "", "serial port of the Pico (default: first USB serial port)")
	flags.IntVar(&flagBaud, "baud", controller.DefaultBaudRate, "serial baud rate")
	flags.DurationVar(&flagTimeout, "timeout", controller.DefaultTimeout, "time to wait for each response")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(vendCmd)
	rootCmd.AddCommand(homeCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(chillerCmd)
	rootCmd.AddCommand(tempCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(runCmd)
}

// connect loads the config and opens the serial connection
func connect(cmd *cobra.Command) (*controller.Controller, error) {
	if ctrl != nil {
		return ctrl, nil
	}

	v, err := loadConfig(flagConfig, cmd.Root().PersistentFlags())
	if err != nil {
		return nil, err
	}

	cfg := controller.ConfigFromViper(v)
	cfg.Logger = logger
	logger.Debug("connecting", "port", cfg.SerialPort, "baud_rate", cfg.BaudRate, "timeout", cfg.Timeout)

	ctrl, err = controller.New(cfg)
	if err != nil {
		return nil, err
	}
	return ctrl, nil
}

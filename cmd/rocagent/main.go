package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rocagent",
	Short: "Drive a return-of-control Bedrock agent with local callback tools",
	Long: `rocagent provisions a Bedrock agent in return-of-control mode, registers
the local mortgage tools as its action group, and answers questions by
alternating between the remote agent's decisions and local tool execution.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ./rocagent.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(askCmd, provisionCmd, cleanupCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

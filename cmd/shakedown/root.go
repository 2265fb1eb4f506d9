package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "shakedown",
		Short:         "Shakedown rehearses the project's CI pipeline locally",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return err
			}
			if !debug {
				logger = zap.NewNop()
				return nil
			}
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			built, err := config.Build()
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			logger = built
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	persistent := cmd.PersistentFlags()
	persistent.String("root", "", "project root (default: walk up to .shakedown.yml or package.json)")
	persistent.String("config", "", "config file to load (default: <root>/.shakedown.yml)")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.StringArray("only", nil, "run only matching checks (name, command, or /regex/)")
	persistent.StringArray("skip", nil, "skip matching checks (repeatable)")
	persistent.Bool("dry-run", false, "print checks without executing them")
	persistent.BoolP("verbose", "v", false, "stream command output in real time")
	persistent.Bool("no-color", false, "disable colored output")
	persistent.Bool("debug", false, "write debug logs to stderr")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

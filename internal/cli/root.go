// Package cli implements the rulectl command tree.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"bazi-backend/internal/logging"
)

const (
	cmdName  = "rulectl"
	cmdShort = "Compile and import bazi formula rule sheets"
)

// RootArgs carries the flags shared by every subcommand.
type RootArgs struct {
	LogLevel  string
	LogFormat string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", logging.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", logging.AllFormats))

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(logging.AllLevels, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(logging.AllFormats, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		panic(err)
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdShort,
		PersistentPreRunE: setupLogging(args),
		SilenceUsage:      true,
	}

	args.AddFlags(cmd)
	cmd.AddCommand(NewImportCmd(args))
	cmd.AddCommand(NewCompileCmd(args))

	bindEnvVars(cmd)

	return cmd
}

// setupLogging installs the default slog logger before any subcommand
// runs, so RunE bodies and the packages they call log consistently.
func setupLogging(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		handler, err := logging.CreateHandlerWithStrings(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(handler))

		return nil
	}
}

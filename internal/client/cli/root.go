package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/spendkeeper/internal/client/config"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the spendkeeper command tree bound to streams.
func NewRootCommand(streams Streams) *cobra.Command {
	app := newApp(streams)

	cmd := &cobra.Command{
		Use:   "spendkeeper",
		Short: "Local-first expense ledger",
		Long: `spendkeeper keeps a per-user expense ledger on this machine and
synchronizes it with a spendkeeper server on demand.

Entries are stored locally first; run 'spendkeeper sync' to push pending
changes and pull entries recorded on other devices.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			app.init(cfg)
			return nil
		},
	}
	cmd.SetIn(app.reader)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newRegisterCommand(app),
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoAmICommand(app),
		newDestroyCommand(app),
		newAddCommand(app),
		newEditCommand(app),
		newDeleteCommand(app),
		newListCommand(app),
		newShowCommand(app),
		newQueryCommand(app),
		newStatsCommand(app),
		newClearCommand(app),
		newSyncCommand(app),
		newPullCommand(app),
		newExportCommand(app),
		newHealthCommand(app),
		newShellCommand(app, streams),
	)

	return cmd
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, args []string, streams Streams) int {
	cmd := NewRootCommand(streams)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(streams.Err, "Error: %v\n", err)
	if h := hint(err); h != "" {
		fmt.Fprintf(streams.Err, "  %s\n", h)
	}
	return GetExitCode(err)
}

// usageArgs wraps a positional-argument validator so a mismatch exits with
// ExitCommandError.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "usage: "+cmd.UseLine(), err)
		}
		return nil
	}
}

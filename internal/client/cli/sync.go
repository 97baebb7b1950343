package cli

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/storage"
	"github.com/dmitrijs2005/spendkeeper/internal/filex"
	"github.com/dmitrijs2005/spendkeeper/internal/netx"
	"github.com/spf13/cobra"
)

func newSyncCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending entries, then pull from the server",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				res, err := a.reconciler.Reconcile(cmd.Context(), sess)
				if err != nil {
					if res.Pushed > 0 {
						printResult(a.out, res)
					}
					return err
				}
				printResult(a.out, res)
				return nil
			})
		},
	}
}

func newPullCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Fetch entries from the server without pushing",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				res, err := a.reconciler.Pull(cmd.Context(), sess)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Inserted %d, updated %d, kept %d local.\n", res.Inserted, res.Overwritten, res.Kept)
				printIDErrors(a.out, res.Errors)
				return nil
			})
		},
	}
}

func newExportCommand(a *App) *cobra.Command {
	var (
		output   string
		download bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Have the server export the ledger as CSV",
		Long: `Ask the server to render the synced ledger as CSV. The server stores the
file and returns a short-lived download link. With --download or --output the
file is fetched right away.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(ctx, func(sess *storage.Session) error {
				exp, err := a.api.Export(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Exported %d entries.\n", exp.Rows)
				fmt.Fprintf(a.out, "Link (valid until %s):\n%s\n", exp.Expires.Local().Format(time.DateTime), exp.URL)

				if !download && output == "" {
					return nil
				}
				if output == "" {
					dir, err := filex.EnsureSubdDir(a.cfg.DataDir, "exports")
					if err != nil {
						return err
					}
					output = filepath.Join(dir, path.Base(exp.Key))
				}

				f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return err
				}
				n, err := netx.DownloadPresignedURL(ctx, exp.URL, f)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					_ = os.Remove(output)
					return fmt.Errorf("download export: %w", err)
				}
				fmt.Fprintf(a.out, "Saved %d bytes to %s.\n", n, output)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&download, "download", false, "save the file under <data-dir>/exports")
	cmd.Flags().StringVarP(&output, "output", "o", "", "save the file to this path")
	return cmd
}

func newHealthCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its database answer",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.api.Health(cmd.Context())
			if err != nil {
				return err
			}
			status := "ok"
			if !h.Success {
				status = "degraded"
			}
			fmt.Fprintf(a.out, "%s: %s (%s)\n", a.cfg.ServerEndpointAddr, status, h.Message)
			if !h.Success {
				return &ExitError{Code: ExitFailure, Message: "server reports " + h.Message}
			}
			return nil
		},
	}
}

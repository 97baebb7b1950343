package cli

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/storage"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/spf13/cobra"
)

// credentials takes the email from args or a prompt and always prompts for
// the password. The returned password must be wiped by the caller.
func (a *App) credentials(args []string) (string, []byte, error) {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return "", nil, err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

func newRegisterCommand(a *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "register [email]",
		Short: "Create an account and log in",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password, err := a.credentials(args)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			sess, err := a.auth.Register(cmd.Context(), email, string(password), name)
			if err != nil {
				return err
			}
			defer a.stores.Close(sess)

			fmt.Fprintf(a.out, "Registered %s (id %s).\n", email, sess.Owner())
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	return cmd
}

func newLoginCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Log in and pull entries from the server",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			email, password, err := a.credentials(args)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			sess, err := a.auth.Login(ctx, email, string(password))
			if err != nil {
				return err
			}
			defer a.stores.Close(sess)

			fmt.Fprintf(a.out, "Logged in as %s.\n", email)

			res, err := a.reconciler.Pull(ctx, sess)
			if err != nil {
				a.logger.Warn(ctx, "pull after login failed", "error", err)
				fmt.Fprintf(a.out, "Could not pull entries: %v\n", err)
				return nil
			}
			fmt.Fprintf(a.out, "Pulled %d entries (%d kept local).\n", res.Pulled(), res.Kept)
			return nil
		},
	}
}

func newLogoutCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session; local entries stay on disk",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				if err := a.auth.Logout(cmd.Context(), sess); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Logged out.")
				return nil
			})
		},
	}
}

func newWhoAmICommand(a *App) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the active user",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				p, err := a.auth.WhoAmI(cmd.Context(), sess)
				if err != nil {
					return err
				}

				fmt.Fprintf(a.out, "ID:        %s\n", p.ID)
				fmt.Fprintf(a.out, "Email:     %s\n", p.Email)
				if p.Name != "" {
					fmt.Fprintf(a.out, "Name:      %s\n", p.Name)
				}
				if !p.TokenExpiresAt.IsZero() {
					fmt.Fprintf(a.out, "Token:     valid until %s\n", p.TokenExpiresAt.Local().Format(time.DateTime))
				}
				fmt.Fprintf(a.out, "Last push: %s\n", orNever(p.LastPushAt))
				fmt.Fprintf(a.out, "Last pull: %s\n", orNever(p.LastPullAt))

				if remote {
					u, err := a.api.Me(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Server:    %s <%s>\n", u.ID, u.Email)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "also ask the server who the token belongs to")
	return cmd
}

func orNever(s string) string {
	if s == "" {
		return "never"
	}
	return s
}

func newDestroyCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Log out and delete this user's local store",
		Long: `Log out and delete the active user's local store, including changes that
were never pushed. The command always asks for confirmation on the terminal.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer a.stores.Close(sess)

			owner := sess.Owner()
			if err := a.auth.Destroy(cmd.Context(), sess, a.confirmer()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Local store of %s removed.\n", owner)
			return nil
		},
	}
}

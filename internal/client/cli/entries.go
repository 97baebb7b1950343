package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/client/services"
	"github.com/dmitrijs2005/spendkeeper/internal/client/storage"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/dmitrijs2005/spendkeeper/internal/timex"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// entryFlags are the editable fields shared by add and edit.
type entryFlags struct {
	date        string
	amount      string
	main        string
	sub         string
	description string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "date as DD-MM-YYYY or YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.amount, "amount", "", "signed amount, negative for an expense")
	cmd.Flags().StringVar(&f.main, "main", "", "main category")
	cmd.Flags().StringVar(&f.sub, "sub", "", "sub category")
	cmd.Flags().StringVar(&f.description, "desc", "", "description")
}

// apply copies the flags the user set onto e.
func (f *entryFlags) apply(cmd *cobra.Command, e *models.Entry) error {
	if cmd.Flags().Changed("date") {
		d, err := parseDate(f.date)
		if err != nil {
			return err
		}
		e.Date = d
	}
	if cmd.Flags().Changed("amount") {
		amount, err := parseAmount(f.amount)
		if err != nil {
			return err
		}
		e.Amount = amount
	}
	if cmd.Flags().Changed("main") {
		e.MainCategory = f.main
	}
	if cmd.Flags().Changed("sub") {
		e.SubCategory = f.sub
	}
	if cmd.Flags().Changed("desc") {
		e.Description = f.description
	}
	return nil
}

// prompt asks for every field interactively.
func (f *entryFlags) prompt(a *App) error {
	questions := []struct {
		prompt string
		dst    *string
	}{
		{"Date (DD-MM-YYYY, empty for today)", &f.date},
		{"Description", &f.description},
		{"Amount (negative for an expense)", &f.amount},
		{"Main category", &f.main},
		{"Sub category", &f.sub},
	}
	for _, q := range questions {
		v, err := getSimpleText(a.reader, q.prompt, a.out)
		if err != nil {
			return err
		}
		*q.dst = v
	}
	return nil
}

func (f *entryFlags) entry() (*models.Entry, error) {
	e := &models.Entry{MainCategory: f.main, SubCategory: f.sub, Description: f.description}
	if f.date != "" {
		d, err := parseDate(f.date)
		if err != nil {
			return nil, err
		}
		e.Date = d
	}
	amount, err := parseAmount(f.amount)
	if err != nil {
		return nil, err
	}
	e.Amount = amount
	return e, nil
}

func parseDate(s string) (timex.Date, error) {
	d, err := timex.ParseDate(s)
	if err != nil {
		return timex.Date{}, WrapExitError(ExitCommandError, "bad --date", err)
	}
	return d, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, WrapExitError(ExitCommandError, "bad --amount", err)
	}
	if !dto.AmountFits(amount) {
		err := fmt.Errorf("%w: %s has more than %d decimal places", common.ErrValidation, s, dto.AmountScale)
		return decimal.Zero, WrapExitError(ExitCommandError, "bad --amount", err)
	}
	return amount, nil
}

func newAddCommand(a *App) *cobra.Command {
	var f entryFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an entry locally",
		Long: `Record an entry in the local store. It is pushed on the next sync.

Without --amount the fields are asked for interactively.`,
		Example: `  spendkeeper add --date 01-01-2025 --amount -50 --main Food --sub Lunch --desc "team lunch"`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				if !cmd.Flags().Changed("amount") {
					if err := f.prompt(a); err != nil {
						return err
					}
				}
				e, err := f.entry()
				if err != nil {
					return err
				}

				saved, err := a.entries.Put(cmd.Context(), sess, e)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Added %s.\n", saved.ID)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCommand(a *App) *cobra.Command {
	var f entryFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an entry",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				e, err := a.entries.GetByID(cmd.Context(), sess, args[0])
				if err != nil {
					return err
				}
				if e == nil {
					return fmt.Errorf("entry %s: %w", args[0], common.ErrorNotFound)
				}

				if err := f.apply(cmd, e); err != nil {
					return err
				}
				// let the store derive the next state
				e.SyncState = ""

				saved, err := a.entries.Put(cmd.Context(), sess, e)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Updated %s (%s).\n", saved.ID, saved.SyncState)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Mark entries deleted; the deletion is pushed on the next sync",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				for _, id := range args {
					if err := a.entries.Delete(cmd.Context(), sess, id); err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Deleted %s.\n", id)
				}
				return nil
			})
		},
	}
}

func newListCommand(a *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l", "ls"},
		Short:   "List entries, newest first",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				rows, err := a.entries.Query(cmd.Context(), sess, models.Filter{IncludeDeleted: all})
				if err != nil {
					return err
				}
				return printEntries(a.out, rows)
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "A", false, "include deleted entries")
	return cmd
}

func newShowCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				e, err := a.entries.GetByID(cmd.Context(), sess, args[0])
				if err != nil {
					return err
				}
				if e == nil {
					return fmt.Errorf("entry %s: %w", args[0], common.ErrorNotFound)
				}
				return printEntry(a.out, e)
			})
		},
	}
}

func newQueryCommand(a *App) *cobra.Command {
	var (
		f        models.Filter
		typ      string
		from, to string
	)

	cmd := &cobra.Command{
		Use:     "query",
		Short:   "List entries matching category, type and date range",
		Example: `  spendkeeper query --main Food --type expense --from 01-01-2025 --to 31-01-2025`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := models.ParseEntryType(typ)
			if err != nil {
				return WrapExitError(ExitCommandError, "bad --type", err)
			}
			f.Type = t
			if from != "" {
				if f.From, err = parseDate(from); err != nil {
					return err
				}
			}
			if to != "" {
				if f.To, err = parseDate(to); err != nil {
					return err
				}
			}

			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				rows, err := a.entries.Query(cmd.Context(), sess, f)
				if err != nil {
					return err
				}
				return printEntries(a.out, rows)
			})
		},
	}
	cmd.Flags().StringVar(&f.MainCategory, "main", "", "main category")
	cmd.Flags().StringVar(&f.SubCategory, "sub", "", "sub category")
	cmd.Flags().StringVar(&typ, "type", "all", "income, expense or all")
	cmd.Flags().StringVar(&from, "from", "", "first date, inclusive")
	cmd.Flags().StringVar(&to, "to", "", "last date, inclusive")
	cmd.Flags().BoolVarP(&f.IncludeDeleted, "all", "A", false, "include deleted entries")
	return cmd
}

func newStatsCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the ledger",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				st, err := a.entries.Stats(cmd.Context(), sess)
				if err != nil {
					return err
				}
				return printStats(a.out, st)
			})
		},
	}
}

func newClearCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every local entry, including unsynced ones",
		Long: `Remove every local entry of the active user, including changes that were
never pushed. The command always asks for confirmation on the terminal.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *storage.Session) error {
				n, err := a.entries.Clear(cmd.Context(), sess, a.confirmer())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed %d entries.\n", n)
				return nil
			})
		},
	}
}

var _ services.Confirmer = promptConfirmer{}

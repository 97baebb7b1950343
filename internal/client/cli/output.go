package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/spendkeeper/internal/client/client"
	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/client/services"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The command ran and failed
	ExitCommandError = 2 // Bad flags, arguments or configuration
)

// ExitError carries an exit code alongside the failure.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// hint turns well-known failures into an instruction for the user.
func hint(err error) string {
	switch {
	case errors.Is(err, common.ErrNoActiveUser):
		return "not logged in; run 'spendkeeper login'"
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, client.ErrUnauthorized):
		return "session expired or rejected; run 'spendkeeper login' (local entries are kept)"
	case errors.Is(err, client.ErrUnavailable):
		return "server unreachable; local changes are kept for the next sync"
	case errors.Is(err, common.ErrAborted):
		return "aborted, nothing changed"
	case errors.Is(err, common.ErrEntryDeleted):
		return "entry is deleted and can no longer be edited"
	}
	return ""
}

func printEntries(w io.Writer, rows []*models.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION\tSTATE")
	for _, e := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date.Display(), e.Amount.StringFixed(2), category(e), e.Description, e.SyncState)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d entries\n", len(rows))
	return err
}

func category(e *models.Entry) string {
	if e.SubCategory == "" {
		return e.MainCategory
	}
	return e.MainCategory + "/" + e.SubCategory
}

func printEntry(w io.Writer, e *models.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", e.ID)
	fmt.Fprintf(tw, "Date:\t%s\n", e.Date.Display())
	fmt.Fprintf(tw, "Description:\t%s\n", e.Description)
	fmt.Fprintf(tw, "Amount:\t%s\n", e.Amount.StringFixed(2))
	fmt.Fprintf(tw, "Main category:\t%s\n", e.MainCategory)
	fmt.Fprintf(tw, "Sub category:\t%s\n", e.SubCategory)
	fmt.Fprintf(tw, "State:\t%s\n", e.SyncState)
	fmt.Fprintf(tw, "Synced:\t%t\n", e.Synced)
	fmt.Fprintf(tw, "Created:\t%s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "Updated:\t%s\n", e.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	return tw.Flush()
}

func printStats(w io.Writer, s *models.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Entries:\t%d (active %d, deleted %d)\n", s.Total, s.Active, s.Deleted)
	fmt.Fprintf(tw, "Pending sync:\t%d\n", s.PendingSync)
	fmt.Fprintf(tw, "Income:\t%s\n", s.Income.StringFixed(2))
	fmt.Fprintf(tw, "Expenses:\t%s\n", s.Expenses.StringFixed(2))
	fmt.Fprintf(tw, "Balance:\t%s\n", s.Balance().StringFixed(2))

	states := make([]string, 0, len(models.States))
	for _, st := range models.States {
		states = append(states, fmt.Sprintf("%s=%d", st, s.States[st]))
	}
	fmt.Fprintf(tw, "States:\t%s\n", strings.Join(states, " "))

	for _, name := range slices.Sorted(maps.Keys(s.Categories)) {
		label := name
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(tw, "  %s\t%d\n", label, s.Categories[name])
	}
	return tw.Flush()
}

func printIDErrors(w io.Writer, errs []models.IDError) {
	for _, e := range errs {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
}

func printResult(w io.Writer, r services.Result) {
	if r.Skipped {
		fmt.Fprintln(w, "Nothing to push.")
		return
	}
	fmt.Fprintf(w, "Pushed %d, pulled %d", r.Pushed, r.Pulled)
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, ", %d failed:\n", len(r.Errors))
		printIDErrors(w, r.Errors)
		return
	}
	fmt.Fprintln(w, ".")
}

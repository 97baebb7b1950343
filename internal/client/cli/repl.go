package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// execFn runs one parsed command line.
type execFn func(ctx context.Context, args []string) error

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from reader, splits it into shell-style words and hands
// them to exec. Errors are reported and the loop goes on. The loop exits on
// EOF, on "exit"/"quit", or when ctx is canceled.
func runREPL(ctx context.Context, exec execFn, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(w, "spendkeeper%s> ", statusFn())

		line, readErr := reader.ReadString('\n')
		if line == "" && readErr != nil {
			fmt.Fprintln(w)
			return
		}

		args, err := splitArgs(line)
		switch {
		case err != nil:
			fmt.Fprintln(w, "Error:", err)
		case len(args) == 0:
		case args[0] == "exit" || args[0] == "quit":
			fmt.Fprintln(w, "Bye!")
			return
		case args[0] == "shell":
			fmt.Fprintln(w, "Already in the shell.")
		default:
			if err := exec(ctx, args); err != nil {
				fmt.Fprintln(w, "Error:", err)
				if h := hint(err); h != "" {
					fmt.Fprintln(w, " ", h)
				}
			}
		}

		if readErr != nil {
			return
		}
	}
}

var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits a line into words. Single and double quotes group words;
// a backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}

// inheritedFlags renders the global flags given to the shell so every
// command run inside it sees the same configuration.
func inheritedFlags(cmd *cobra.Command) []string {
	var out []string
	global := cmd.Root().PersistentFlags()
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if global.Lookup(f.Name) != nil {
			out = append(out, "--"+f.Name+"="+f.Value.String())
		}
	})
	return out
}

func newShellCommand(a *App, streams Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively",
		Long: `Read commands line by line, for example:

  spendkeeper> add --amount -4.5 --main Food --desc "coffee"
  spendkeeper> list
  spendkeeper> sync

Type 'help' for the command list and 'exit' to leave.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			inherited := inheritedFlags(cmd)
			sub := Streams{In: a.reader, Out: streams.Out, Err: streams.Err}

			exec := func(ctx context.Context, line []string) error {
				root := NewRootCommand(sub)
				root.SetArgs(append(append([]string{}, inherited...), line...))
				return root.ExecuteContext(ctx)
			}
			status := func() string {
				owner, err := a.stores.Recall()
				if err != nil || owner == "" {
					return ""
				}
				return " (" + owner + ")"
			}

			fmt.Fprintln(a.out, "spendkeeper shell (type 'help' for commands, 'exit' to leave)")
			runREPL(cmd.Context(), exec, status, a.reader, a.out)
			return nil
		},
	}
}

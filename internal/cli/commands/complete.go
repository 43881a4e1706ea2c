package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// CompleteOptions holds options for the complete command.
type CompleteOptions struct {
	Cursor int
	Input  string
	Limit  int
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand() *cobra.Command {
	opts := &CompleteOptions{}

	cmd := &cobra.Command{
		Use:   "complete [SQL]",
		Short: "Print completions for a SQL buffer",
		Long: `Print the completions for a cursor position in a SQL buffer.

The buffer comes from the argument, from --input, or from standard input.
The cursor is a character offset and defaults to the end of the buffer.`,
		Example: `  # Complete the end of a statement
  sqlcomplete complete "SELECT * FROM us"

  # Complete in the middle of a statement
  sqlcomplete complete "SELECT  FROM users" --cursor 7

  # Read the buffer from a file, print JSON
  sqlcomplete complete --input query.sql -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Cursor, "cursor", "c", -1, "Cursor offset in characters (default: end of buffer)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the buffer from file")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Show at most this many completions (0 for all)")

	return cmd
}

func runComplete(cmd *cobra.Command, args []string, opts *CompleteOptions) error {
	text, err := readBuffer(cmd, args, opts.Input)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	matches, err := cc.Session.Complete(text, opts.Cursor)
	if err != nil {
		return err
	}
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return cc.Renderer.Matches(matches)
}

// readBuffer returns the SQL from args, the input file or stdin. A single
// trailing newline from a file or stdin is dropped.
func readBuffer(cmd *cobra.Command, args []string, input string) (string, error) {
	switch {
	case len(args) > 0:
		return args[0], nil
	case input != "":
		data, err := os.ReadFile(input) //nolint:gosec // G304: path comes from user flag
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return trimNewline(string(data)), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return trimNewline(string(data)), nil
	}
}

func trimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

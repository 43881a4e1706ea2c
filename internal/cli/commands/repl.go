package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlcomplete/internal/cli/output"
	"github.com/leapstack-labs/sqlcomplete/internal/session"
	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

const (
	replPrompt         = "sqlcomplete> "
	replContinuePrompt = "        ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive SQL prompt with completion",
		Long: `Start an interactive SQL prompt with context-aware tab completion.

Statements are not executed. Each statement ending in a semicolon is
counted towards usage ranking, so names you type often rank higher.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := cc.Session.WatchCasing(ctx); err != nil {
		cc.Logger.Warn("failed to watch casing file", "error", err)
	}

	// History lives next to the usage database
	historyFile := ""
	if cc.Cfg.UsagePath != "" {
		historyFile = filepath.Join(filepath.Dir(cc.Cfg.UsagePath), "history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    &sessionCompleter{session: cc.Session},
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cc.Renderer
	r.Printf("sqlcomplete (scope: %s)\n", cc.Session.Scope)
	r.Println("Type .help for commands, .quit to exit")
	r.Println()

	return replLoop(ctx, rl, cc.Session, r)
}

// lineReader is the part of readline the loop uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

func replLoop(ctx context.Context, rl lineReader, sess *session.Session, r *output.Renderer) error {
	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, sess, r, line); quit {
				return nil
			}
			continue
		}

		// Meta-commands complete but are not run
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(line, `\`) {
			r.Println(r.Muted("meta-commands are completed, not executed"))
			continue
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString("\n")
			rl.SetPrompt(replContinuePrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		statement := multiLineBuffer.String()
		multiLineBuffer.Reset()

		if err := sess.Record(ctx, statement); err != nil {
			r.Error(fmt.Sprintf("failed to record usage: %v", err))
		}
	}
}

// handleDotCommand runs a dot-command and reports whether the REPL should exit.
func handleDotCommand(ctx context.Context, sess *session.Session, r *output.Renderer, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.Writer())

	case ".tables", ".views":
		kind := catalog.KindTables
		if command == ".views" {
			kind = catalog.KindViews
		}
		sess.Catalog(func(c *catalog.Catalog) {
			r.Table([]string{"Schema", "Name", "Columns"}, relationRows(c, kind))
		})

	case ".refresh":
		if err := sess.Refresh(ctx); err != nil {
			r.Error(fmt.Sprintf("refresh failed: %v", err))
			return false
		}
		r.Success("catalog reloaded")

	case ".usage":
		renderCounts(r, sess.Counts(), 10)

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List tables in the catalog
  .views          List views in the catalog
  .refresh        Reload the catalog
  .usage          Show the most used keywords and names
  .quit / .exit   Exit the REPL

Tips:
  - Press Tab to complete; completions follow the statement context
  - Statements end with a semicolon (;) and count towards usage ranking
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func relationRows(c *catalog.Catalog, kind catalog.Kind) [][]string {
	var rows [][]string
	for _, schema := range c.Schemas() {
		for _, rel := range c.Relations(kind, schema) {
			rows = append(rows, []string{
				catalog.UnescapeName(schema),
				catalog.UnescapeName(rel.Name),
				fmt.Sprintf("%d", len(rel.Columns())),
			})
		}
	}
	return rows
}

// sessionCompleter adapts a session to readline's completion interface.
// Readline only appends text, so matches that do not extend the typed
// word are skipped.
type sessionCompleter struct {
	session *session.Session
}

// Do implements readline.AutoCompleter.
func (c *sessionCompleter) Do(line []rune, pos int) ([][]rune, int) {
	matches, err := c.session.Complete(string(line), pos)
	if err != nil || len(matches) == 0 {
		return nil, 0
	}

	offset := -matches[0].StartPosition
	if offset < 0 || offset > pos {
		return nil, 0
	}
	typed := strings.ToLower(string(line[pos-offset : pos]))

	var candidates [][]rune
	seen := make(map[string]struct{})
	for _, m := range matches {
		if -m.StartPosition != offset || !strings.HasPrefix(strings.ToLower(m.Text), typed) {
			continue
		}
		rest := []rune(m.Text)[utf8.RuneCountInString(typed):]
		if _, dup := seen[string(rest)]; dup {
			continue
		}
		seen[string(rest)] = struct{}{}
		candidates = append(candidates, rest)
	}
	return candidates, offset
}

package commands

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlcomplete/internal/cli/output"
	"github.com/leapstack-labs/sqlcomplete/internal/usage"
	"github.com/leapstack-labs/sqlcomplete/pkg/prioritize"
)

// NewUsageCommand creates the usage command.
func NewUsageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect or reset usage counts",
		Long: `Inspect or reset the keyword and name counts used to rank completions.

Keyword counts are shared by every target. Name counts are kept per target.`,
	}

	cmd.AddCommand(newUsageShowCommand())
	cmd.AddCommand(newUsageResetCommand())

	return cmd
}

// UsageCount is one counted keyword or name.
type UsageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UsageOutput is the JSON form of usage show.
type UsageOutput struct {
	Scope    string       `json:"scope"`
	Scopes   []string     `json:"scopes"`
	Keywords []UsageCount `json:"keywords"`
	Names    []UsageCount `json:"names"`
}

func openUsageStore(cmd *cobra.Command, cc *CommandContext) (*usage.Store, error) {
	if cc.Cfg.UsagePath == "" {
		return nil, fmt.Errorf("usage tracking is disabled (usage_path is empty)")
	}
	return usage.Open(cmd.Context(), cc.Cfg.UsagePath, cc.Logger)
}

func newUsageShowCommand() *cobra.Command {
	var (
		scope string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the most used keywords and names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutSession(cmd)
			store, err := openUsageStore(cmd, cc)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if scope == "" {
				scope = cc.Cfg.Target.Scope()
			}
			counts, err := store.Load(cmd.Context(), scope)
			if err != nil {
				return err
			}
			scopes, err := store.Scopes(cmd.Context())
			if err != nil {
				return err
			}

			out := UsageOutput{
				Scope:    scope,
				Scopes:   scopes,
				Keywords: topCounts(counts.Keywords, limit),
				Names:    topCounts(counts.Names, limit),
			}
			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(out)
			}
			cc.Renderer.Header(1, "Usage")
			cc.Renderer.Println(output.FormatKeyValue("Scope", scope))
			cc.Renderer.Println()
			renderCounts(cc.Renderer, counts, limit)
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "Name count scope (default: the configured target)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many entries per table")

	return cmd
}

func newUsageResetCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget usage counts",
		Long: `Forget the name counts of the configured target.

With --all, keyword counts and the name counts of every target are cleared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutSession(cmd)
			store, err := openUsageStore(cmd, cc)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			scope := cc.Cfg.Target.Scope()
			if all {
				scope = ""
			}
			if err := store.Reset(cmd.Context(), scope); err != nil {
				return err
			}
			if all {
				cc.Renderer.Success("all usage counts cleared")
			} else {
				cc.Renderer.Success(fmt.Sprintf("name counts cleared for %s", scope))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear every count")

	return cmd
}

// topCounts returns the limit largest counts, ties by name. A non-positive
// limit keeps every entry.
func topCounts(counts map[string]int, limit int) []UsageCount {
	out := make([]UsageCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, UsageCount{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b UsageCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func renderCounts(r *output.Renderer, counts prioritize.Counts, limit int) {
	for _, section := range []struct {
		title  string
		counts map[string]int
	}{
		{"Keywords", counts.Keywords},
		{"Names", counts.Names},
	} {
		r.Header(2, section.title)
		top := topCounts(section.counts, limit)
		if len(top) == 0 {
			r.Println(r.Muted("(none)"))
			continue
		}
		rows := make([][]string, 0, len(top))
		for _, c := range top {
			rows = append(rows, []string{c.Name, strconv.Itoa(c.Count)})
		}
		r.Table([]string{"Name", "Count"}, rows)
	}
}

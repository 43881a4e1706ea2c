package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/sqlcomplete/internal/cli/output"
	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the completion catalog",
		Long: `Inspect the catalog completions are drawn from.

The catalog is built from the catalog file and the target database.`,
	}

	cmd.AddCommand(newCatalogDumpCommand())
	cmd.AddCommand(newCatalogStatsCommand())

	return cmd
}

func newCatalogDumpCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the catalog as a YAML fixture",
		Long: `Write the catalog as a YAML fixture.

The fixture can be used as catalog_file to complete offline.`,
		Example: `  # Snapshot a live database for offline completion
  sqlcomplete catalog dump --target-type postgres --dsn "$DATABASE_URL" --out catalog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cc.Renderer.Writer()
			if out != "" {
				f, err := os.Create(out) //nolint:gosec // G304: path comes from user flag
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			cc.Session.Catalog(func(c *catalog.Catalog) {
				err = catalog.WriteFixture(w, c)
			})
			if err != nil {
				return err
			}
			if out != "" {
				cc.Renderer.Success(fmt.Sprintf("catalog written to %s", out))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write to file instead of stdout")

	return cmd
}

// SchemaStats counts the objects of one schema.
type SchemaStats struct {
	Schema    string `json:"schema"`
	Tables    int    `json:"tables"`
	Views     int    `json:"views"`
	Functions int    `json:"functions"`
	Datatypes int    `json:"datatypes"`
}

func newCatalogStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count catalog objects per schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var stats []SchemaStats
			cc.Session.Catalog(func(c *catalog.Catalog) {
				stats = catalogStats(c)
			})
			return renderCatalogStats(cc.Renderer, stats)
		},
	}
}

func catalogStats(c *catalog.Catalog) []SchemaStats {
	stats := make([]SchemaStats, 0, len(c.Schemas()))
	for _, schema := range c.Schemas() {
		stats = append(stats, SchemaStats{
			Schema:    catalog.UnescapeName(schema),
			Tables:    len(c.Relations(catalog.KindTables, schema)),
			Views:     len(c.Relations(catalog.KindViews, schema)),
			Functions: len(c.FunctionNames(schema)),
			Datatypes: len(c.DatatypeNames(schema)),
		})
	}
	return stats
}

func renderCatalogStats(r *output.Renderer, stats []SchemaStats) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(stats)
	}

	titleCaser := cases.Title(language.English)
	header := []string{"Schema"}
	for _, kind := range catalog.Kinds {
		header = append(header, titleCaser.String(string(kind)))
	}

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Schema,
			strconv.Itoa(s.Tables),
			strconv.Itoa(s.Views),
			strconv.Itoa(s.Functions),
			strconv.Itoa(s.Datatypes),
		})
	}
	r.Table(header, rows)
	return nil
}

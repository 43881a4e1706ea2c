package output

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlcomplete/pkg/complete"
)

// MatchView is the JSON form of a completion.
type MatchView struct {
	Text          string `json:"text"`
	Display       string `json:"display"`
	DisplayMeta   string `json:"display_meta"`
	StartPosition int    `json:"start_position"`
}

// NewMatchViews converts matches for JSON output. The result is never nil.
func NewMatchViews(matches []complete.Match) []MatchView {
	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, MatchView{
			Text:          m.Text,
			Display:       m.Display,
			DisplayMeta:   m.DisplayMeta,
			StartPosition: m.StartPosition,
		})
	}
	return views
}

// Matches renders completions in the effective mode.
func (r *Renderer) Matches(matches []complete.Match) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(NewMatchViews(matches))
	case ModeMarkdown:
		rows := make([][]string, 0, len(matches))
		for _, m := range matches {
			rows = append(rows, []string{m.Display, m.DisplayMeta})
		}
		r.Table([]string{"Completion", "Meta"}, rows)
		return nil
	default:
		if len(matches) == 0 {
			r.Println(r.Muted("(no completions)"))
			return nil
		}
		rows := make([][]string, 0, len(matches))
		for _, m := range matches {
			text := m.Display
			if m.DisplayMeta == "keyword" {
				text = r.styles.Keyword.Render(text)
			}
			rows = append(rows, []string{text, r.styles.Meta.Render(m.DisplayMeta)})
		}
		r.Table([]string{"Completion", "Meta"}, rows)
		return nil
	}
}

// Table renders rows under header: a light box table in text mode and a
// pipe table otherwise.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeText {
		t.Render()
		return
	}
	t.RenderMarkdown()
}

package tui

import (
	"strings"

	"github.com/axeflow/axeflow/internal/adapters/outbound/gitinfo"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderHistory formats run history as a table, oldest first, with the change in
// violations since the previous run of the same page.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No run history found.") + "\n"
	}

	t := table.NewWriter()
	t.SetTitle("Run History")
	t.AppendHeader(table.Row{"TIME", "COMMIT", "PAGE", "STATUS", "STEPS", "VIOLATIONS", "DELTA"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "PAGE", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "STEPS", Align: text.AlignRight},
		{Name: "VIOLATIONS", Align: text.AlignRight},
		{Name: "DELTA", Align: text.AlignRight},
	})
	t.SetStyle(table.StyleRounded)

	last := make(map[string]int)
	for _, e := range entries {
		hash := gitinfo.Short(e.CommitHash)
		if hash == "" {
			hash = "·······"
		}
		ts := e.Timestamp
		if len(ts) > 16 {
			ts = strings.Replace(ts[:16], "T", " ", 1)
		}

		delta := ""
		if prev, ok := last[e.Page]; ok {
			switch d := e.Violations - prev; {
			case d > 0:
				delta = text.FgRed.Sprintf("↑%d", d)
			case d < 0:
				delta = text.FgGreen.Sprintf("↓%d", -d)
			default:
				delta = "="
			}
		}
		last[e.Page] = e.Violations

		t.AppendRow(table.Row{ts, hash, e.Page, strings.ToUpper(string(e.Status)), e.Steps, e.Violations, delta})
	}

	return t.Render() + "\n"
}

package tui

import (
	"path/filepath"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderFlows lists flow definitions with their step names.
func RenderFlows(flows []domain.Flow) string {
	if len(flows) == 0 {
		return "  " + dimStyle.Render("No flows found.") + "\n"
	}

	t := table.NewWriter()
	t.SetTitle("Flows")
	t.AppendHeader(table.Row{"PAGE", "STEPS", "FILE", "DESCRIPTION"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "STEPS", Align: text.AlignRight},
		{Name: "DESCRIPTION", WidthMax: 48, WidthMaxEnforcer: text.WrapSoft},
	})
	t.SetStyle(table.StyleRounded)

	for _, f := range flows {
		t.AppendRow(table.Row{f.Page, len(f.Steps), filepath.Base(f.Source), f.Description})
	}
	return t.Render() + "\n"
}

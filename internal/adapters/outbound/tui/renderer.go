package tui

import (
	"fmt"
	"strings"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// ── warm palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	impactColors = map[domain.Impact]lipgloss.Color{
		domain.ImpactCritical: danger,
		domain.ImpactSerious:  lipgloss.Color("#FB923C"), // orange
		domain.ImpactModerate: warning,
		domain.ImpactMinor:    info,
	}

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	pageNameStyle = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderRunSummary renders the outcome of every page run in one invocation.
func RenderRunSummary(outcomes []*domain.RunOutcome) string {
	var b strings.Builder

	pages := make([]*domain.RunOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o != nil {
			pages = append(pages, o)
		}
	}

	// ── Header ──
	passed, issues, failed, total := tally(pages)
	title := headerStyle.Render("axeflow")
	subtitle := dimStyle.Render("Accessibility run")
	totals := fmt.Sprintf("%d page(s)  %d violation(s)", len(pages), total)
	totalsStyled := lipgloss.NewStyle().Bold(true).Foreground(totalColor(total, failed)).Render(totals)
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + totalsStyled))
	b.WriteString("\n\n")

	// ── Pages ──
	for _, o := range pages {
		renderOutcome(&b, o)
	}

	b.WriteString("\n")
	b.WriteString("  " + separatorLine)
	b.WriteString("\n\n")

	b.WriteString("  ")
	b.WriteString(passStyle.Render(fmt.Sprintf("%d passed", passed)))
	b.WriteString("  ")
	b.WriteString(warnStyle.Render(fmt.Sprintf("%d with issues", issues)))
	b.WriteString("  ")
	b.WriteString(failStyle.Render(fmt.Sprintf("%d failed", failed)))
	b.WriteString("\n\n")
	return b.String()
}

func renderOutcome(b *strings.Builder, o *domain.RunOutcome) {
	name := pageNameStyle.Render(padRight(o.Page, 24))
	steps := dimStyle.Render(fmt.Sprintf("%d step(s)", o.Steps))

	fmt.Fprintf(b, "  %s %s %s  %s\n", statusIcon(o.Status), name, impactLine(o.Impacts, o.Violations), steps)

	if o.Status == domain.RunFailed && o.Error != "" {
		msg := o.Error
		if o.FailedStep > 0 {
			msg = fmt.Sprintf("step %d: %s", o.FailedStep, msg)
		}
		fmt.Fprintf(b, "      %s\n", failStyle.Render(msg))
	}
	if o.Artifact != "" {
		fmt.Fprintf(b, "      %s\n", fileStyle.Render(o.Artifact))
	}
}

func statusIcon(s domain.RunStatus) string {
	switch s {
	case domain.RunPassed:
		return passStyle.Render("●")
	case domain.RunIssues:
		return warnStyle.Render("●")
	default:
		return failStyle.Render("✕")
	}
}

// impactLine shows per-impact counts, most severe first.
func impactLine(impacts map[domain.Impact]int, total int) string {
	if total == 0 {
		return passStyle.Render(padRight("no issues", 28))
	}
	var parts []string
	for i := len(domain.ValidImpacts) - 1; i >= 0; i-- {
		im := domain.ValidImpacts[i]
		if n := impacts[im]; n > 0 {
			parts = append(parts, impactStyle(im).Render(fmt.Sprintf("%d %s", n, im)))
		}
	}
	return strings.Join(parts, " ")
}

func impactStyle(im domain.Impact) lipgloss.Style {
	if c, ok := impactColors[im]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(fg)
}

// RenderPageRun lists a page run's violations step by step.
func RenderPageRun(run *domain.PageRun) string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render(run.Name) + "\n")
	b.WriteString("  " + separatorLine + "\n")

	if run.TotalViolations() == 0 {
		b.WriteString("  " + passStyle.Render("No accessibility issues found.") + "\n")
		return b.String()
	}

	for _, s := range run.Steps {
		if len(s.Violations) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n  %s %s\n", titleStyle.Render(fmt.Sprintf("Step %d", s.Step)), dimStyle.Render(s.URL))
		for _, v := range s.Violations {
			tag := impactStyle(v.Impact).Bold(true).Render(padRight(string(v.Impact), 9))
			fmt.Fprintf(&b, "    %s %s\n", tag, v.Help)
			fmt.Fprintf(&b, "              %s\n", fileStyle.Render(v.Selector))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func tally(outcomes []*domain.RunOutcome) (passed, issues, failed, violations int) {
	for _, o := range outcomes {
		switch o.Status {
		case domain.RunPassed:
			passed++
		case domain.RunIssues:
			issues++
		default:
			failed++
		}
		violations += o.Violations
	}
	return
}

func totalColor(violations, failed int) lipgloss.Color {
	switch {
	case failed > 0:
		return danger
	case violations > 0:
		return warning
	default:
		return success
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

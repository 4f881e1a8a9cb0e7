package tui_test

import (
	"strings"
	"testing"

	"github.com/axeflow/axeflow/internal/adapters/outbound/tui"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/stretchr/testify/assert"
)

func sampleOutcomes() []*domain.RunOutcome {
	return []*domain.RunOutcome{
		{Page: "tepp", Status: domain.RunIssues, Steps: 4, Violations: 3,
			Impacts:  map[domain.Impact]int{domain.ImpactCritical: 1, domain.ImpactMinor: 2},
			Artifact: "reports/tepp.csv"},
		{Page: "property-search", Status: domain.RunPassed, Steps: 2},
		{Page: "dog-registration", Status: domain.RunFailed, Steps: 1, Violations: 1,
			Impacts:    map[domain.Impact]int{domain.ImpactSerious: 1},
			FailedStep: 2, Error: "click test_id=next: element not found"},
		nil,
	}
}

func TestRenderRunSummary_ContainsPages(t *testing.T) {
	output := tui.RenderRunSummary(sampleOutcomes())
	assert.Contains(t, output, "axeflow")
	assert.Contains(t, output, "tepp")
	assert.Contains(t, output, "property-search")
	assert.Contains(t, output, "dog-registration")
}

func TestRenderRunSummary_Totals(t *testing.T) {
	output := tui.RenderRunSummary(sampleOutcomes())
	assert.Contains(t, output, "3 page(s)  4 violation(s)")
	assert.Contains(t, output, "1 passed")
	assert.Contains(t, output, "1 with issues")
	assert.Contains(t, output, "1 failed")
}

func TestRenderRunSummary_ImpactsMostSevereFirst(t *testing.T) {
	output := tui.RenderRunSummary(sampleOutcomes())
	assert.Contains(t, output, "1 critical")
	assert.Contains(t, output, "2 minor")
	assert.Less(t, strings.Index(output, "1 critical"), strings.Index(output, "2 minor"))
	assert.Contains(t, output, "no issues")
}

func TestRenderRunSummary_FailureAndArtifact(t *testing.T) {
	output := tui.RenderRunSummary(sampleOutcomes())
	assert.Contains(t, output, "step 2: click test_id=next: element not found")
	assert.Contains(t, output, "reports/tepp.csv")
	assert.Contains(t, output, "✕")
}

func TestRenderPageRun(t *testing.T) {
	run := &domain.PageRun{Name: "tepp", Steps: []domain.StepResult{
		{Step: 1, URL: "example.org/a", Violations: []domain.Violation{
			{Impact: domain.ImpactSerious, Help: "Elements must have sufficient color contrast", Selector: ".btn"},
		}},
		{Step: 2, URL: "example.org/b"},
	}}
	output := tui.RenderPageRun(run)
	assert.Contains(t, output, "Step 1")
	assert.NotContains(t, output, "Step 2")
	assert.Contains(t, output, "sufficient color contrast")
	assert.Contains(t, output, ".btn")

	clean := tui.RenderPageRun(&domain.PageRun{Name: "home"})
	assert.Contains(t, clean, "No accessibility issues found.")
}

func TestRenderHistory(t *testing.T) {
	output := tui.RenderHistory([]domain.RunEntry{
		{Timestamp: "2026-02-25T10:00:00Z", CommitHash: "abc1234def", Page: "tepp", Status: domain.RunIssues, Steps: 4, Violations: 7},
		{Timestamp: "2026-02-26T10:00:00Z", Page: "dogs", Status: domain.RunPassed, Steps: 2},
		{Timestamp: "2026-02-27T10:00:00Z", CommitHash: "fff0000aaa", Page: "tepp", Status: domain.RunIssues, Steps: 4, Violations: 3},
	})
	assert.Contains(t, output, "Run History")
	assert.Contains(t, output, "2026-02-25 10:00")
	assert.Contains(t, output, "abc1234")
	assert.NotContains(t, output, "abc1234def")
	assert.Contains(t, output, "·······")
	assert.Contains(t, output, "ISSUES")
	assert.Contains(t, output, "↓4")
}

func TestRenderHistory_Empty(t *testing.T) {
	assert.Contains(t, tui.RenderHistory(nil), "No run history found.")
}

func TestRenderFlows(t *testing.T) {
	output := tui.RenderFlows([]domain.Flow{
		{Page: "tepp", Description: "Outdoor event booking", Source: "/p/flows/tepp.yaml",
			Steps: []domain.StepSpec{{Name: "landing"}, {Name: "details"}}},
	})
	assert.Contains(t, output, "Flows")
	assert.Contains(t, output, "tepp.yaml")
	assert.Contains(t, output, "Outdoor event booking")
}

func TestRenderFlows_Empty(t *testing.T) {
	assert.Contains(t, tui.RenderFlows(nil), "No flows found.")
}

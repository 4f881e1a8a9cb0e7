package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axeflow/axeflow/internal/application"
	"github.com/axeflow/axeflow/internal/domain"
)

func gotoFlow(page string, urls ...string) domain.Flow {
	f := domain.Flow{Page: page}
	for i, u := range urls {
		f.Steps = append(f.Steps, domain.StepSpec{
			Name:    fmt.Sprintf("step %d", i+1),
			Actions: []domain.Action{{Kind: domain.ActionGoto, Value: u}},
		})
	}
	return f
}

func TestRunService_RunFlowsConcurrently(t *testing.T) {
	browser := &fakeBrowser{}
	hist := &memHistory{}
	w := newMemWriter()
	scanner := byURL(map[string]*domain.ScanResult{
		"https://example.org/a/1": rules("label"),
		"https://example.org/c/2": rules("region", "list"),
	})
	svc := application.NewRunService(browser, scanner, w, hist, staticGit("abc1234"), nil, nil)

	flows := []domain.Flow{
		gotoFlow("alpha", "https://example.org/a/1", "https://example.org/a/2"),
		gotoFlow("bravo", "https://example.org/b/1"),
		gotoFlow("charlie", "https://example.org/c/1", "https://example.org/c/2"),
	}
	outcomes, err := svc.RunFlows(context.Background(), t.TempDir(), flows, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, "alpha", outcomes[0].Page)
	assert.Equal(t, 1, outcomes[0].Violations)
	assert.Equal(t, domain.RunPassed, outcomes[1].Status)
	assert.Empty(t, outcomes[1].Artifact)
	assert.Equal(t, 2, outcomes[2].Violations)

	for _, name := range []string{"alpha", "bravo", "charlie"} {
		_, ok := svc.Results().Get(name)
		assert.True(t, ok, name)
	}

	pages := browser.opened()
	require.Len(t, pages, 3)
	for _, p := range pages {
		assert.True(t, p.closed)
	}

	entries, _ := hist.Load("")
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, "abc1234", e.CommitHash)
		assert.NotEmpty(t, e.RunID)
		assert.NotEmpty(t, e.Timestamp)
	}
}

func TestRunService_DuplicatePageNames(t *testing.T) {
	svc := application.NewRunService(&fakeBrowser{}, byURL(nil), newMemWriter(), nil, nil, nil, nil)
	_, err := svc.RunFlows(context.Background(), t.TempDir(), []domain.Flow{
		gotoFlow("tepp", "https://example.org/"),
		gotoFlow("tepp", "https://example.org/other"),
	}, 2)
	assert.ErrorContains(t, err, "duplicate page name")
}

func TestRunService_PageNamesSharingAReportName(t *testing.T) {
	browser := &fakeBrowser{}
	writer := newMemWriter()
	svc := application.NewRunService(browser, byURL(nil), writer, nil, nil, nil, nil)

	_, err := svc.RunFlows(context.Background(), t.TempDir(), []domain.Flow{
		gotoFlow("OutdoorEvents", "https://example.org/a"),
		gotoFlow("outdoor events", "https://example.org/b"),
	}, 2)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"OutdoorEvents" and "outdoor events"`)
	assert.Contains(t, err.Error(), `"outdoor-events"`)
	assert.Empty(t, browser.opened(), "no flow may start")
	assert.Zero(t, writer.writes)
}

func TestRunService_OneFailureDoesNotStopOthers(t *testing.T) {
	browser := &fakeBrowser{doErr: func(a domain.Action) error {
		if a.Value == "https://example.org/broken" {
			return errors.New("navigation timeout")
		}
		return nil
	}}
	hist := &memHistory{}
	svc := application.NewRunService(browser, byURL(nil), newMemWriter(), hist, staticGit(""), nil, nil)

	outcomes, err := svc.RunFlows(context.Background(), t.TempDir(), []domain.Flow{
		gotoFlow("good", "https://example.org/ok"),
		gotoFlow("bad", "https://example.org/ok", "https://example.org/broken"),
	}, 1)
	require.Error(t, err)

	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "bad", stepErr.Page)
	assert.Equal(t, 2, stepErr.Step)

	assert.Equal(t, domain.RunPassed, outcomes[0].Status)
	assert.Equal(t, domain.RunFailed, outcomes[1].Status)

	entries, _ := hist.Load("")
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Empty(t, e.CommitHash, "git errors leave the hash blank")
	}
}

func TestRunService_InvalidFlow(t *testing.T) {
	svc := application.NewRunService(&fakeBrowser{}, byURL(nil), newMemWriter(), nil, nil, nil, nil)
	outcome, err := svc.RunFlow(context.Background(), domain.Flow{Page: "empty"})
	require.Error(t, err)
	assert.Equal(t, domain.RunFailed, outcome.Status)
}

func TestRunService_BrowserUnavailable(t *testing.T) {
	browser := &fakeBrowser{newErr: errors.New("chrome not found")}
	svc := application.NewRunService(browser, byURL(nil), newMemWriter(), nil, nil, nil, nil)

	outcome, err := svc.RunFlow(context.Background(), gotoFlow("home", "https://example.org/"))
	assert.ErrorContains(t, err, "chrome not found")
	assert.Equal(t, domain.RunFailed, outcome.Status)
}

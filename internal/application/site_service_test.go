package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axeflow/axeflow/internal/application"
	"github.com/axeflow/axeflow/internal/domain"
)

type memSummary struct {
	path string
	run  *domain.PageRun
}

func (m *memSummary) WriteSummary(path string, run *domain.PageRun) error {
	m.path = path
	m.run = run
	return nil
}

func site(name string, retries int) domain.SiteConfig {
	return domain.SiteConfig{
		URLFile:     "urls.txt",
		TestName:    name,
		Parallelism: 3,
		Retries:     &retries,
		SummaryCSV:  "summary.csv",
	}
}

func TestSiteService_ScanSite(t *testing.T) {
	browser := &fakeBrowser{}
	w := newMemWriter()
	summary := &memSummary{}
	scanner := byURL(map[string]*domain.ScanResult{
		"https://example.org/a": rules("label"),
		"https://example.org/c": rules("region", "list"),
	})
	svc := application.NewSiteService(browser, scanner, w, summary, nil).WithRetryDelay(0)

	urls := []string{"https://example.org/a", "https://example.org/b", "https://example.org/c"}
	outcome, err := svc.ScanSite(context.Background(), site("wellington", 0), urls)
	require.NoError(t, err)

	assert.Equal(t, domain.RunIssues, outcome.Status)
	assert.Equal(t, 3, outcome.Steps)
	assert.Equal(t, 3, outcome.Violations)
	assert.Equal(t, "mem://wellington", outcome.Artifact)

	run, ok := svc.Results().Get("wellington")
	require.True(t, ok)
	require.Len(t, run.Steps, 3)
	for i, s := range run.Steps {
		assert.Equal(t, i+1, s.Step)
	}
	assert.Equal(t, "example.org/c", run.Steps[2].URL, "url n is step n regardless of completion order")

	assert.Equal(t, "summary.csv", summary.path)
	require.NotNil(t, summary.run)
	assert.Len(t, summary.run.Steps, 3)
}

func TestSiteService_RetriesThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	browser := &fakeBrowser{doErr: func(domain.Action) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	}}
	scanner := byURL(map[string]*domain.ScanResult{"https://example.org/a": rules("label")})
	svc := application.NewSiteService(browser, scanner, newMemWriter(), nil, nil).WithRetryDelay(time.Millisecond)

	outcome, err := svc.ScanSite(context.Background(), site("flaky", 2), []string{"https://example.org/a"})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, outcome.Violations)
	assert.Len(t, browser.opened(), 3, "fresh page per attempt")
}

func TestSiteService_ExhaustedRetriesRecordEmpty(t *testing.T) {
	browser := &fakeBrowser{doErr: func(a domain.Action) error {
		if a.Value == "https://example.org/down" {
			return errors.New("timeout")
		}
		return nil
	}}
	scanner := byURL(map[string]*domain.ScanResult{"https://example.org/up": rules("label")})
	svc := application.NewSiteService(browser, scanner, newMemWriter(), nil, nil).WithRetryDelay(0)

	outcome, err := svc.ScanSite(context.Background(), site("partial", 1), []string{
		"https://example.org/up", "https://example.org/down",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Steps)
	assert.Equal(t, 1, outcome.Violations)

	run, _ := svc.Results().Get("partial")
	assert.Equal(t, "example.org/down", run.Steps[1].URL)
	assert.Empty(t, run.Steps[1].Violations)
}

func TestSiteService_CleanSiteHasNoArtifact(t *testing.T) {
	w := newMemWriter()
	svc := application.NewSiteService(&fakeBrowser{}, byURL(nil), w, nil, nil)

	outcome, err := svc.ScanSite(context.Background(), site("clean", 0), []string{"https://example.org/"})
	require.NoError(t, err)
	assert.Equal(t, domain.RunPassed, outcome.Status)
	assert.Empty(t, outcome.Artifact)
	assert.Zero(t, w.writes)
}

func TestSiteService_CanceledDuringRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	browser := &fakeBrowser{doErr: func(domain.Action) error {
		cancel()
		return errors.New("boom")
	}}
	svc := application.NewSiteService(browser, byURL(nil), newMemWriter(), nil, nil).WithRetryDelay(time.Hour)

	outcome, err := svc.ScanSite(ctx, site("canceled", 2), []string{"https://example.org/"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.RunFailed, outcome.Status)
}

func TestSiteService_AbortFlushesRecordedURLs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	browser := &fakeBrowser{doErr: func(a domain.Action) error {
		if a.Value == "https://example.org/b" {
			cancel()
			return errors.New("connection reset")
		}
		return nil
	}}
	w := newMemWriter()
	summary := &memSummary{}
	scanner := byURL(map[string]*domain.ScanResult{
		"https://example.org/a": rules("label"),
	})
	cfg := site("wellington", 1)
	cfg.Parallelism = 1
	svc := application.NewSiteService(browser, scanner, w, summary, nil).WithRetryDelay(time.Hour)

	outcome, err := svc.ScanSite(ctx, cfg, []string{"https://example.org/a", "https://example.org/b"})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.RunFailed, outcome.Status)
	assert.Equal(t, "mem://wellington", outcome.Artifact)
	assert.Equal(t, 1, outcome.Violations)

	report, ok := w.report("wellington")
	require.True(t, ok, "recorded URLs must reach the report")
	require.Len(t, report.Steps, 1)
	assert.Equal(t, 1, report.Steps[0].Step)
	require.Len(t, report.Steps[0].Violations, 1)
	assert.Equal(t, "label", report.Steps[0].Violations[0].RuleID)

	assert.Empty(t, summary.path, "summary is only written for complete scans")
}

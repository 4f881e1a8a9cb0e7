package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/axeflow/axeflow/internal/domain"
)

type fakePage struct {
	mu      sync.Mutex
	url     string
	actions []domain.Action
	doErr   func(domain.Action) error
	closed  bool
}

func newFakePage(url string) *fakePage {
	return &fakePage{url: url}
}

func (p *fakePage) Do(_ context.Context, a domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doErr != nil {
		if err := p.doErr(a); err != nil {
			return err
		}
	}
	p.actions = append(p.actions, a)
	if a.Kind == domain.ActionGoto {
		p.url = a.Value
	}
	return nil
}

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) WaitStable(context.Context) error { return nil }

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// scannerFunc adapts a function to domain.Scanner.
type scannerFunc func(ctx context.Context, page domain.Page) (*domain.ScanResult, error)

func (f scannerFunc) Scan(ctx context.Context, page domain.Page) (*domain.ScanResult, error) {
	return f(ctx, page)
}

// byURL scans by looking up the page's current address in results; unknown
// addresses are clean.
func byURL(results map[string]*domain.ScanResult) domain.Scanner {
	return scannerFunc(func(ctx context.Context, page domain.Page) (*domain.ScanResult, error) {
		u, err := page.URL(ctx)
		if err != nil {
			return nil, err
		}
		if r, ok := results[u]; ok {
			return clone(r), nil
		}
		return &domain.ScanResult{}, nil
	})
}

func clone(r *domain.ScanResult) *domain.ScanResult {
	out := &domain.ScanResult{URL: r.URL}
	out.Violations = append(out.Violations, r.Violations...)
	return out
}

// rules builds a scan result with one single-node violation per rule id.
func rules(ids ...string) *domain.ScanResult {
	r := &domain.ScanResult{}
	for _, id := range ids {
		r.Violations = append(r.Violations, domain.RuleViolation{
			ID:          id,
			Impact:      "serious",
			Description: id + " description",
			Help:        id + " help",
			HelpURL:     "https://dequeuniversity.com/rules/axe/4.10/" + id,
			Nodes:       []domain.Node{{HTML: "<div>" + id + "</div>", Target: []string{"#" + id}}},
		})
	}
	return r
}

type memWriter struct {
	mu       sync.Mutex
	reports  map[string]*domain.PageRun
	writes   int
	removes  int
	writeErr error
}

func newMemWriter() *memWriter {
	return &memWriter{reports: make(map[string]*domain.PageRun)}
}

func (w *memWriter) Write(run *domain.PageRun) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return "", w.writeErr
	}
	w.writes++
	w.reports[run.Name] = run
	return "mem://" + domain.Slug(run.Name), nil
}

func (w *memWriter) Remove(pageName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removes++
	delete(w.reports, pageName)
	return nil
}

func (w *memWriter) report(pageName string) (*domain.PageRun, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.reports[pageName]
	return r, ok
}

type fakeBrowser struct {
	mu     sync.Mutex
	pages  []*fakePage
	start  string
	doErr  func(domain.Action) error
	newErr error
}

func (b *fakeBrowser) NewPage(context.Context) (domain.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newErr != nil {
		return nil, b.newErr
	}
	p := newFakePage(b.start)
	p.doErr = b.doErr
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *fakeBrowser) opened() []*fakePage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*fakePage(nil), b.pages...)
}

type memHistory struct {
	mu      sync.Mutex
	entries []domain.RunEntry
}

func (h *memHistory) Save(_ string, e domain.RunEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return nil
}

func (h *memHistory) Load(string) ([]domain.RunEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.RunEntry(nil), h.entries...), nil
}

type staticGit string

func (g staticGit) CommitHash(string) (string, error) {
	if g == "" {
		return "", errors.New("not a git repository")
	}
	return string(g), nil
}

type countingMetrics struct {
	mu         sync.Mutex
	steps      int
	violations int
	failures   int
}

func (m *countingMetrics) StepCompleted(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps++
}

func (m *countingMetrics) ViolationsRecorded(_ string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations += n
}

func (m *countingMetrics) RunFailed(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

// visit returns a step that moves the page to url.
func visit(name, url string) domain.Step {
	return domain.Step{
		Name: name,
		Run: func(ctx context.Context, page domain.Page) error {
			return page.Do(ctx, domain.Action{Kind: domain.ActionGoto, Value: url})
		},
	}
}

// failing returns a step that errors with msg.
func failing(name, msg string) domain.Step {
	return domain.Step{
		Name: name,
		Run: func(context.Context, domain.Page) error {
			return fmt.Errorf("element not found: %s", msg)
		},
	}
}

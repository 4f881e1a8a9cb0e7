package domain

import "context"

// Page is a live browser page that accepts described input actions.
type Page interface {
	// Do performs a single action, failing on element-not-found or timeout.
	Do(ctx context.Context, a Action) error
	// URL returns the address currently loaded.
	URL(ctx context.Context) (string, error)
	// WaitStable blocks until transitions have settled.
	WaitStable(ctx context.Context) error
	Close() error
}

// Browser opens independent pages.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
}

// Scanner runs an accessibility audit against the current state of a page.
type Scanner interface {
	Scan(ctx context.Context, page Page) (*ScanResult, error)
}

// ReportWriter persists page runs as report artifacts.
type ReportWriter interface {
	// Write renders run into a single artifact and returns its path.
	Write(run *PageRun) (string, error)
	// Remove deletes every artifact previously written for pageName.
	Remove(pageName string) error
}

// ConfigLoader loads project configuration.
type ConfigLoader interface {
	Load(projectPath string) (ProjectConfig, error)
}

// FlowLoader reads declarative flow definitions.
type FlowLoader interface {
	LoadDir(dir string) ([]Flow, error)
	LoadFile(path string) (Flow, error)
}

// RunHistory persists run outcomes across invocations.
type RunHistory interface {
	Save(projectPath string, entry RunEntry) error
	Load(projectPath string) ([]RunEntry, error)
}

// GitInfo resolves repository metadata for history entries.
type GitInfo interface {
	CommitHash(projectPath string) (string, error)
}

// RunMetrics observes sequencer progress.
type RunMetrics interface {
	StepCompleted(page string)
	ViolationsRecorded(page string, n int)
	RunFailed(page string)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) StepCompleted(string)           {}
func (NopMetrics) ViolationsRecorded(string, int) {}
func (NopMetrics) RunFailed(string)               {}

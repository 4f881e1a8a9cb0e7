package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/semaphore"
)

// RunService runs declarative flows, each on its own browser page, and keeps
// their results in a shared run context.
type RunService struct {
	browser domain.Browser
	store   *domain.TestRunContext
	seq     *Sequencer
	history domain.RunHistory
	git     domain.GitInfo
	logger  hclog.Logger

	histMu sync.Mutex
}

func NewRunService(
	browser domain.Browser,
	scanner domain.Scanner,
	writer domain.ReportWriter,
	history domain.RunHistory,
	git domain.GitInfo,
	metrics domain.RunMetrics,
	logger hclog.Logger,
) *RunService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	store := domain.NewTestRunContext()
	return &RunService{
		browser: browser,
		store:   store,
		seq:     NewSequencer(store, scanner, writer, metrics, logger.Named("sequencer")),
		history: history,
		git:     git,
		logger:  logger,
	}
}

// Results exposes the run context, including partial results of failed runs.
func (s *RunService) Results() *domain.TestRunContext { return s.store }

// RunFlows runs every flow with at most concurrency flows in flight. Outcomes are
// returned in flow order; the error joins every failed run.
func (s *RunService) RunFlows(ctx context.Context, projectPath string, flows []domain.Flow, concurrency int) ([]*domain.RunOutcome, error) {
	// Artifacts are named by slug, so two pages sharing one would overwrite each other.
	seen := make(map[string]string, len(flows))
	for _, f := range flows {
		slug := domain.Slug(f.Page)
		if prev, ok := seen[slug]; ok {
			if prev == f.Page {
				return nil, fmt.Errorf("duplicate page name %q: every flow needs a distinct page", f.Page)
			}
			return nil, fmt.Errorf("page names %q and %q both produce report name %q", prev, f.Page, slug)
		}
		seen[slug] = f.Page
	}
	if concurrency < 1 {
		concurrency = 1
	}

	commit := ""
	if s.git != nil {
		if hash, err := s.git.CommitHash(projectPath); err == nil {
			commit = hash
		}
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	outcomes := make([]*domain.RunOutcome, len(flows))
	errs := make([]error, len(flows))
	var wg sync.WaitGroup

	for i, f := range flows {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			outcomes[i] = &domain.RunOutcome{Page: f.Page, Status: domain.RunFailed, Error: err.Error()}
			continue
		}
		wg.Add(1)
		go func(i int, f domain.Flow) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i], errs[i] = s.RunFlow(ctx, f)
			s.saveHistory(projectPath, commit, outcomes[i])
		}(i, f)
	}
	wg.Wait()

	return outcomes, errors.Join(errs...)
}

// RunFlow runs a single flow on a fresh page.
func (s *RunService) RunFlow(ctx context.Context, f domain.Flow) (*domain.RunOutcome, error) {
	if err := f.Validate(); err != nil {
		return &domain.RunOutcome{Page: f.Page, Status: domain.RunFailed, Error: err.Error()}, err
	}

	page, err := s.browser.NewPage(ctx)
	if err != nil {
		err = fmt.Errorf("opening page for %s: %w", f.Page, err)
		return &domain.RunOutcome{Page: f.Page, Status: domain.RunFailed, Error: err.Error()}, err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			s.logger.Warn("closing page", "page", f.Page, "error", cerr)
		}
	}()

	s.logger.Info("starting flow", "page", f.Page, "steps", len(f.Steps))
	return s.seq.Run(ctx, page, f.Page, f.Compile())
}

func (s *RunService) saveHistory(projectPath, commit string, o *domain.RunOutcome) {
	if s.history == nil || o == nil {
		return
	}
	entry := domain.RunEntry{
		RunID:      uuid.NewString(),
		Timestamp:  time.Now().Format(time.RFC3339),
		CommitHash: commit,
		Page:       o.Page,
		Status:     o.Status,
		Steps:      o.Steps,
		Violations: o.Violations,
		Artifact:   o.Artifact,
	}
	s.histMu.Lock()
	defer s.histMu.Unlock()
	if err := s.history.Save(projectPath, entry); err != nil {
		s.logger.Warn("saving run history", "page", o.Page, "error", err)
	}
}

package application

import (
	"context"
	"fmt"
	"time"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/hashicorp/go-hclog"
)

// Sequencer walks an ordered list of steps on one page. Each step runs, the page
// settles, and the scan is recorded before the next step starts. The page's report
// is emitted at the end.
//
// A failing step aborts the remaining steps. The results recorded so far stay in
// the run context and are flushed to the report before the error is returned.
type Sequencer struct {
	store    *domain.TestRunContext
	scanner  domain.Scanner
	recorder *Recorder
	emitter  *Emitter
	metrics  domain.RunMetrics
	logger   hclog.Logger
}

func NewSequencer(
	store *domain.TestRunContext,
	scanner domain.Scanner,
	writer domain.ReportWriter,
	metrics domain.RunMetrics,
	logger hclog.Logger,
) *Sequencer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	return &Sequencer{
		store:    store,
		scanner:  scanner,
		recorder: NewRecorder(store, logger.Named("recorder")),
		emitter:  NewEmitter(store, writer, logger.Named("emitter")),
		metrics:  metrics,
		logger:   logger,
	}
}

// Run executes steps against page under pageName. The returned outcome is never nil.
func (s *Sequencer) Run(ctx context.Context, page domain.Page, pageName string, steps []domain.Step) (*domain.RunOutcome, error) {
	start := time.Now()

	// 1. Start clean: no stale results or artifacts for this page name.
	s.store.Reset(pageName)
	if err := s.emitter.Clear(pageName); err != nil {
		outcome := s.outcome(pageName, start, "")
		outcome.Status = domain.RunFailed
		outcome.Error = err.Error()
		return outcome, err
	}

	// 2. Interact, settle, scan, record.
	for i, st := range steps {
		step := i + 1
		s.logger.Debug("running step", "page", pageName, "step", step, "name", st.Name)
		if err := s.runStep(ctx, page, pageName, step, st); err != nil {
			return s.fail(pageName, step, start, err)
		}
	}

	// 3. Emit.
	artifact, err := s.emitter.Emit(pageName)
	outcome := s.outcome(pageName, start, artifact)
	if err != nil {
		outcome.Status = domain.RunFailed
		outcome.Error = err.Error()
		s.metrics.RunFailed(pageName)
		return outcome, err
	}
	return outcome, nil
}

func (s *Sequencer) runStep(ctx context.Context, page domain.Page, pageName string, step int, st domain.Step) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := st.Run(ctx, page); err != nil {
		return err
	}
	if err := page.WaitStable(ctx); err != nil {
		return fmt.Errorf("waiting for page to settle: %w", err)
	}
	currentURL, err := page.URL(ctx)
	if err != nil {
		return fmt.Errorf("reading current url: %w", err)
	}
	raw, err := s.scanner.Scan(ctx, page)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}
	n, err := s.recorder.Record(raw, pageName, currentURL, step)
	if err != nil {
		return fmt.Errorf("recording: %w", err)
	}
	s.metrics.StepCompleted(pageName)
	s.metrics.ViolationsRecorded(pageName, n)
	return nil
}

func (s *Sequencer) fail(pageName string, step int, start time.Time, cause error) (*domain.RunOutcome, error) {
	s.logger.Error("error during accessibility testing", "page", pageName, "step", step, "error", cause)
	s.metrics.RunFailed(pageName)

	artifact, err := s.emitter.Emit(pageName)
	if err != nil {
		s.logger.Warn("partial report not written", "page", pageName, "error", err)
	}

	outcome := s.outcome(pageName, start, artifact)
	outcome.Status = domain.RunFailed
	outcome.FailedStep = step
	outcome.Error = cause.Error()
	return outcome, &domain.StepError{Page: pageName, Step: step, Err: cause}
}

func (s *Sequencer) outcome(pageName string, start time.Time, artifact string) *domain.RunOutcome {
	run, ok := s.store.Get(pageName)
	if !ok {
		run = &domain.PageRun{Name: pageName}
	}
	o := &domain.RunOutcome{
		Page:       pageName,
		Status:     domain.RunPassed,
		Steps:      len(run.Steps),
		Violations: run.TotalViolations(),
		Impacts:    run.ImpactCounts(),
		Artifact:   artifact,
		Duration:   time.Since(start),
	}
	if o.Violations > 0 {
		o.Status = domain.RunIssues
	}
	return o
}

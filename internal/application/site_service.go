package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/semaphore"
)

const defaultRetryDelay = 2 * time.Second

// SummaryWriter writes the per-URL issue summary read by the count endpoint.
type SummaryWriter interface {
	WriteSummary(path string, run *domain.PageRun) error
}

// SiteService scans a list of URLs as one page run: URL n of the list is step n.
// A URL that still fails after its retries is recorded with no violations so that
// one unreachable page never sinks the whole report.
type SiteService struct {
	browser    domain.Browser
	scanner    domain.Scanner
	summary    SummaryWriter
	store      *domain.TestRunContext
	recorder   *Recorder
	emitter    *Emitter
	logger     hclog.Logger
	retryDelay time.Duration
}

func NewSiteService(
	browser domain.Browser,
	scanner domain.Scanner,
	writer domain.ReportWriter,
	summary SummaryWriter,
	logger hclog.Logger,
) *SiteService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	store := domain.NewTestRunContext()
	return &SiteService{
		browser:    browser,
		scanner:    scanner,
		summary:    summary,
		store:      store,
		recorder:   NewRecorder(store, logger.Named("recorder")),
		emitter:    NewEmitter(store, writer, logger.Named("emitter")),
		logger:     logger,
		retryDelay: defaultRetryDelay,
	}
}

// WithRetryDelay overrides the pause between attempts on one URL.
func (s *SiteService) WithRetryDelay(d time.Duration) *SiteService {
	s.retryDelay = d
	return s
}

// Results exposes the run context.
func (s *SiteService) Results() *domain.TestRunContext { return s.store }

// ScanSite scans urls under site.TestName and writes the site report and, when
// configured, the summary CSV.
func (s *SiteService) ScanSite(ctx context.Context, site domain.SiteConfig, urls []string) (*domain.RunOutcome, error) {
	start := time.Now()
	name := site.TestName
	parallel := site.Parallelism
	if parallel < 1 {
		parallel = 1
	}

	s.store.Reset(name)
	if err := s.emitter.Clear(name); err != nil {
		return &domain.RunOutcome{Page: name, Status: domain.RunFailed, Error: err.Error()}, err
	}

	s.logger.Info("starting site scan", "site", name, "urls", len(urls))

	sem := semaphore.NewWeighted(int64(parallel))
	var wg sync.WaitGroup
	var recordErr error
	var errMu sync.Mutex

	for i, u := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			errMu.Lock()
			recordErr = err
			errMu.Unlock()
			break
		}
		wg.Add(1)
		go func(step int, target string) {
			defer wg.Done()
			defer sem.Release(1)
			if err := s.scanURL(ctx, name, target, step, site.EffectiveRetries()); err != nil {
				errMu.Lock()
				recordErr = err
				errMu.Unlock()
			}
		}(i+1, u)
	}
	wg.Wait()

	if recordErr != nil {
		return s.fail(name, start, recordErr)
	}

	artifact, err := s.emitter.Emit(name)
	if err != nil {
		return &domain.RunOutcome{Page: name, Status: domain.RunFailed, Error: err.Error()}, err
	}

	run, _ := s.store.Get(name)
	if site.SummaryCSV != "" && s.summary != nil {
		if err := s.summary.WriteSummary(site.SummaryCSV, run); err != nil {
			return &domain.RunOutcome{Page: name, Status: domain.RunFailed, Error: err.Error()}, fmt.Errorf("writing summary: %w", err)
		}
	}

	return s.outcome(name, start, artifact), nil
}

// fail writes the report for the URLs recorded before cause stopped the scan. The
// summary CSV is left alone because unscanned URLs would read as clean.
func (s *SiteService) fail(name string, start time.Time, cause error) (*domain.RunOutcome, error) {
	s.logger.Error("site scan aborted", "site", name, "error", cause)

	artifact, err := s.emitter.Emit(name)
	if err != nil {
		s.logger.Warn("partial report not written", "site", name, "error", err)
	}

	outcome := s.outcome(name, start, artifact)
	outcome.Status = domain.RunFailed
	outcome.Error = cause.Error()
	return outcome, cause
}

func (s *SiteService) outcome(name string, start time.Time, artifact string) *domain.RunOutcome {
	run, ok := s.store.Get(name)
	if !ok {
		run = &domain.PageRun{Name: name}
	}
	o := &domain.RunOutcome{
		Page:       name,
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

// scanURL records one URL, retrying failures. Only a recording error is returned.
func (s *SiteService) scanURL(ctx context.Context, name, target string, step, retries int) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("retrying url", "url", target, "attempt", attempt, "max", retries, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		raw, err := s.scanOnce(ctx, target)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = s.recorder.Record(raw, name, target, step)
		return err
	}

	s.logger.Error("url failed after retries", "url", target, "retries", retries, "error", lastErr)
	_, err := s.recorder.Record(&domain.ScanResult{}, name, target, step)
	return err
}

func (s *SiteService) scanOnce(ctx context.Context, target string) (*domain.ScanResult, error) {
	page, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.Do(ctx, domain.Action{Kind: domain.ActionGoto, Value: target}); err != nil {
		return nil, err
	}
	if err := page.WaitStable(ctx); err != nil {
		return nil, err
	}
	return s.scanner.Scan(ctx, page)
}

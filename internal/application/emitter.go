package application

import (
	"fmt"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/hashicorp/go-hclog"
)

// Emitter writes at most one artifact per page name from the run context.
type Emitter struct {
	store  *domain.TestRunContext
	writer domain.ReportWriter
	logger hclog.Logger
}

func NewEmitter(store *domain.TestRunContext, writer domain.ReportWriter, logger hclog.Logger) *Emitter {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Emitter{store: store, writer: writer, logger: logger}
}

// Clear removes any artifact left by a previous run of pageName.
func (e *Emitter) Clear(pageName string) error {
	if err := e.writer.Remove(pageName); err != nil {
		e.logger.Error("removing previous report", "page", pageName, "error", err)
		return fmt.Errorf("removing previous report for %s: %w", pageName, err)
	}
	return nil
}

// Emit writes the artifact for pageName and returns its path. A run with no
// violations leaves no artifact behind and returns an empty path.
func (e *Emitter) Emit(pageName string) (string, error) {
	run, ok := e.store.Get(pageName)
	if !ok || run.TotalViolations() == 0 {
		if err := e.Clear(pageName); err != nil {
			return "", err
		}
		e.logger.Info("no issues found, skipping report generation", "page", pageName)
		return "", nil
	}

	if err := e.Clear(pageName); err != nil {
		return "", err
	}

	path, err := e.writer.Write(run)
	if err != nil {
		e.logger.Error("writing report", "page", pageName, "error", err)
		return "", fmt.Errorf("writing report for %s: %w", pageName, err)
	}

	e.logger.Info("accessibility report generated", "page", pageName, "path", path, "violations", run.TotalViolations())
	return path, nil
}

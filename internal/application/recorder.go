package application

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/hashicorp/go-hclog"
)

const (
	noHTML     = "No HTML available"
	noSelector = "No selector available"
)

// Recorder turns raw scan results into violations and appends them to a run context.
// Reporting is per rule: summary fields come from the first affected node and the
// selector joins the targets of every affected node.
type Recorder struct {
	store  *domain.TestRunContext
	logger hclog.Logger
}

func NewRecorder(store *domain.TestRunContext, logger hclog.Logger) *Recorder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Recorder{store: store, logger: logger}
}

// Record appends the scan at step for pageName and returns the number of violations.
func (r *Recorder) Record(raw *domain.ScanResult, pageName, currentURL string, step int) (int, error) {
	if err := raw.Validate(); err != nil {
		return 0, err
	}

	u, err := url.Parse(currentURL)
	if err != nil {
		return 0, fmt.Errorf("parsing current url %q: %w", currentURL, err)
	}

	violations := make([]domain.Violation, 0, len(raw.Violations))
	for _, rv := range raw.Violations {
		violations = append(violations, toViolation(rv, u.Path, step))
	}

	r.store.Append(pageName, domain.StepResult{
		Step:       step,
		URL:        u.Host + u.Path,
		URLPath:    u.Path,
		Violations: violations,
	})

	if len(violations) == 0 {
		r.logger.Info("no accessibility issues found", "page", pageName, "step", step)
	} else {
		r.logger.Info("found accessibility issues", "page", pageName, "step", step, "count", len(violations))
	}

	return len(violations), nil
}

func toViolation(rv domain.RuleViolation, path string, step int) domain.Violation {
	impact, _ := domain.ParseImpact(rv.Impact)

	html := noHTML
	if first := rv.Nodes[0]; first.HTML != "" {
		html = first.HTML
	}

	var targets []string
	for _, n := range rv.Nodes {
		targets = append(targets, n.Target...)
	}
	selector := noSelector
	if len(targets) > 0 {
		selector = strings.Join(targets, ", ")
	}

	return domain.Violation{
		RuleID:      rv.ID,
		Impact:      impact,
		Description: rv.Description,
		Help:        rv.Help,
		HelpURL:     rv.HelpURL,
		Selector:    selector,
		HTML:        html,
		Page:        path,
		Step:        step,
	}
}

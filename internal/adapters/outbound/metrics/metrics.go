package metrics

import (
	"net/http"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "axeflow"

// Metrics implements domain.RunMetrics on a private Prometheus registry.
type Metrics struct {
	reg *prometheus.Registry

	stepsTotal      *prometheus.CounterVec
	violationsTotal *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
	pageViolations  *prometheus.GaugeVec
	pageDuration    *prometheus.GaugeVec
	pageStatus      *prometheus.GaugeVec
	siteIssues      *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		stepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "steps_total",
			Help:      "Count of scanned steps",
		}, []string{"page"}),
		violationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "violations_total",
			Help:      "Count of recorded violations",
		}, []string{"page"}),
		failuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "run_failures_total",
			Help:      "Count of page runs aborted by a failing step",
		}, []string{"page"}),
		pageViolations: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "page_violations",
			Help:      "Violations found by the last run of a page, by impact",
		}, []string{"page", "impact"}),
		pageDuration: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "page_duration_seconds",
			Help:      "Duration of the last run of a page",
		}, []string{"page"}),
		pageStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "page_status",
			Help:      "1 for the status of the last run of a page, 0 otherwise",
		}, []string{"page", "status"}),
		siteIssues: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "site_issues",
			Help:      "URLs with at least one violation in a summary",
		}, []string{"summary"}),
	}
}

func (m *Metrics) StepCompleted(page string) {
	m.stepsTotal.WithLabelValues(page).Inc()
}

func (m *Metrics) ViolationsRecorded(page string, n int) {
	m.violationsTotal.WithLabelValues(page).Add(float64(n))
}

func (m *Metrics) RunFailed(page string) {
	m.failuresTotal.WithLabelValues(page).Inc()
}

// ObserveOutcome records the final state of a page run.
func (m *Metrics) ObserveOutcome(o *domain.RunOutcome) {
	if o == nil {
		return
	}
	for _, im := range domain.ValidImpacts {
		m.pageViolations.WithLabelValues(o.Page, string(im)).Set(float64(o.Impacts[im]))
	}
	m.pageDuration.WithLabelValues(o.Page).Set(o.Duration.Seconds())
	for _, s := range []domain.RunStatus{domain.RunPassed, domain.RunIssues, domain.RunFailed} {
		v := 0.0
		if o.Status == s {
			v = 1
		}
		m.pageStatus.WithLabelValues(o.Page, string(s)).Set(v)
	}
}

// ObserveIssueCount records the count served by the issue endpoint.
func (m *Metrics) ObserveIssueCount(summary string, n int) {
	m.siteIssues.WithLabelValues(summary).Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

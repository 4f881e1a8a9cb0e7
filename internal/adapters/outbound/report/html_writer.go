package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/axeflow/axeflow/internal/domain"
)

//go:embed templates/report.html.tmpl
var defaultTemplate string

const dateLayout = "02-01-2006"

// HTMLWriter implements domain.ReportWriter with one dated HTML page per page run.
type HTMLWriter struct {
	dir  string
	tmpl *template.Template
	now  func() time.Time
}

type htmlData struct {
	TestName string
	Date     string
	Total    int
	Steps    []domain.StepResult
}

// NewHTMLWriter parses templatePath, or the built-in template when it is empty.
func NewHTMLWriter(dir, templatePath string) (*HTMLWriter, error) {
	src := defaultTemplate
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("reading report template: %w", err)
		}
		src = string(data)
	}
	tmpl, err := template.New("report").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	return &HTMLWriter{dir: dir, tmpl: tmpl, now: time.Now}, nil
}

// WithClock fixes the date stamped into file names and reports.
func (w *HTMLWriter) WithClock(now func() time.Time) *HTMLWriter {
	w.now = now
	return w
}

func (w *HTMLWriter) Write(run *domain.PageRun) (string, error) {
	date := w.now().Format(dateLayout)
	var buf bytes.Buffer
	err := w.tmpl.Execute(&buf, htmlData{
		TestName: run.Name,
		Date:     date,
		Total:    run.TotalViolations(),
		Steps:    run.Steps,
	})
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s-%s.html", domain.Slug(run.Name), date))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes every dated report of pageName. Reports of other pages whose
// slug shares a prefix are left alone.
func (w *HTMLWriter) Remove(pageName string) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(domain.Slug(pageName)) + `-\d{2}-\d{2}-\d{4}\.html$`)
	for _, e := range entries {
		if e.IsDir() || !pattern.MatchString(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/axeflow/axeflow/internal/domain"
)

// SummaryHeader is the column layout of the per-URL issue summary. The last two
// columns are left blank for triage by hand.
var SummaryHeader = []string{"URL", "Violations", "Status of issue", "Comment"}

// SummaryCSV writes and reads the per-URL issue summary of a site scan.
type SummaryCSV struct{}

func NewSummaryCSV() *SummaryCSV {
	return &SummaryCSV{}
}

// WriteSummary writes one row per scanned URL in step order. The Violations cell
// lists "rule (impact)" pairs and stays empty for a clean URL.
func (s *SummaryCSV) WriteSummary(path string, run *domain.PageRun) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	if run != nil {
		for _, step := range run.Steps {
			parts := make([]string, 0, len(step.Violations))
			for _, v := range step.Violations {
				parts = append(parts, fmt.Sprintf("%s (%s)", v.RuleID, v.Impact))
			}
			if err := cw.Write([]string{step.URL, strings.Join(parts, "; "), "", ""}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

// CountIssues counts the data rows of a summary whose Violations cell is not blank.
// A summary without a Violations column counts zero.
func CountIssues(r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading summary header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) == "Violations" {
			col = i
			break
		}
	}

	count := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading summary: %w", err)
		}
		if col >= 0 && strings.TrimSpace(row[col]) != "" {
			count++
		}
	}
	return count, nil
}

// CountIssuesFile opens path and counts its issues.
func CountIssuesFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return CountIssues(f)
}

// New builds the report writer for format.
func New(format domain.ReportFormat, dir, templatePath string) (domain.ReportWriter, error) {
	switch format {
	case domain.FormatHTML:
		return NewHTMLWriter(dir, templatePath)
	case domain.FormatCSV, "":
		return NewCSVWriter(dir), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

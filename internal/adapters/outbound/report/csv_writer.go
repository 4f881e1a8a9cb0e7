package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/axeflow/axeflow/internal/domain"
)

// CSVHeader is the column layout of a page report.
var CSVHeader = []string{"URL", "Step", "Impact", "Description", "Issue", "More information", "CSS selector"}

// CSVWriter implements domain.ReportWriter with one flat CSV file per page.
type CSVWriter struct {
	dir string
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Path returns the artifact path for pageName.
func (w *CSVWriter) Path(pageName string) string {
	return filepath.Join(w.dir, domain.Slug(pageName)+".csv")
}

func (w *CSVWriter) Write(run *domain.PageRun) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", err
	}

	path := w.Path(run.Name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(CSVHeader); err != nil {
		return "", err
	}
	for _, step := range run.Steps {
		for _, v := range step.Violations {
			row := []string{
				step.URLPath,
				strconv.Itoa(step.Step),
				string(v.Impact),
				v.Description,
				v.Help,
				v.HelpURL,
				v.Selector,
			}
			if err := cw.Write(row); err != nil {
				return "", err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flushing %s: %w", path, err)
	}
	return path, f.Close()
}

func (w *CSVWriter) Remove(pageName string) error {
	if err := os.Remove(w.Path(pageName)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

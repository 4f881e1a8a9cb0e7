package web

import (
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/axeflow/axeflow/internal/adapters/outbound/report"
)

//go:embed templates/index.html.tmpl
var indexSource string

var indexTemplate = template.Must(template.New("index").Parse(indexSource))

type reportFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

type indexData struct {
	Title       string
	Count       int
	CountErr    string
	ReleasesURL string
	Reports     []reportFile
}

func (s *Server) handleCountIssues(w http.ResponseWriter, r *http.Request) {
	count, err := report.CountIssuesFile(s.issuesCSV)
	if err != nil {
		s.logger.Error("counting issues", "path", s.issuesCSV, "error", err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Error counting issues",
			"message": err.Error(),
		})
		return
	}
	s.metrics.ObserveIssueCount(filepath.Base(s.issuesCSV), count)

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondWithJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	files, err := s.listReports()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, files)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Title:       s.cfg.Title,
		ReleasesURL: strings.TrimRight(s.cfg.ReleasesURL, "/"),
	}
	count, err := report.CountIssuesFile(s.issuesCSV)
	if err != nil {
		data.CountErr = "unavailable"
	} else {
		data.Count = count
	}
	if files, err := s.listReports(); err == nil {
		data.Reports = files
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("rendering index", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK")) //nolint:errcheck
}

// listReports returns report artifacts, newest first.
func (s *Server) listReports() ([]reportFile, error) {
	entries, err := os.ReadDir(s.reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []reportFile{}, nil
		}
		return nil, err
	}
	files := []reportFile{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".html":
		default:
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, reportFile{Name: e.Name(), Size: info.Size(), Modified: info.ModTime()})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Modified.After(files[j].Modified) })
	return files, nil
}

// respondWithError sends a JSON error response.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response with the given status code and payload.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "failed to marshal response"}`)) //nolint:errcheck
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response) //nolint:errcheck
}

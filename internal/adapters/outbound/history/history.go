package history

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/axeflow/axeflow/internal/domain"
)

const historyFile = ".axeflow/history/runs.json"

// FileHistory implements domain.RunHistory using JSON file storage.
type FileHistory struct{}

func New() *FileHistory {
	return &FileHistory{}
}

func (h *FileHistory) Save(projectPath string, entry domain.RunEntry) error {
	entries, err := h.Load(projectPath)
	if err != nil {
		return err
	}

	entries = append(entries, entry)

	fp := filepath.Join(projectPath, historyFile)
	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(fp, data, 0644)
}

func (h *FileHistory) Load(projectPath string) ([]domain.RunEntry, error) {
	fp := filepath.Join(projectPath, historyFile)

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.RunEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// Last returns at most n of the most recent entries, newest last.
func Last(entries []domain.RunEntry, n int) []domain.RunEntry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}

// ForPage filters entries to a single page name.
func ForPage(entries []domain.RunEntry, page string) []domain.RunEntry {
	if page == "" {
		return entries
	}
	var out []domain.RunEntry
	for _, e := range entries {
		if e.Page == page {
			out = append(out, e)
		}
	}
	return out
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Entry is one cached remote script with its provenance.
type Entry struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	SHA256    string    `json:"sha256"`
	Size      int       `json:"size"`
	Body      []byte    `json:"-"`
}

// Store is a file-based cache of downloaded scripts under .axeflow/cache.
// Each entry is a body file plus a JSON metadata file keyed by URL.
type Store struct{}

// New creates a new file-based cache store.
func New() *Store {
	return &Store{}
}

// Load reads the entry cached for url. Returns (nil, nil) if none exists or the
// body no longer matches its recorded checksum.
func (s *Store) Load(projectPath, url string) (*Entry, error) {
	meta, err := os.ReadFile(metaPath(projectPath, url))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // no cache is not an error
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(meta, &entry); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(bodyPath(projectPath, url))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if checksum(body) != entry.SHA256 {
		return nil, nil
	}
	entry.Body = body
	return &entry, nil
}

// Save writes body for url, creating directories as needed.
func (s *Store) Save(projectPath, url string, body []byte) (*Entry, error) {
	if err := os.MkdirAll(cacheDir(projectPath), 0755); err != nil {
		return nil, err
	}

	entry := &Entry{
		URL:       url,
		FetchedAt: time.Now().UTC(),
		SHA256:    checksum(body),
		Size:      len(body),
		Body:      body,
	}
	if err := os.WriteFile(bodyPath(projectPath, url), body, 0644); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(metaPath(projectPath, url), data, 0644); err != nil {
		return nil, err
	}
	return entry, nil
}

// Invalidate removes the entry cached for url.
func (s *Store) Invalidate(projectPath, url string) error {
	for _, p := range []string{metaPath(projectPath, url), bodyPath(projectPath, url)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}

func cacheDir(projectPath string) string {
	return filepath.Join(projectPath, ".axeflow", "cache")
}

func metaPath(projectPath, url string) string {
	return filepath.Join(cacheDir(projectPath), key(url)+".json")
}

func bodyPath(projectPath, url string) string {
	return filepath.Join(cacheDir(projectPath), key(url)+".js")
}

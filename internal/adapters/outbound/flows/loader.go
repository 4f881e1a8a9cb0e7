package flows

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/axeflow/axeflow/internal/domain"
	"gopkg.in/yaml.v3"
)

// Loader implements domain.FlowLoader for YAML flow files.
// A file may hold several flows as separate YAML documents.
type Loader struct{}

func New() *Loader { return &Loader{} }

// LoadDir reads every .yaml and .yml file in dir, sorted by file name.
// Page names must be unique across the directory.
func (l *Loader) LoadDir(dir string) ([]domain.Flow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading flows dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []domain.Flow
	type origin struct{ page, path string }
	seen := make(map[string]origin)
	for _, name := range names {
		path := filepath.Join(dir, name)
		flows, err := l.loadAll(path)
		if err != nil {
			return nil, err
		}
		for _, f := range flows {
			slug := domain.Slug(f.Page)
			if prev, ok := seen[slug]; ok {
				if prev.page == f.Page {
					return nil, fmt.Errorf("page %q defined in both %s and %s", f.Page, prev.path, path)
				}
				return nil, fmt.Errorf("pages %q (%s) and %q (%s) both produce report name %q",
					prev.page, prev.path, f.Page, path, slug)
			}
			seen[slug] = origin{page: f.Page, path: path}
			out = append(out, f)
		}
	}
	return out, nil
}

// LoadFile reads a file holding exactly one flow.
func (l *Loader) LoadFile(path string) (domain.Flow, error) {
	flows, err := l.loadAll(path)
	if err != nil {
		return domain.Flow{}, err
	}
	if len(flows) != 1 {
		return domain.Flow{}, fmt.Errorf("%s: expected one flow, found %d", path, len(flows))
	}
	return flows[0], nil
}

func (l *Loader) loadAll(path string) ([]domain.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var out []domain.Flow
	for {
		var f domain.Flow
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if f.Page == "" && len(f.Steps) == 0 {
			continue
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		f.Source = path
		resolveFiles(&f, filepath.Dir(path))
		out = append(out, f)
	}
	return out, nil
}

// resolveFiles makes relative upload paths relative to the flow file.
func resolveFiles(f *domain.Flow, dir string) {
	for i := range f.Steps {
		for j := range f.Steps[i].Actions {
			files := f.Steps[i].Actions[j].Files
			for k, name := range files {
				if !filepath.IsAbs(name) {
					files[k] = filepath.Join(dir, name)
				}
			}
		}
	}
}

// Select keeps the flows whose page name is in pages, in the order given.
// An empty selection keeps everything.
func Select(all []domain.Flow, pages []string) ([]domain.Flow, error) {
	if len(pages) == 0 {
		return all, nil
	}
	byName := make(map[string]domain.Flow, len(all))
	for _, f := range all {
		byName[f.Page] = f
	}
	out := make([]domain.Flow, 0, len(pages))
	for _, p := range pages {
		f, ok := byName[p]
		if !ok {
			return nil, fmt.Errorf("no flow for page %q", p)
		}
		out = append(out, f)
	}
	return out, nil
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/axeflow/axeflow/internal/adapters/outbound/config"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/hashicorp/go-hclog"
)

// project is a resolved project directory and its configuration.
type project struct {
	path string
	cfg  domain.ProjectConfig
}

func loadProject(opts *rootOptions) (*project, error) {
	absPath, err := filepath.Abs(opts.projectPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.New().Load(absPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &project{path: absPath, cfg: cfg}, nil
}

// resolve makes p absolute against the project directory. Empty stays empty.
func (p *project) resolve(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.path, rel)
}

func (o *rootOptions) log() hclog.Logger {
	if o.logger == nil {
		return hclog.NewNullLogger()
	}
	return o.logger
}

// Package axesource locates the axe-core script injected into pages, either
// from a local file or downloaded once and kept in the project cache.
package axesource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/axeflow/axeflow/internal/adapters/outbound/cache"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

// Source resolves the axe-core script for one project.
type Source struct {
	cfg         domain.AxeConfig
	projectPath string
	client      *resty.Client
	cache       *cache.Store
	logger      hclog.Logger
}

func New(projectPath string, cfg domain.AxeConfig, logger hclog.Logger) *Source {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	client := resty.New().
		SetLogger(&hclogAdapter{logger: logger}).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetTimeout(30 * time.Second)
	return &Source{
		cfg:         cfg,
		projectPath: projectPath,
		client:      client,
		cache:       cache.New(),
		logger:      logger,
	}
}

// Load returns the script body. A configured local file wins over the URL.
func (s *Source) Load(ctx context.Context) (string, error) {
	if s.cfg.Script != "" {
		path := s.cfg.Script
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.projectPath, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading axe script: %w", err)
		}
		return string(data), nil
	}
	if s.cfg.URL == "" {
		return "", fmt.Errorf("no axe script or url configured")
	}

	entry, err := s.cache.Load(s.projectPath, s.cfg.URL)
	if err != nil {
		s.logger.Warn("reading axe cache", "error", err)
	}
	if entry != nil {
		s.logger.Debug("using cached axe script", "url", s.cfg.URL, "fetched_at", entry.FetchedAt)
		return string(entry.Body), nil
	}

	body, err := s.download(ctx)
	if err != nil {
		return "", err
	}
	if _, err := s.cache.Save(s.projectPath, s.cfg.URL, body); err != nil {
		s.logger.Warn("caching axe script", "error", err)
	}
	return string(body), nil
}

// Refresh drops the cached copy so the next Load downloads again.
func (s *Source) Refresh() error {
	if s.cfg.URL == "" {
		return nil
	}
	return s.cache.Invalidate(s.projectPath, s.cfg.URL)
}

func (s *Source) download(ctx context.Context) ([]byte, error) {
	s.logger.Info("downloading axe-core", "url", s.cfg.URL)
	resp, err := s.client.R().SetContext(ctx).Get(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("downloading axe script: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("downloading axe script: unexpected status %s", resp.Status())
	}
	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("downloading axe script: empty body")
	}
	return resp.Body(), nil
}

// hclogAdapter forwards resty's log output to an hclog.Logger.
type hclogAdapter struct {
	logger hclog.Logger
}

func (a *hclogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

func (a *hclogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

func (a *hclogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}

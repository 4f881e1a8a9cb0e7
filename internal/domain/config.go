package domain

import (
	"fmt"
	"time"
)

// ReportFormat selects the artifact written per page run.
type ReportFormat string

const (
	FormatCSV  ReportFormat = "csv"
	FormatHTML ReportFormat = "html"
)

// SettleMode selects how the sequencer waits between an interaction and its scan.
type SettleMode string

const (
	// SettleStable waits for document readiness, network quiet and two animation frames.
	SettleStable SettleMode = "stable"
	// SettleFixed sleeps for Settle.Delay.
	SettleFixed SettleMode = "fixed"
)

// Default values applied when the config leaves a field unset.
const (
	DefaultReportsDir    = "reports"
	DefaultFlowsDir      = "flows"
	DefaultSettleDelay   = 500 * time.Millisecond
	DefaultSettleTimeout = 10 * time.Second
	DefaultActionTimeout = 30 * time.Second
	DefaultNavTimeout    = 60 * time.Second
	DefaultViewportW     = 1280
	DefaultViewportH     = 720
	DefaultUserAgent     = "axeflow accessibility testing bot"
	DefaultAxeURL        = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js"
	DefaultSiteParallel  = 10
	DefaultSiteRetries   = 2
	DefaultServeAddr     = ":8080"
	DefaultIssuesCSV     = "accessibility-report-wellington.csv"
)

// DefaultBlockedURLs keeps analytics beacons out of scans.
var DefaultBlockedURLs = []string{
	"*google-analytics*",
	"*googletagmanager*",
	"*gtm.js*",
	"*analytics.js*",
	"*ga.js*",
}

// ProjectConfig holds project-level configuration loaded from .axeflow.yaml.
type ProjectConfig struct {
	ReportsDir  string                `yaml:"reports_dir"  json:"reports_dir,omitempty"`
	FlowsDir    string                `yaml:"flows_dir"    json:"flows_dir,omitempty"`
	Format      ReportFormat          `yaml:"format"       json:"format,omitempty"`
	Template    string                `yaml:"template"     json:"template,omitempty"`
	Concurrency int                   `yaml:"concurrency"  json:"concurrency,omitempty"`
	Settle      SettleConfig          `yaml:"settle"       json:"settle"`
	Browser     BrowserConfig         `yaml:"browser"      json:"browser"`
	Axe         AxeConfig             `yaml:"axe"          json:"axe"`
	Serve       ServeConfig           `yaml:"serve"        json:"serve"`
	Sites       map[string]SiteConfig `yaml:"sites"        json:"sites,omitempty"`
}

// SettleConfig controls the pause between an interaction and its scan.
type SettleConfig struct {
	Mode    SettleMode    `yaml:"mode"    json:"mode,omitempty"`
	Delay   time.Duration `yaml:"delay"   json:"delay,omitempty"`
	Timeout time.Duration `yaml:"timeout" json:"timeout,omitempty"`
}

// BrowserConfig controls the headless browser.
type BrowserConfig struct {
	ExecPath      string        `yaml:"exec_path"      json:"exec_path,omitempty"`
	Headless      *bool         `yaml:"headless"       json:"headless,omitempty"`
	UserAgent     string        `yaml:"user_agent"     json:"user_agent,omitempty"`
	ViewportW     int           `yaml:"viewport_width" json:"viewport_width,omitempty"`
	ViewportH     int           `yaml:"viewport_height" json:"viewport_height,omitempty"`
	BlockURLs     []string      `yaml:"block_urls"     json:"block_urls,omitempty"`
	ActionTimeout time.Duration `yaml:"action_timeout" json:"action_timeout,omitempty"`
	NavTimeout    time.Duration `yaml:"nav_timeout"    json:"nav_timeout,omitempty"`
}

// IsHeadless defaults to true when unset.
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

// AxeConfig locates the axe-core script and narrows the rules it runs.
type AxeConfig struct {
	Script string   `yaml:"script" json:"script,omitempty"`
	URL    string   `yaml:"url"    json:"url,omitempty"`
	Tags   []string `yaml:"tags"   json:"tags,omitempty"`
}

// ServeConfig controls the summary web server.
type ServeConfig struct {
	Addr        string   `yaml:"addr"         json:"addr,omitempty"`
	IssuesCSV   string   `yaml:"issues_csv"   json:"issues_csv,omitempty"`
	ReleasesURL string   `yaml:"releases_url" json:"releases_url,omitempty"`
	Title       string   `yaml:"title"        json:"title,omitempty"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins,omitempty"`
}

// SiteConfig describes a URL list scanned page by page.
type SiteConfig struct {
	URLFile     string `yaml:"url_file"     json:"url_file"`
	TestName    string `yaml:"test_name"    json:"test_name"`
	Parallelism int    `yaml:"parallelism"  json:"parallelism,omitempty"`
	Retries     *int   `yaml:"retries"      json:"retries,omitempty"`
	SummaryCSV  string `yaml:"summary_csv"  json:"summary_csv,omitempty"`
}

// EffectiveRetries defaults to DefaultSiteRetries when unset.
func (s SiteConfig) EffectiveRetries() int {
	if s.Retries == nil {
		return DefaultSiteRetries
	}
	return *s.Retries
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{}.WithDefaults()
}

// WithDefaults fills every unset field with its default. Explicit values always win.
func (c ProjectConfig) WithDefaults() ProjectConfig {
	if c.ReportsDir == "" {
		c.ReportsDir = DefaultReportsDir
	}
	if c.FlowsDir == "" {
		c.FlowsDir = DefaultFlowsDir
	}
	if c.Format == "" {
		c.Format = FormatCSV
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.Settle.Mode == "" {
		c.Settle.Mode = SettleStable
	}
	if c.Settle.Delay == 0 {
		c.Settle.Delay = DefaultSettleDelay
	}
	if c.Settle.Timeout == 0 {
		c.Settle.Timeout = DefaultSettleTimeout
	}
	if c.Browser.UserAgent == "" {
		c.Browser.UserAgent = DefaultUserAgent
	}
	if c.Browser.ViewportW == 0 {
		c.Browser.ViewportW = DefaultViewportW
	}
	if c.Browser.ViewportH == 0 {
		c.Browser.ViewportH = DefaultViewportH
	}
	if c.Browser.BlockURLs == nil {
		c.Browser.BlockURLs = append([]string(nil), DefaultBlockedURLs...)
	}
	if c.Browser.ActionTimeout == 0 {
		c.Browser.ActionTimeout = DefaultActionTimeout
	}
	if c.Browser.NavTimeout == 0 {
		c.Browser.NavTimeout = DefaultNavTimeout
	}
	if c.Axe.Script == "" && c.Axe.URL == "" {
		c.Axe.URL = DefaultAxeURL
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
	if c.Serve.IssuesCSV == "" {
		c.Serve.IssuesCSV = DefaultIssuesCSV
	}
	if c.Serve.Title == "" {
		c.Serve.Title = "Accessibility reports"
	}
	if len(c.Sites) > 0 {
		sites := make(map[string]SiteConfig, len(c.Sites))
		for name, s := range c.Sites {
			if s.Parallelism == 0 {
				s.Parallelism = DefaultSiteParallel
			}
			if s.TestName == "" {
				s.TestName = name
			}
			sites[name] = s
		}
		c.Sites = sites
	}
	return c
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c ProjectConfig) Validate() error {
	// 1. format must be known or empty
	switch c.Format {
	case "", FormatCSV, FormatHTML:
	default:
		return fmt.Errorf("unknown format %q (valid: csv, html)", c.Format)
	}

	// 2. settle mode must be known or empty
	switch c.Settle.Mode {
	case "", SettleStable, SettleFixed:
	default:
		return fmt.Errorf("unknown settle.mode %q (valid: stable, fixed)", c.Settle.Mode)
	}

	// 3. durations must not be negative
	durations := map[string]time.Duration{
		"settle.delay":           c.Settle.Delay,
		"settle.timeout":         c.Settle.Timeout,
		"browser.action_timeout": c.Browser.ActionTimeout,
		"browser.nav_timeout":    c.Browser.NavTimeout,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s must not be negative (got %s)", name, d)
		}
	}

	// 4. concurrency must be >= 0
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0 (got %d)", c.Concurrency)
	}

	// 5. viewport must be >= 0
	if c.Browser.ViewportW < 0 || c.Browser.ViewportH < 0 {
		return fmt.Errorf("browser viewport must not be negative (got %dx%d)", c.Browser.ViewportW, c.Browser.ViewportH)
	}

	// 6. sites need a url file and sane limits
	for name, s := range c.Sites {
		if s.URLFile == "" {
			return fmt.Errorf("sites.%s.url_file must not be empty", name)
		}
		if s.Parallelism < 0 {
			return fmt.Errorf("sites.%s.parallelism must be >= 0 (got %d)", name, s.Parallelism)
		}
		if s.Retries != nil && *s.Retries < 0 {
			return fmt.Errorf("sites.%s.retries must be >= 0 (got %d)", name, *s.Retries)
		}
	}

	return nil
}

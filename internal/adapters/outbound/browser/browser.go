// Package browser drives headless Chrome through the DevTools protocol and
// implements the page and scanner ports on top of it.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/hashicorp/go-hclog"
)

// Browser is one Chrome process. Every NewPage opens an isolated tab.
type Browser struct {
	cfg    domain.BrowserConfig
	settle domain.SettleConfig
	logger hclog.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Launch starts Chrome and waits until it accepts commands.
func Launch(ctx context.Context, cfg domain.BrowserConfig, settle domain.SettleConfig, logger hclog.Logger) (*Browser, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.IsHeadless()),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(cfg.ViewportW, cfg.ViewportH),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	cdpLog := logger.Named("cdp")
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) { cdpLog.Trace(fmt.Sprintf(format, args...)) }),
		chromedp.WithErrorf(func(format string, args ...interface{}) { cdpLog.Debug(fmt.Sprintf(format, args...)) }),
	)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}
	logger.Debug("browser started", "headless", cfg.IsHeadless(), "viewport", fmt.Sprintf("%dx%d", cfg.ViewportW, cfg.ViewportH))

	return &Browser{
		cfg:           cfg,
		settle:        settle,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// NewPage opens a fresh tab with analytics blocked and the configured viewport.
func (b *Browser) NewPage(ctx context.Context) (domain.Page, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("browser is closed")
	}

	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	setup := chromedp.Tasks{
		network.Enable(),
		page.SetBypassCSP(true),
		chromedp.EmulateViewport(int64(b.cfg.ViewportW), int64(b.cfg.ViewportH)),
	}
	if len(b.cfg.BlockURLs) > 0 {
		setup = append(setup, network.SetBlockedURLS(b.cfg.BlockURLs))
	}

	runCtx, stop := bound(ctx, tabCtx, b.cfg.NavTimeout)
	defer stop()
	if err := chromedp.Run(runCtx, setup); err != nil {
		cancel()
		return nil, fmt.Errorf("opening tab: %w", err)
	}

	return &Tab{
		ctx:    tabCtx,
		cancel: cancel,
		cfg:    b.cfg,
		settle: b.settle,
		logger: b.logger,
	}, nil
}

// Close shuts Chrome down. Open tabs are closed with it.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.browserCancel()
	b.allocCancel()
	return nil
}

// bound derives a context from the chromedp context target that is also
// canceled when caller is, and expires after timeout when it is positive.
func bound(caller, target context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(target, timeout)
	} else {
		ctx, cancel = context.WithCancel(target)
	}
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

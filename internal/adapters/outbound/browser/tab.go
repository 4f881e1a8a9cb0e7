package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/axeflow/axeflow/internal/domain"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/hashicorp/go-hclog"
)

const pollInterval = 100 * time.Millisecond

// Tab is one browser tab. It implements domain.Page.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    domain.BrowserConfig
	settle domain.SettleConfig
	logger hclog.Logger
}

func (t *Tab) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, stop := bound(ctx, t.ctx, timeout)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Do performs a single action. Element lookups wait up to the action timeout;
// optional actions whose element is absent are skipped without waiting.
func (t *Tab) Do(ctx context.Context, a domain.Action) error {
	switch a.Kind {
	case domain.ActionGoto:
		return t.run(ctx, t.cfg.NavTimeout, chromedp.Navigate(a.ExpandedValue()))
	case domain.ActionWait:
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.Duration):
			return nil
		}
	case domain.ActionExpectTitle:
		return t.expect(ctx, "title", a.ExpandedValue(), func(c context.Context) (string, error) {
			var s string
			err := chromedp.Run(c, chromedp.Title(&s))
			return s, err
		})
	case domain.ActionExpectURL:
		return t.expect(ctx, "url", a.ExpandedValue(), t.URL)
	}

	node, err := t.find(ctx, a)
	if err != nil {
		return err
	}
	if node == nil {
		t.logger.Debug("optional element absent, skipping", "action", a.String())
		return nil
	}
	ids := []cdp.NodeID{node.NodeID}

	switch a.Kind {
	case domain.ActionClick:
		return t.run(ctx, t.cfg.ActionTimeout, chromedp.Click(ids, chromedp.ByNodeID))
	case domain.ActionFill:
		return t.run(ctx, t.cfg.ActionTimeout,
			chromedp.Clear(ids, chromedp.ByNodeID),
			chromedp.SendKeys(ids, a.ExpandedValue(), chromedp.ByNodeID),
		)
	case domain.ActionPress:
		return t.run(ctx, t.cfg.ActionTimeout, chromedp.SendKeys(ids, keyFor(a.Value), chromedp.ByNodeID))
	case domain.ActionUpload:
		return t.run(ctx, t.cfg.ActionTimeout, chromedp.SetUploadFiles(ids, a.Files, chromedp.ByNodeID))
	case domain.ActionCheck:
		return t.callOn(ctx, node.NodeID, checkFn)
	case domain.ActionSelect:
		v, _ := json.Marshal(a.ExpandedValue())
		return t.callOn(ctx, node.NodeID, fmt.Sprintf(selectFn, v))
	}
	return fmt.Errorf("unsupported action %q", a.Kind)
}

// find resolves the action's target to one node. It returns (nil, nil) for an
// optional action whose element is not on the page.
func (t *Tab) find(ctx context.Context, a domain.Action) (*cdp.Node, error) {
	q, err := queryFor(a.Target)
	if err != nil {
		return nil, err
	}

	want := a.Target.Nth + 1
	opts := []chromedp.QueryOption{chromedp.AtLeast(want)}
	if q.xpath {
		opts = append(opts, chromedp.BySearch)
	} else {
		opts = append(opts, chromedp.ByQueryAll)
	}
	if a.Optional {
		opts = append(opts, chromedp.AtLeast(0))
	}

	var nodes []*cdp.Node
	if err := t.run(ctx, t.cfg.ActionTimeout, chromedp.Nodes(q.expr, &nodes, opts...)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("element not found: %s", a.Target)
		}
		return nil, err
	}
	if len(nodes) < want {
		if a.Optional {
			return nil, nil
		}
		return nil, fmt.Errorf("element not found: %s", a.Target)
	}
	return nodes[a.Target.Nth], nil
}

const checkFn = `function() {
	if (!this.checked) { this.click(); }
	return this.checked;
}`

// selectFn picks the option whose value or visible label matches.
const selectFn = `function() {
	const want = %s;
	const opt = Array.from(this.options || []).find(o => o.value === want || o.label.trim() === want || o.text.trim() === want);
	if (!opt) { throw new Error("no option " + JSON.stringify(want)); }
	this.value = opt.value;
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
	return true;
}`

func (t *Tab) callOn(ctx context.Context, id cdp.NodeID, fn string) error {
	return t.run(ctx, t.cfg.ActionTimeout, chromedp.ActionFunc(func(c context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(id).Do(c)
		if err != nil {
			return err
		}
		_, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			WithAwaitPromise(true).
			Do(c)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		return nil
	}))
}

func (t *Tab) expect(ctx context.Context, what, want string, read func(context.Context) (string, error)) error {
	runCtx, stop := bound(ctx, t.ctx, t.cfg.ActionTimeout)
	defer stop()

	var got string
	for {
		s, err := read(runCtx)
		if err == nil {
			got = s
			if strings.Contains(s, want) {
				return nil
			}
		}
		select {
		case <-runCtx.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("expected %s to contain %q, got %q", what, want, got)
		case <-time.After(pollInterval):
		}
	}
}

// URL returns the address currently loaded.
func (t *Tab) URL(ctx context.Context) (string, error) {
	var loc string
	if err := t.run(ctx, t.cfg.ActionTimeout, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Evaluate runs expr in the page and decodes its result into out, which may be
// nil. Promises are awaited.
func (t *Tab) Evaluate(ctx context.Context, expr string, out interface{}, timeout time.Duration) error {
	return t.run(ctx, timeout, chromedp.Evaluate(expr, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
}

const quietProbe = `(() => ({ready: document.readyState === "complete", resources: performance.getEntriesByType("resource").length}))()`

const framesProbe = `new Promise(r => requestAnimationFrame(() => requestAnimationFrame(() => r(true))))`

// WaitStable blocks until the page has settled. In fixed mode that is a plain
// delay. In stable mode it waits for a complete document whose resource count
// holds still across one delay, then for two animation frames. A page that never
// settles within the settle timeout is scanned as it is.
func (t *Tab) WaitStable(ctx context.Context) error {
	if t.settle.Mode == domain.SettleFixed {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.settle.Delay):
			return nil
		}
	}

	deadline := time.Now().Add(t.settle.Timeout)
	type probe struct {
		Ready     bool `json:"ready"`
		Resources int  `json:"resources"`
	}
	last := -1
	for time.Now().Before(deadline) {
		var p probe
		if err := t.Evaluate(ctx, quietProbe, &p, t.settle.Timeout); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Navigation in flight destroys the execution context; try again.
			t.logger.Trace("settle probe failed", "error", err)
		} else if p.Ready && p.Resources == last {
			var done bool
			if err := t.Evaluate(ctx, framesProbe, &done, t.settle.Timeout); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		} else {
			last = p.Resources
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.settle.Delay):
		}
	}

	t.logger.Warn("page did not settle, scanning anyway", "timeout", t.settle.Timeout)
	return nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	t.cancel()
	return nil
}

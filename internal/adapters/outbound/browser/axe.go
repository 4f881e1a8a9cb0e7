package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/axeflow/axeflow/internal/domain"
)

// Evaluator runs JavaScript in a page. *Tab implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string, out interface{}, timeout time.Duration) error
}

// AxeScanner implements domain.Scanner by injecting axe-core into the page and
// running it against the whole document.
type AxeScanner struct {
	script  string
	tags    []string
	timeout time.Duration
}

func NewAxeScanner(script string, tags []string, timeout time.Duration) *AxeScanner {
	return &AxeScanner{script: script, tags: tags, timeout: timeout}
}

// Scan runs axe on page, injecting the script first when the page lacks it.
func (s *AxeScanner) Scan(ctx context.Context, page domain.Page) (*domain.ScanResult, error) {
	ev, ok := page.(Evaluator)
	if !ok {
		return nil, fmt.Errorf("page %T cannot evaluate scripts", page)
	}

	var loaded bool
	if err := ev.Evaluate(ctx, `typeof window.axe !== "undefined"`, &loaded, s.timeout); err != nil {
		return nil, fmt.Errorf("probing for axe: %w", err)
	}
	if !loaded {
		if err := ev.Evaluate(ctx, s.script, nil, s.timeout); err != nil {
			return nil, fmt.Errorf("injecting axe: %w", err)
		}
	}

	expr, err := runExpr(s.tags)
	if err != nil {
		return nil, err
	}
	var raw string
	if err := ev.Evaluate(ctx, expr, &raw, s.timeout); err != nil {
		return nil, fmt.Errorf("running axe: %w", err)
	}

	var result domain.ScanResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidScanResult, err)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// runExpr builds the axe.run call. The result is serialized in the page so only
// the fields the recorder needs cross the protocol.
func runExpr(tags []string) (string, error) {
	opts := map[string]interface{}{"resultTypes": []string{"violations"}}
	if len(tags) > 0 {
		opts["runOnly"] = map[string]interface{}{"type": "tag", "values": tags}
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`axe.run(document, %s).then(r => JSON.stringify({
	url: location.href,
	violations: r.violations.map(v => ({
		id: v.id, impact: v.impact, description: v.description, help: v.help, helpUrl: v.helpUrl, tags: v.tags,
		nodes: v.nodes.map(n => ({html: n.html, target: n.target.map(String), impact: n.impact}))
	}))
}))`, b), nil
}

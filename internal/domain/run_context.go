package domain

import (
	"sort"
	"sync"
)

// TestRunContext holds the accumulated page runs of one process, keyed by page name.
// Resetting a name never touches other names' entries.
type TestRunContext struct {
	mu   sync.RWMutex
	runs map[string]*PageRun
}

func NewTestRunContext() *TestRunContext {
	return &TestRunContext{runs: make(map[string]*PageRun)}
}

// Reset discards any previous run recorded under name and starts an empty one.
func (c *TestRunContext) Reset(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[name] = &PageRun{Name: name}
}

// Append adds a step result to the named run, creating the run if absent.
func (c *TestRunContext) Append(name string, step StepResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	run, ok := c.runs[name]
	if !ok {
		run = &PageRun{Name: name}
		c.runs[name] = run
	}
	step.Violations = append([]Violation(nil), step.Violations...)
	run.Steps = append(run.Steps, step)
}

// Get returns a copy of the named run, ordered by step number.
func (c *TestRunContext) Get(name string) (*PageRun, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	run, ok := c.runs[name]
	if !ok {
		return nil, false
	}
	cp := &PageRun{Name: run.Name, Steps: make([]StepResult, len(run.Steps))}
	for i, s := range run.Steps {
		s.Violations = append([]Violation(nil), s.Violations...)
		cp.Steps[i] = s
	}
	sort.SliceStable(cp.Steps, func(i, j int) bool { return cp.Steps[i].Step < cp.Steps[j].Step })
	return cp, true
}

// Delete removes the named run.
func (c *TestRunContext) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.runs, name)
}

// Names lists recorded page names in lexical order.
func (c *TestRunContext) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.runs))
	for n := range c.runs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

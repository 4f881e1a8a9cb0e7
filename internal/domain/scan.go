package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidScanResult is returned when a raw axe result does not have the expected shape.
var ErrInvalidScanResult = errors.New("invalid scan result")

// ScanResult is the structured form of an axe-core run.
type ScanResult struct {
	URL        string          `json:"url,omitempty"`
	Violations []RuleViolation `json:"violations"`
}

// RuleViolation is one violated axe rule with every node it was found on.
type RuleViolation struct {
	ID          string   `json:"id"`
	Impact      string   `json:"impact"`
	Description string   `json:"description"`
	Help        string   `json:"help"`
	HelpURL     string   `json:"helpUrl"`
	Tags        []string `json:"tags,omitempty"`
	Nodes       []Node   `json:"nodes"`
}

// Node is one DOM element affected by a rule.
type Node struct {
	HTML   string   `json:"html"`
	Target []string `json:"target"`
	Impact string   `json:"impact,omitempty"`
}

// Validate checks the result at the scanner boundary.
// A rule without an impact inherits the impact of its first node, as axe reports it.
func (r *ScanResult) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrInvalidScanResult)
	}
	for i := range r.Violations {
		v := &r.Violations[i]
		if v.ID == "" {
			return fmt.Errorf("%w: violation %d has no rule id", ErrInvalidScanResult, i)
		}
		if len(v.Nodes) == 0 {
			return fmt.Errorf("%w: rule %q has no affected nodes", ErrInvalidScanResult, v.ID)
		}
		if v.Impact == "" {
			v.Impact = v.Nodes[0].Impact
		}
		if _, err := ParseImpact(v.Impact); err != nil {
			return fmt.Errorf("%w: rule %q: %v", ErrInvalidScanResult, v.ID, err)
		}
	}
	return nil
}

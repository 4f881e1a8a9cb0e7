package domain

import (
	"fmt"
	"strings"
	"time"
)

// Impact is the axe-core severity of a violated rule.
type Impact string

const (
	ImpactMinor    Impact = "minor"
	ImpactModerate Impact = "moderate"
	ImpactSerious  Impact = "serious"
	ImpactCritical Impact = "critical"
)

// ValidImpacts enumerates all recognized impact levels, least severe first.
var ValidImpacts = []Impact{ImpactMinor, ImpactModerate, ImpactSerious, ImpactCritical}

// ParseImpact normalizes s into an Impact.
func ParseImpact(s string) (Impact, error) {
	im := Impact(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range ValidImpacts {
		if im == v {
			return im, nil
		}
	}
	return "", fmt.Errorf("unknown impact %q (valid: minor, moderate, serious, critical)", s)
}

// Rank orders impacts so that critical sorts first.
func (i Impact) Rank() int {
	switch i {
	case ImpactCritical:
		return 0
	case ImpactSerious:
		return 1
	case ImpactModerate:
		return 2
	default:
		return 3
	}
}

// Violation is one reported accessibility failure at one step of one page.
type Violation struct {
	RuleID      string `json:"rule_id"`
	Impact      Impact `json:"impact"`
	Description string `json:"description"`
	Help        string `json:"help"`
	HelpURL     string `json:"help_url"`
	Selector    string `json:"selector"`
	HTML        string `json:"html,omitempty"`
	Page        string `json:"page"`
	Step        int    `json:"step"`
}

// StepResult is the scan outcome captured right after one interaction step.
type StepResult struct {
	Step       int         `json:"step"`
	URL        string      `json:"url"`
	URLPath    string      `json:"url_path"`
	Violations []Violation `json:"violations"`
}

// PageRun accumulates the step results of one logical page for one test execution.
type PageRun struct {
	Name  string       `json:"name"`
	Steps []StepResult `json:"steps"`
}

// TotalViolations sums violations across all steps.
func (r *PageRun) TotalViolations() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, s := range r.Steps {
		total += len(s.Violations)
	}
	return total
}

// ImpactCounts tallies violations by impact across all steps.
func (r *PageRun) ImpactCounts() map[Impact]int {
	counts := make(map[Impact]int)
	if r == nil {
		return counts
	}
	for _, s := range r.Steps {
		for _, v := range s.Violations {
			counts[v.Impact]++
		}
	}
	return counts
}

// RunStatus is the terminal state of a page run.
type RunStatus string

const (
	RunPassed RunStatus = "passed"
	RunIssues RunStatus = "issues"
	RunFailed RunStatus = "failed"
)

// RunOutcome summarizes one sequencer execution for rendering and history.
type RunOutcome struct {
	Page       string         `json:"page"`
	Status     RunStatus      `json:"status"`
	Steps      int            `json:"steps"`
	Violations int            `json:"violations"`
	Impacts    map[Impact]int `json:"impacts,omitempty"`
	Artifact   string         `json:"artifact,omitempty"`
	FailedStep int            `json:"failed_step,omitempty"`
	Error      string         `json:"error,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// RunEntry is one persisted row of run history.
type RunEntry struct {
	RunID      string    `json:"run_id"`
	Timestamp  string    `json:"timestamp"`
	CommitHash string    `json:"commit_hash,omitempty"`
	Page       string    `json:"page"`
	Status     RunStatus `json:"status"`
	Steps      int       `json:"steps"`
	Violations int       `json:"violations"`
	Artifact   string    `json:"artifact,omitempty"`
}

package domain

import (
	"context"
	"fmt"
	"os"
	"time"
)

// ActionKind names a single input action a flow can perform on a page.
type ActionKind string

const (
	ActionGoto        ActionKind = "goto"
	ActionFill        ActionKind = "fill"
	ActionCheck       ActionKind = "check"
	ActionClick       ActionKind = "click"
	ActionSelect      ActionKind = "select"
	ActionUpload      ActionKind = "upload"
	ActionPress       ActionKind = "press"
	ActionExpectTitle ActionKind = "expect_title"
	ActionExpectURL   ActionKind = "expect_url"
	ActionWait        ActionKind = "wait"
)

// ValidActionKinds enumerates all recognized action kinds.
var ValidActionKinds = []ActionKind{
	ActionGoto, ActionFill, ActionCheck, ActionClick, ActionSelect,
	ActionUpload, ActionPress, ActionExpectTitle, ActionExpectURL, ActionWait,
}

// Target describes an element the way a person would point at it.
// Exactly one locator field must be set.
type Target struct {
	TestID      string `yaml:"test_id,omitempty"     json:"test_id,omitempty"`
	CSS         string `yaml:"css,omitempty"         json:"css,omitempty"`
	Text        string `yaml:"text,omitempty"        json:"text,omitempty"`
	Label       string `yaml:"label,omitempty"       json:"label,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Role        string `yaml:"role,omitempty"        json:"role,omitempty"`
	Name        string `yaml:"name,omitempty"        json:"name,omitempty"`
	Exact       bool   `yaml:"exact,omitempty"       json:"exact,omitempty"`
	Nth         int    `yaml:"nth,omitempty"         json:"nth,omitempty"`
}

// IsZero reports whether no locator is set.
func (t Target) IsZero() bool {
	return t.TestID == "" && t.CSS == "" && t.Text == "" && t.Label == "" &&
		t.Placeholder == "" && t.Role == ""
}

func (t Target) String() string {
	var s string
	switch {
	case t.TestID != "":
		s = fmt.Sprintf("test_id=%s", t.TestID)
	case t.CSS != "":
		s = fmt.Sprintf("css=%s", t.CSS)
	case t.Text != "":
		s = fmt.Sprintf("text=%q", t.Text)
	case t.Label != "":
		s = fmt.Sprintf("label=%q", t.Label)
	case t.Placeholder != "":
		s = fmt.Sprintf("placeholder=%q", t.Placeholder)
	case t.Role != "":
		s = fmt.Sprintf("role=%s name=%q", t.Role, t.Name)
	default:
		return "<none>"
	}
	if t.Nth > 0 {
		s += fmt.Sprintf(" nth=%d", t.Nth)
	}
	return s
}

func (t Target) locatorCount() int {
	n := 0
	for _, v := range []string{t.TestID, t.CSS, t.Text, t.Label, t.Placeholder, t.Role} {
		if v != "" {
			n++
		}
	}
	return n
}

// Action is one described input on the current page.
type Action struct {
	Kind     ActionKind    `yaml:"action"             json:"action"`
	Target   Target        `yaml:"target,omitempty"   json:"target,omitempty"`
	Value    string        `yaml:"value,omitempty"    json:"value,omitempty"`
	Files    []string      `yaml:"files,omitempty"    json:"files,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty" json:"duration,omitempty"`
	Optional bool          `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// ExpandedValue returns Value with ${VAR} references resolved from the environment.
func (a Action) ExpandedValue() string {
	return os.ExpandEnv(a.Value)
}

func (a Action) String() string {
	switch a.Kind {
	case ActionGoto, ActionExpectTitle, ActionExpectURL:
		return fmt.Sprintf("%s %s", a.Kind, a.Value)
	case ActionWait:
		return fmt.Sprintf("%s %s", a.Kind, a.Duration)
	default:
		return fmt.Sprintf("%s %s", a.Kind, a.Target)
	}
}

func (a Action) validate() error {
	valid := false
	for _, k := range ValidActionKinds {
		if a.Kind == k {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown action %q", a.Kind)
	}

	switch a.Kind {
	case ActionGoto, ActionExpectTitle, ActionExpectURL:
		if a.Value == "" {
			return fmt.Errorf("%s requires a value", a.Kind)
		}
		if !a.Target.IsZero() {
			return fmt.Errorf("%s does not take a target", a.Kind)
		}
	case ActionWait:
		if a.Duration <= 0 {
			return fmt.Errorf("wait requires a positive duration")
		}
	default:
		if n := a.Target.locatorCount(); n != 1 {
			return fmt.Errorf("%s requires exactly one locator in target (got %d)", a.Kind, n)
		}
		if a.Target.Nth < 0 {
			return fmt.Errorf("%s target nth must be >= 0", a.Kind)
		}
		if a.Target.Name != "" && a.Target.Role == "" {
			return fmt.Errorf("%s target name is only valid with role", a.Kind)
		}
	}

	switch a.Kind {
	case ActionFill, ActionSelect, ActionPress:
		if a.Value == "" {
			return fmt.Errorf("%s requires a value", a.Kind)
		}
	case ActionUpload:
		if len(a.Files) == 0 {
			return fmt.Errorf("upload requires at least one file")
		}
	}
	return nil
}

// StepSpec is one named interaction phase of a declarative flow.
type StepSpec struct {
	Name    string   `yaml:"name"    json:"name"`
	Actions []Action `yaml:"actions" json:"actions"`
}

// Flow is a declarative multi-step walk through one form.
type Flow struct {
	Page        string     `yaml:"page"                  json:"page"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []StepSpec `yaml:"steps"                 json:"steps"`
	Source      string     `yaml:"-"                     json:"source,omitempty"`
}

// Validate checks the flow definition and returns a descriptive error.
func (f Flow) Validate() error {
	if f.Page == "" {
		return fmt.Errorf("flow has no page name")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q has no steps", f.Page)
	}
	for i, s := range f.Steps {
		if len(s.Actions) == 0 {
			return fmt.Errorf("flow %q step %d has no actions", f.Page, i+1)
		}
		for j, a := range s.Actions {
			if err := a.validate(); err != nil {
				return fmt.Errorf("flow %q step %d action %d: %w", f.Page, i+1, j+1, err)
			}
		}
	}
	return nil
}

// Step is one interaction phase executed by the sequencer before a scan.
type Step struct {
	Name string
	Run  func(ctx context.Context, page Page) error
}

// ActionStep builds a Step that performs actions in order and stops at the first error.
func ActionStep(name string, actions ...Action) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context, page Page) error {
			for _, a := range actions {
				if err := page.Do(ctx, a); err != nil {
					return fmt.Errorf("%s: %w", a, err)
				}
			}
			return nil
		},
	}
}

// Compile turns the flow's step specs into executable steps.
func (f Flow) Compile() []Step {
	steps := make([]Step, 0, len(f.Steps))
	for _, s := range f.Steps {
		steps = append(steps, ActionStep(s.Name, s.Actions...))
	}
	return steps
}

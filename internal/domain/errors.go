package domain

import "fmt"

// StepError reports the step at which a page run was aborted.
type StepError struct {
	Page string
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("page %s step %d: %v", e.Page, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

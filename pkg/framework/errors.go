package framework

import (
	"errors"
	"strings"
)

// ErrForcedExit is returned by Runner.Wait when a second stop signal arrives
// before all Runnables returned.
var ErrForcedExit = errors.New("forced exit")

// AggregatedError collects errors from independent operations.
type AggregatedError struct {
	Errors []error
}

// Error implements error.
func (e *AggregatedError) Error() string {
	switch len(e.Errors) {
	case 0:
		return ""
	case 1:
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("multiple errors:")
	for _, err := range e.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap allows errors.Is/As to look into aggregated errors.
func (e *AggregatedError) Unwrap() []error {
	return e.Errors
}

// Add appends non-nil errors.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns nil when nothing was collected.
func (e *AggregatedError) Aggregate() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

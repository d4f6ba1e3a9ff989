package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPattern marks malformed times, weekdays, frequencies and day specs.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrValidation marks requests that parse but cannot be honored.
	ErrValidation = errors.New("validation failed")
	// ErrScheduler marks failures of the underlying OS scheduler tool.
	ErrScheduler = errors.New("scheduler error")
	// ErrNotRepresentable is returned when a backend is asked for a pattern it has no native form for.
	ErrNotRepresentable = errors.New("pattern not representable by scheduler")
	// ErrScheduleNotFound is returned when a named OS entry does not exist.
	ErrScheduleNotFound = errors.New("schedule not found")
)

// PatternError reports the offending token of a rejected recurrence.
type PatternError struct {
	Token  string
	Reason string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Token, e.Reason)
}

func (e *PatternError) Unwrap() error {
	return ErrInvalidPattern
}

func patternErr(token, format string, args ...any) error {
	return &PatternError{Token: token, Reason: fmt.Sprintf(format, args...)}
}

// SchedulerError wraps a failed invocation of crontab or schtasks.
type SchedulerError struct {
	Op     string
	Output string
	Err    error
}

func (e *SchedulerError) Error() string {
	var b strings.Builder
	b.WriteString("scheduler ")
	b.WriteString(e.Op)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString(": ")
		b.WriteString(out)
	}
	return b.String()
}

func (e *SchedulerError) Unwrap() error {
	return e.Err
}

func (e *SchedulerError) Is(target error) bool {
	return target == ErrScheduler
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

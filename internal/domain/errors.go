package domain

import (
	"errors"
	"fmt"
)

// RunnerError is the base error type with context for the load and report phases.
type RunnerError struct {
	Phase      string // "config", "scan", "parse", "convert", "template", "write"
	File       string
	LineNumber int
	Message    string
	Suggestion string
	Cause      error
}

func (e *RunnerError) Error() string {
	s := fmt.Sprintf("[%s]", e.Phase)
	if e.File != "" {
		s += fmt.Sprintf(" %s", e.File)
	}
	if e.LineNumber > 0 {
		s += fmt.Sprintf(":%d", e.LineNumber)
	}
	s += fmt.Sprintf(": %s", e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Suggestion != "" {
		s += fmt.Sprintf(" (hint: %s)", e.Suggestion)
	}
	return s
}

func (e *RunnerError) Unwrap() error {
	return e.Cause
}

// NewError creates a new RunnerError.
func NewError(phase, file string, line int, message string, cause error) *RunnerError {
	return &RunnerError{
		Phase:      phase,
		File:       file,
		LineNumber: line,
		Message:    message,
		Cause:      cause,
	}
}

// NewErrorWithSuggestion creates a RunnerError carrying a hint for the user.
func NewErrorWithSuggestion(phase, file string, line int, message, suggestion string, cause error) *RunnerError {
	e := NewError(phase, file, line, message, cause)
	e.Suggestion = suggestion
	return e
}

// ErrorKind classifies why a scenario failed.
type ErrorKind string

const (
	KindElementNotFound  ErrorKind = "ElementNotFound"
	KindActionTimeout    ErrorKind = "ActionTimeout"
	KindActionFailed     ErrorKind = "ActionFailed"
	KindNavigationError  ErrorKind = "NavigationError"
	KindAssertionFailed  ErrorKind = "AssertionFailed"
	KindSessionTeardown  ErrorKind = "SessionTeardownError"
	KindSessionStart     ErrorKind = "SessionStartError"
	KindAmbiguousLocator ErrorKind = "AmbiguousLocator"
	KindUnexpectedReauth ErrorKind = "UnexpectedReauth"
	KindCancelled        ErrorKind = "Cancelled"
	KindInvalidStep      ErrorKind = "InvalidStep"
)

// Sentinels for errors.Is. Browser drivers wrap these so the runner can
// classify failures without knowing the driver.
var (
	ErrElementNotFound  = errors.New(string(KindElementNotFound))
	ErrActionTimeout    = errors.New(string(KindActionTimeout))
	ErrActionFailed     = errors.New(string(KindActionFailed))
	ErrNavigation       = errors.New(string(KindNavigationError))
	ErrAssertionFailed  = errors.New(string(KindAssertionFailed))
	ErrSessionTeardown  = errors.New(string(KindSessionTeardown))
	ErrSessionStart     = errors.New(string(KindSessionStart))
	ErrAmbiguousLocator = errors.New(string(KindAmbiguousLocator))
	ErrUnexpectedReauth = errors.New(string(KindUnexpectedReauth))
	ErrCancelled        = errors.New(string(KindCancelled))
	ErrInvalidStep      = errors.New(string(KindInvalidStep))
)

var sentinels = map[ErrorKind]error{
	KindElementNotFound:  ErrElementNotFound,
	KindActionTimeout:    ErrActionTimeout,
	KindActionFailed:     ErrActionFailed,
	KindNavigationError:  ErrNavigation,
	KindAssertionFailed:  ErrAssertionFailed,
	KindSessionTeardown:  ErrSessionTeardown,
	KindSessionStart:     ErrSessionStart,
	KindAmbiguousLocator: ErrAmbiguousLocator,
	KindUnexpectedReauth: ErrUnexpectedReauth,
	KindCancelled:        ErrCancelled,
	KindInvalidStep:      ErrInvalidStep,
}

// StepError is a failure raised while executing a step or assertion.
type StepError struct {
	Kind     ErrorKind
	Index    int // -1 when no step was running
	Step     string
	Message  string
	Expected string
	Actual   string
	Cause    error
}

func (e *StepError) Error() string {
	s := string(e.Kind)
	if e.Index >= 0 {
		s += fmt.Sprintf(" at step %d", e.Index)
	}
	if e.Step != "" {
		s += fmt.Sprintf(" (%s)", e.Step)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Kind == KindAssertionFailed {
		s += fmt.Sprintf(": expected %q, got %q", e.Expected, e.Actual)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *StepError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// KindOf returns the first ErrorKind whose sentinel err wraps, in order of
// specificity. Unknown errors classify as KindActionFailed.
func KindOf(err error) ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	for _, k := range []ErrorKind{
		KindCancelled,
		KindElementNotFound,
		KindAmbiguousLocator,
		KindActionTimeout,
		KindNavigationError,
		KindAssertionFailed,
		KindUnexpectedReauth,
		KindSessionStart,
		KindSessionTeardown,
		KindInvalidStep,
	} {
		if errors.Is(err, sentinels[k]) {
			return k
		}
	}
	return KindActionFailed
}

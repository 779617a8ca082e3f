package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

// ErrExit is returned by the Exit command to stop the remaining commands.
var ErrExit = errors.New("exit requested")

// ParameterError carries every problem found while checking a command's parameters.
type ParameterError struct {
	Command  string
	Problems []string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameters for %s: %s", e.Command, strings.Join(e.Problems, "; "))
}

func (e *ParameterError) Unwrap() error {
	return domain.ErrInvalidParameters
}

// ExecutionError reports a command that recorded failures while running.
type ExecutionError struct {
	Command  string
	Phase    Phase
	Warnings int // warning and failure entries recorded during the phase
	Cause    error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s: %d warning(s) in %s", e.Command, e.Warnings, e.Phase)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ExecutionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{domain.ErrCommandFailed}
	}
	return []error{domain.ErrCommandFailed, e.Cause}
}

// hintError attaches a remediation hint to a run failure.
type hintError struct {
	err  error
	hint string
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }

// withHint wraps err so the status entry it produces carries hint.
func withHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hintError{err: err, hint: hint}
}

// failf builds a hinted error from a format string.
func failf(hint, format string, args ...any) error {
	return withHint(fmt.Errorf(format, args...), hint)
}

func hintFor(err error) string {
	var he *hintError
	if errors.As(err, &he) {
		return he.hint
	}
	switch {
	case errors.Is(err, domain.ErrUnrecognizedFormat):
		return "Verify the input is WaterML 1.0, 1.1 or 2.0."
	case errors.Is(err, domain.ErrIncompatibleUnits):
		return "Verify the units can be converted."
	case errors.Is(err, domain.ErrUnsupported):
		return "Use a datastore type that supports the operation."
	case errors.Is(err, domain.ErrInvalidDateTime):
		return "Specify a valid date/time or a defined date/time property."
	default:
		return "Check the log file for details."
	}
}

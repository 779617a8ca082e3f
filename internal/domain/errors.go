package domain

import "errors"

// Sentinel errors shared across the processor. Typed errors elsewhere wrap these so
// callers can classify failures with errors.Is.
var (
	// ErrNotFound reports that an identifier, position, or property did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParameters reports a command whose parameters failed validation.
	ErrInvalidParameters = errors.New("invalid command parameters")

	// ErrCommandFailed reports a command whose execution recorded failures.
	ErrCommandFailed = errors.New("command failed")

	// ErrUnrecognizedFormat reports content whose schema version cannot be determined.
	ErrUnrecognizedFormat = errors.New("unrecognized format")

	// ErrUnsupported reports an operation a datastore or supplier does not implement.
	ErrUnsupported = errors.New("operation not supported")

	// ErrIncompatibleUnits reports a unit conversion with no known factor.
	ErrIncompatibleUnits = errors.New("incompatible units")

	// ErrInvalidDateTime reports a date/time string that cannot be parsed.
	ErrInvalidDateTime = errors.New("invalid date/time")

	// ErrInvalidIdentifier reports a malformed time series identifier.
	ErrInvalidIdentifier = errors.New("invalid time series identifier")

	// ErrOutOfBounds reports a registry position outside the current bounds.
	ErrOutOfBounds = errors.New("position out of bounds")
)

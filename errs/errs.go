// Package errs holds the error taxonomy shared by the simulation packages.
//
// Errors are wrapped with fmt.Errorf("%w: ...") and inspected with errors.Is.
package errs

import "errors"

var (
	// ErrConfiguration marks an invalid parameter: negative lengths, take-profit
	// fractions above 1, zero ATR at sizing time.
	ErrConfiguration = errors.New("configuration error")

	// ErrInsufficientData marks a bar series shorter than the indicator warm-up.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrComputation marks a guarded numeric edge case. Metrics resolve these
	// to sentinel values; the error is only used for logging.
	ErrComputation = errors.New("computation error")

	// ErrPositionState marks a signal inconsistent with the current position
	// state. It is logged and ignored, never fatal.
	ErrPositionState = errors.New("position state error")
)

package odometer

import "errors"

var (
	// ErrUnsupported is returned when a method or option name is not part of
	// the controller's public surface.
	ErrUnsupported = errors.New("odometer: unsupported operation")

	// ErrInvalidOption is returned when an option value fails validation.
	ErrInvalidOption = errors.New("odometer: invalid option")

	// ErrStopped is returned by Wait when the run was cancelled by Stop
	// before reaching its end value.
	ErrStopped = errors.New("odometer: stopped")
)

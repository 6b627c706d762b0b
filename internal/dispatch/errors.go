package dispatch

import (
	"errors"
	"strconv"
)

// ErrInvalidListener is returned when a nil or empty listener is registered.
var ErrInvalidListener = errors.New("listener is not callable")

// InvalidListenerError reports the event string a non-callable listener was
// registered for.
type InvalidListenerError struct {
	// Types is the event string passed to On, One or a mapping key.
	Types string
}

// Error implements the error interface.
func (e *InvalidListenerError) Error() string {
	return "register " + strconv.Quote(e.Types) + ": " + ErrInvalidListener.Error()
}

// Is allows errors.Is to match InvalidListenerError with ErrInvalidListener.
func (e *InvalidListenerError) Is(target error) bool {
	return target == ErrInvalidListener
}

package beamapi

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Sentinel errors whose messages are shown to the user directly. Each
// transport-level failure class maps to a distinct message.
var (
	// ErrUnreachable means the API server could not be reached at all.
	ErrUnreachable = errors.New("cannot connect to the Beam API - make sure the server is running")
	// ErrTimeout means the API did not answer in time.
	ErrTimeout = errors.New("the Beam API request timed out")
)

// statusError is a non-2xx response.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string { return e.message }

// StatusCode returns the HTTP status of the failed response.
func (e *statusError) StatusCode() int { return e.status }

// mapError translates low-level failures into user-facing errors. Errors
// that are already mapped pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var se *statusError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout) {
		return err
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrUnreachable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrUnreachable
	}

	return err
}

// isTransient reports whether a failure is worth retrying: connection
// problems and server-side errors, but never 4xx responses.
func isTransient(err error) bool {
	if errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 500
	}
	return false
}

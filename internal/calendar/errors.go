package calendar

import (
	"errors"
	"fmt"
)

// StatusError is returned when the calendar service answers with a
// non-success status. It only concerns the one request.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("calendar: %s: status %d", e.URL, e.Code)
}

// ShapeError is returned when a response body does not have the expected
// shape. Callers treat it as fatal for the whole batch.
type ShapeError struct {
	URL string
	Err error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("calendar: %s: malformed payload: %v", e.URL, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// IsShape reports whether err is or wraps a *ShapeError.
func IsShape(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

// IsStatus reports whether err is or wraps a *StatusError.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

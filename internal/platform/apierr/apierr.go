// Package apierr carries an HTTP status and a machine-readable code along
// with an error, so handlers can map service failures (missing course,
// unprocessed file) onto responses without string matching.
package apierr

import "fmt"

type Error struct {
	Status int
	Code   string
	Err    error
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Error prefers the wrapped cause's message; the code and status are
// fallbacks so an empty Error still prints something identifiable.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("request failed (%d)", e.Status)
	}
	return "request failed"
}

func (e *Error) Unwrap() error { return e.Err }

// ABOUTME: Error taxonomy for the request gateway
// ABOUTME: Callers classify failures with errors.Is / errors.As

package api

import (
	"errors"
	"fmt"
)

// ErrInvalidURL marks an empty base URL or a path that fails to parse.
var ErrInvalidURL = errors.New("invalid request URL")

// ErrInvalidResponse marks a transport-level failure: the server could not
// be reached or did not produce a well-formed HTTP response.
var ErrInvalidResponse = errors.New("invalid response")

// HTTPError is any non-2xx status. The body is kept for diagnostics and
// never parsed by the gateway.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.Status)
}

// DecodeError marks a 2xx response whose body did not match the expected
// schema.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

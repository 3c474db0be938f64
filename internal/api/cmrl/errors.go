package cmrl

import (
	"errors"
	"fmt"
)

// NetworkError reports a transport failure or a non-2xx response.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status code: %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError reports a successful response whose body lacks the
// expected fields.
type MalformedResponseError struct {
	Op     string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed response: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %s", e.Op, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is or wraps a *NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsMalformed reports whether err is or wraps a *MalformedResponseError.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

package client

import (
	"errors"
	"fmt"
)

// Sentinel errors used across fetch streams. ErrRetryBudgetExhausted lives
// in pkg/ratelimit; these cover the remaining failure taxonomy.
var (
	// ErrMalformedResponse indicates a response body that failed to parse
	// as expected. Terminal for the stream that hit it.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError represents a remote rejection: a non-2xx, non-rate-limit
// status. Terminal for its fetch stream, never retried.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote rejected %s: status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("remote rejected %s: status %d", e.URL, e.StatusCode)
}

// IsRemoteRejected reports whether err is a terminal remote rejection.
func IsRemoteRejected(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

package restapi

import (
	"errors"
	"fmt"
)

// TransportError wraps a network-level failure (connection refused, DNS,
// timeout). These are always recoverable: the snapshot stays untouched and
// the caller decides whether to retry.
type TransportError struct {
	Op  string // short operation name, e.g. "list questions"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx HTTP response. 4xx responses are
// application errors: surfaced to the user, never auto-retried because a
// retried create is not guaranteed idempotent by the service.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: service returned HTTP %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: service returned HTTP %d: %s", e.Op, e.Code, e.Body)
}

// IsRecoverable reports whether the error is worth retrying: transport
// failures and 5xx responses are, 4xx application errors are not.
func IsRecoverable(err error) bool {
	var transport *TransportError
	if errors.As(err, &transport) {
		return true
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Code >= 500
	}

	return false
}

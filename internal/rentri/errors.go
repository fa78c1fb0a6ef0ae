package rentri

import (
	"errors"
	"fmt"
)

// TransportError is a network-level failure (dial, TLS, timeout). There is no
// Registry response to inspect; the exchange may be retried per policy.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("registry transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError is a Registry response whose status is neither 2xx nor in
// the caller's acceptable set. The full body is kept because rejections are
// often legally meaningful and operators need the Registry's own wording.
type RejectionError struct {
	Status int
	Body   []byte
}

func (e *RejectionError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512]
	}
	return fmt.Sprintf("registry rejected request: status %d: %s", e.Status, body)
}

// Retryable reports whether the rejection is worth retrying. Client errors
// are final; server errors may be transient.
func (e *RejectionError) Retryable() bool { return e.Status >= 500 }

// IsRetryable classifies an error from Do for retry decisions: transport
// failures and 5xx rejections are retryable, everything else is terminal.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return false
}

// RejectionStatus extracts the HTTP status from a rejection, or fallback for
// transport-level failures that never produced a response.
func RejectionStatus(err error, fallback int) int {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Status
	}
	return fallback
}

package submission

import (
	"errors"
	"fmt"
)

// FailureKind classifies transport failures.
type FailureKind string

const (
	KindInvalidPayload FailureKind = "invalid_payload"
	KindBadCredentials FailureKind = "bad_credentials"
	KindTransient      FailureKind = "transient"
	KindUpstream       FailureKind = "upstream"
)

// Retryable reports whether the caller may retry the whole submission.
func (k FailureKind) Retryable() bool {
	return k == KindTransient
}

// ErrTransport is matched by every TransportError.
var ErrTransport = errors.New("gateway transport failure")

// TransportError is a failed gateway call.
type TransportError struct {
	Kind       FailureKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway %s (status %d): %s", e.Kind, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("gateway %s: %s", e.Kind, e.Detail)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// AsTransportError extracts a TransportError from err.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

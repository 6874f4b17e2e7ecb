package gateway

import "fmt"

// ErrorKind is a closed enumeration of gateway failure categories.
// The transport-level cause is mapped to exactly one kind so callers never
// have to inspect error strings or HTTP status codes.
type ErrorKind int

const (
	// KindOther covers transport failures that fit no other category.
	KindOther ErrorKind = iota

	// KindTimeout means the gateway did not respond within the deadline.
	KindTimeout

	// KindUnreachable means the connection was refused or could not be established.
	KindUnreachable

	// KindInvalidCredentials means the gateway rejected the API key.
	KindInvalidCredentials

	// KindInsufficientFunds means the gateway reported the card cannot cover the charge.
	KindInsufficientFunds

	// KindRemoteFailure means the gateway itself failed (5xx-equivalent).
	KindRemoteFailure
)

// String returns a stable identifier for the kind, used in logs and metrics labels.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnreachable:
		return "unreachable"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindRemoteFailure:
		return "remote_failure"
	default:
		return "other"
	}
}

// GatewayError is returned for any failed gateway round-trip.
// It carries a human-readable message and the categorized kind.
type GatewayError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *GatewayError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying transport error, if any.
func (e *GatewayError) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, message string, cause error) *GatewayError {
	return &GatewayError{Kind: kind, Message: message, cause: cause}
}

package fireworks

import (
	"errors"
	"fmt"
)

type ErrorReason string

const (
	REASON_LOCATION_NOT_FOUND ErrorReason = "LOCATION_NOT_FOUND"
	REASON_TRANSPORT          ErrorReason = "TRANSPORT"
	REASON_UPSTREAM_STATUS    ErrorReason = "UPSTREAM_STATUS"
	REASON_DECODE             ErrorReason = "DECODE"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newFireworksError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewLocationNotFoundError(message string, cause error) *Error {
	return newFireworksError(REASON_LOCATION_NOT_FOUND, message, cause)
}

func NewTransportError(message string, cause error) *Error {
	return newFireworksError(REASON_TRANSPORT, message, cause)
}

func NewUpstreamStatusError(message string, cause error) *Error {
	return newFireworksError(REASON_UPSTREAM_STATUS, message, cause)
}

func NewDecodeError(message string, cause error) *Error {
	return newFireworksError(REASON_DECODE, message, cause)
}

// ReasonOf returns the reason of the first *Error in err's chain, or "".
func ReasonOf(err error) ErrorReason {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

// IsNotFound reports whether err means the postcode could not be resolved.
func IsNotFound(err error) bool {
	return ReasonOf(err) == REASON_LOCATION_NOT_FOUND
}

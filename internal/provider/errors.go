// Package provider – error taxonomy.
//
// Every failure an adapter can produce is classified into one of a small set
// of kinds. Callers above the dispatcher map these onto at most two
// user-visible outcomes; the kinds exist so logs and metrics can tell the
// failure modes apart.
package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	// KindHTTP is a non-200 response from the vendor endpoint.
	KindHTTP ErrorKind = "provider_http"
	// KindFetch is a failed secondary fetch of a temporary result URL.
	KindFetch ErrorKind = "provider_fetch"
	// KindEmpty is an otherwise-successful response carrying no usable
	// image payload.
	KindEmpty ErrorKind = "provider_empty"
	// KindUnrecognized is a response with an unexpected content type.
	KindUnrecognized ErrorKind = "provider_unrecognized"
)

// Error is the uniform failure type returned by all adapters. Message may
// contain vendor status codes and body text; it is intended for logs only and
// must never be shown to end users verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into *Error when possible.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	pe, ok := AsError(err)
	return ok && pe.Kind == kind
}

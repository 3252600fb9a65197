// Package fault defines the error taxonomy shared by every upstream client.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a client failure. Every vendor client converts its
// failures into exactly one of these before returning to the pipeline.
type Kind string

const (
	KindNotConfigured Kind = "not_configured"
	KindInvalidInput  Kind = "invalid_input"
	KindTimeout       Kind = "timeout"
	KindUpstream      Kind = "upstream_error"
	KindEmptyResult   Kind = "empty_result"
	KindBlocked       Kind = "blocked"
	KindUnknown       Kind = "unknown"
)

// Error is a classified failure from an upstream client boundary.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// New creates a classified error.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// NotConfigured reports a missing credential or endpoint.
func NotConfigured(service string) *Error {
	return &Error{Kind: KindNotConfigured, Detail: service + " not configured"}
}

// Wrap converts an arbitrary error into a classified one. Context
// deadline and cancellation errors map to the timeout kind; everything
// else is unknown.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Detail: err.Error()}
	}
	return &Error{Kind: KindUnknown, Detail: err.Error()}
}

// KindOf extracts the kind from a classified error, or KindUnknown for
// anything else.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err is a classified error of the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

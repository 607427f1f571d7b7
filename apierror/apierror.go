// Package apierror defines the error taxonomy surfaced by the SDK. Every
// failure returned to a caller is normalized into one of the categories
// below, so calling code can branch on category without knowledge of the
// underlying transport.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies an SDK failure.
type Category int

const (
	// CategoryUnknown is the zero value; it is never assigned by the SDK.
	CategoryUnknown Category = iota

	// CategoryConfig indicates bad or missing credentials/configuration.
	// Fatal: never retried.
	CategoryConfig

	// CategoryNetwork indicates a transport-level failure. Retryable per
	// policy.
	CategoryNetwork

	// CategoryTimeout indicates a deadline was exceeded. Retryable per
	// policy.
	CategoryTimeout

	// CategoryAuth indicates the token endpoint rejected the credentials.
	// Fatal unless credentials are rotated externally.
	CategoryAuth

	// CategoryAuthExpired indicates a previously valid token was rejected
	// by a business call. Triggers a single cache-invalidate-and-retry;
	// surfaced when that retry also fails.
	CategoryAuthExpired

	// CategoryAPI indicates a non-2xx business response. Surfaced to the
	// caller; only the 5xx subset is retried.
	CategoryAPI
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryConfig:
		return "config"
	case CategoryNetwork:
		return "network"
	case CategoryTimeout:
		return "timeout"
	case CategoryAuth:
		return "auth"
	case CategoryAuthExpired:
		return "auth_expired"
	case CategoryAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Error is the concrete error type carried across the SDK boundary. It
// records the failure category, the HTTP status and response body when one
// was received, and the wrapped cause when the failure originated lower in
// the stack.
type Error struct {
	Category   Category
	StatusCode int
	Body       string

	msg   string
	cause error
}

// New creates an error with the given category and message.
func New(category Category, msg string) *Error {
	return &Error{Category: category, msg: msg}
}

// Newf creates an error with the given category and formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{Category: category, msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the given category and message, retaining the
// cause for errors.Is/errors.As traversal.
func Wrap(category Category, cause error, msg string) *Error {
	return &Error{Category: category, msg: msg, cause: cause}
}

// WithStatus attaches the HTTP status code and response body received from
// the upstream API.
func (e *Error) WithStatus(statusCode int, body string) *Error {
	e.StatusCode = statusCode
	e.Body = body
	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Category, e.msg)
	if e.StatusCode != 0 {
		s = fmt.Sprintf("%s (status %d)", s, e.StatusCode)
	}
	if e.cause != nil {
		s = fmt.Sprintf("%s: %v", s, e.cause)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports category equality, allowing errors.Is(err, &Error{Category: c})
// style comparisons against category sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Category == e.Category
}

// CategoryOf extracts the category from an error chain. Returns
// CategoryUnknown and false when the chain carries no SDK error.
func CategoryOf(err error) (Category, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Category, true
	}
	return CategoryUnknown, false
}

// IsRetryable reports whether the error category is transient: network
// failures, timeouts, and 5xx API responses. Config, auth, and client-error
// failures are fatal and must not consume retry budget.
func IsRetryable(err error) bool {
	cat, ok := CategoryOf(err)
	if !ok {
		return false
	}
	switch cat {
	case CategoryNetwork, CategoryTimeout:
		return true
	case CategoryAPI:
		var e *Error
		if errors.As(err, &e) {
			return e.StatusCode >= http.StatusInternalServerError ||
				e.StatusCode == http.StatusTooManyRequests
		}
	}
	return false
}

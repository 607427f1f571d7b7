package resource

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// RetryPolicy controls the bounded retry behaviour of a Resource. Retries
// apply to idempotent requests (GET) and to requests explicitly marked
// retryable by the caller; everything else is attempted once.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// WaitMin is the initial wait between attempts; resty backs off
	// exponentially from here up to WaitMax.
	WaitMin time.Duration

	// WaitMax caps the wait between attempts.
	WaitMax time.Duration

	// Condition decides whether a response or transport error is worth
	// another attempt. Nil selects DefaultRetryCondition.
	Condition func(*resty.Response, error) bool
}

// DefaultRetryPolicy returns the retry policy applied when the caller does
// not configure one: four attempts with exponential backoff between 500ms
// and 3s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		WaitMin:     500 * time.Millisecond,
		WaitMax:     3 * time.Second,
		Condition:   DefaultRetryCondition,
	}
}

// DefaultRetryCondition is the default retry predicate. It retries on HTTP
// 429 (rate limit) and 5xx server errors, and on transient connection
// errors. It does not retry on context cancellation, deadline exceeded, or
// DNS resolution failures, and never on other 4xx responses: retrying a bad
// request wastes the retry budget.
func DefaultRetryCondition(r *resty.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}

		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return false
		}

		// other connection errors are worth another attempt
		return true
	}

	return r.StatusCode() == http.StatusTooManyRequests ||
		r.StatusCode() >= http.StatusInternalServerError
}

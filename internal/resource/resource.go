// Package resource implements the HTTP layer of the SDK: single signed or
// authorized calls with timeout and retry policy, and bounded concurrent
// multi-request batches. All failures are normalized into the apierror
// taxonomy; results carry their error rather than aborting control flow, so
// batch slots can fail independently.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/esimlink/esimlink-go/apierror"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Spec describes a single HTTP call.
type Spec struct {
	// Method is the HTTP method.
	Method string

	// Path is resolved against the resource base URL; absolute URLs are
	// used as-is.
	Path string

	// Query holds query parameters appended to the URL.
	Query url.Values

	// Header holds request headers, including any computed signature.
	Header http.Header

	// Body is the request body; structs and maps are JSON-encoded, strings
	// and byte slices sent verbatim.
	Body any

	// Retryable opts a non-idempotent request into the retry policy.
	// GET requests are always retried per policy.
	Retryable bool

	// Tag correlates a spec with its result in batch calls. Optional.
	Tag string
}

// Result is the outcome of a single HTTP call. Exactly one of a successful
// response or Err is meaningful; transport failures leave StatusCode zero.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Tag        string
	Err        error
}

// Ok reports whether the call succeeded with a 2xx response.
func (r Result) Ok() bool {
	return r.Err == nil
}

// JSON unmarshals the response body into v.
func (r Result) JSON(v any) error {
	if r.Err != nil {
		return r.Err
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apierror.Wrap(apierror.CategoryAPI, err, "decoding response body")
	}
	return nil
}

// Options configures a Resource.
type Options struct {
	// BaseURL is the scheme and host calls are resolved against.
	BaseURL string

	// Timeout applies per call; zero disables the client-level timeout
	// (callers may still bound calls via context deadlines).
	Timeout time.Duration

	// Retry is the retry policy; the zero value selects DefaultRetryPolicy.
	Retry RetryPolicy

	// Transport optionally replaces the underlying round tripper, e.g.
	// with an OTel-instrumented one.
	Transport http.RoundTripper

	// UserAgent is sent with every request.
	UserAgent string
}

// Resource performs single HTTP calls with timeout and retry policy. Two
// underlying clients are held: one with retries enabled for idempotent and
// explicitly retryable requests, and one without for everything else.
type Resource struct {
	retrying *resty.Client
	direct   *resty.Client
}

// New creates a Resource from options.
func New(opts Options) *Resource {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Retry.Condition == nil {
		opts.Retry.Condition = DefaultRetryCondition
	}

	retrying := newClient(opts).
		SetRetryCount(opts.Retry.MaxAttempts - 1).
		SetRetryWaitTime(opts.Retry.WaitMin).
		SetRetryMaxWaitTime(opts.Retry.WaitMax).
		AddRetryCondition(opts.Retry.Condition)

	return &Resource{
		retrying: retrying,
		direct:   newClient(opts),
	}
}

func newClient(opts Options) *resty.Client {
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	}

	return client
}

// Do performs a single HTTP call described by spec. The returned Result
// always carries the spec's tag; failures are recorded in Result.Err using
// the apierror taxonomy and never panic or abort.
func (r *Resource) Do(ctx context.Context, spec Spec) Result {
	client := r.direct
	if spec.Retryable || spec.Method == http.MethodGet {
		client = r.retrying
	}

	req := client.R().SetContext(ctx)
	if len(spec.Header) > 0 {
		req.SetHeaderMultiValues(spec.Header)
	}
	if len(spec.Query) > 0 {
		req.SetQueryParamsFromValues(spec.Query)
	}
	if spec.Body != nil {
		req.SetBody(spec.Body)
	}

	resp, err := req.Execute(spec.Method, spec.Path)
	if err != nil {
		return Result{Tag: spec.Tag, Err: transportError(spec, err)}
	}

	result := Result{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Tag:        spec.Tag,
	}

	if !resp.IsSuccess() {
		result.Err = statusError(spec, resp)
		log.Debug().
			Str("method", spec.Method).
			Str("path", spec.Path).
			Int("status", resp.StatusCode()).
			Msg("request failed")
	}

	return result
}

// transportError maps a transport-level failure to the error taxonomy:
// deadline expiry becomes a timeout, everything else a network failure.
func transportError(spec Spec, err error) error {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())

	category := apierror.CategoryNetwork
	if timeout {
		category = apierror.CategoryTimeout
	}

	return apierror.Wrap(category, err,
		fmt.Sprintf("%s %s failed", spec.Method, spec.Path))
}

// statusError maps a non-2xx response to the error taxonomy. 401 surfaces
// as AuthExpired so the authorized wrapper can invalidate the cached token
// and retry once; other statuses are API errors carrying status and body.
func statusError(spec Spec, resp *resty.Response) error {
	if resp.StatusCode() == http.StatusUnauthorized {
		return apierror.Newf(apierror.CategoryAuthExpired,
			"%s %s rejected: token not accepted", spec.Method, spec.Path).
			WithStatus(resp.StatusCode(), string(resp.Body()))
	}

	return apierror.Newf(apierror.CategoryAPI,
		"%s %s returned %s", spec.Method, spec.Path, resp.Status()).
		WithStatus(resp.StatusCode(), string(resp.Body()))
}

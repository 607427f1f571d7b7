package resource

import (
	"context"
	"errors"
	"net/http"

	"github.com/esimlink/esimlink-go/apierror"
	"github.com/rs/zerolog/log"
)

// TokenProvider supplies and invalidates access tokens. Implemented by the
// auth service; substituted by fakes in tests.
type TokenProvider interface {
	// AccessToken returns a currently valid bearer token, acquiring one if
	// necessary.
	AccessToken(ctx context.Context) (string, error)

	// Invalidate drops the cached token so the next AccessToken call
	// acquires a fresh one.
	Invalidate(ctx context.Context) error
}

// Authorized decorates a Resource with bearer authorization. When a
// previously valid token is rejected (401), the cached token is invalidated
// and the call retried exactly once with a freshly acquired token; a second
// rejection surfaces as AuthExpired without further retries.
type Authorized struct {
	resource *Resource
	multi    *Multi
	tokens   TokenProvider
}

// NewAuthorized creates an authorized call dispatcher.
func NewAuthorized(resource *Resource, multi *Multi, tokens TokenProvider) *Authorized {
	return &Authorized{
		resource: resource,
		multi:    multi,
		tokens:   tokens,
	}
}

// Do performs a single authorized call.
func (a *Authorized) Do(ctx context.Context, spec Spec) Result {
	token, err := a.tokens.AccessToken(ctx)
	if err != nil {
		return Result{Tag: spec.Tag, Err: err}
	}

	result := a.resource.Do(ctx, withBearer(spec, token))
	if !authExpired(result.Err) {
		return result
	}

	token, err = a.reauth(ctx)
	if err != nil {
		return Result{Tag: spec.Tag, Err: err}
	}

	// single retry with the fresh token; a repeat 401 stands as AuthExpired
	return a.resource.Do(ctx, withBearer(spec, token))
}

// DoAll performs a batch of authorized calls. The token is acquired once
// for the whole batch. Slots rejected with 401 are retried together, once,
// after a single invalidate-and-refresh; other slots keep their original
// outcome.
func (a *Authorized) DoAll(ctx context.Context, specs []Spec) []Result {
	token, err := a.tokens.AccessToken(ctx)
	if err != nil {
		results := make([]Result, len(specs))
		for i, spec := range specs {
			results[i] = Result{Tag: spec.Tag, Err: err}
		}
		return results
	}

	authorized := make([]Spec, len(specs))
	for i, spec := range specs {
		authorized[i] = withBearer(spec, token)
	}

	results := a.multi.Do(ctx, authorized)

	var expired []int
	for i, result := range results {
		if authExpired(result.Err) {
			expired = append(expired, i)
		}
	}
	if len(expired) == 0 {
		return results
	}

	token, err = a.reauth(ctx)
	if err != nil {
		for _, i := range expired {
			results[i] = Result{Tag: specs[i].Tag, Err: err}
		}
		return results
	}

	retry := make([]Spec, len(expired))
	for n, i := range expired {
		retry[n] = withBearer(specs[i], token)
	}

	for n, result := range a.multi.Do(ctx, retry) {
		results[expired[n]] = result
	}

	return results
}

// reauth drops the cached token and acquires a fresh one.
func (a *Authorized) reauth(ctx context.Context) (string, error) {
	log.Info().Msg("access token rejected: invalidating and re-authenticating")

	if err := a.tokens.Invalidate(ctx); err != nil {
		return "", err
	}

	return a.tokens.AccessToken(ctx)
}

func withBearer(spec Spec, token string) Spec {
	header := make(http.Header, len(spec.Header)+1)
	for k, v := range spec.Header {
		header[k] = v
	}
	header.Set("Authorization", "Bearer "+token)

	spec.Header = header
	return spec
}

func authExpired(err error) bool {
	return err != nil && errors.Is(err, apierror.New(apierror.CategoryAuthExpired, ""))
}

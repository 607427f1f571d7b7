package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/esimlink/esimlink-go/apierror"
	"github.com/esimlink/esimlink-go/internal/cache"
	"github.com/esimlink/esimlink-go/internal/resource"
	"github.com/esimlink/esimlink-go/internal/signature"
)

// DefaultTokenPath is the token endpoint path on the partner API.
const DefaultTokenPath = "/v2/token"

const defaultMaxAttempts = 3

// Options configures a token Service.
type Options struct {
	Credentials Credentials
	Cache       cache.TokenCache[CachedToken]
	Resource    *resource.Resource
	Signer      *signature.Signer

	// TokenPath overrides the token endpoint path. Defaults to
	// DefaultTokenPath.
	TokenPath string

	// SafetyMargin is subtracted from token lifetimes when judging
	// validity. Defaults to DefaultSafetyMargin.
	SafetyMargin time.Duration

	// MaxAttempts bounds transient-failure retries of the token request.
	MaxAttempts uint

	// RetryInterval is the initial backoff interval between attempts.
	RetryInterval time.Duration
}

// Service acquires and caches OAuth client-credentials tokens. Concurrent
// callers needing a refresh for the same credentials are collapsed into a
// single token request; everyone receives the one result.
type Service struct {
	creds     Credentials
	cache     cache.TokenCache[CachedToken]
	resource  *resource.Resource
	signer    *signature.Signer
	tokenPath string

	margin        time.Duration
	maxAttempts   uint
	retryInterval time.Duration

	group singleflight.Group
	now   func() time.Time
}

// NewService creates a token service. The credentials are validated here so
// misconfiguration fails at construction rather than on first use.
func NewService(opts Options) (*Service, error) {
	if err := opts.Credentials.Validate(); err != nil {
		return nil, err
	}
	if opts.Cache == nil {
		return nil, apierror.New(apierror.CategoryConfig, "token cache is required")
	}
	if opts.Resource == nil {
		return nil, apierror.New(apierror.CategoryConfig, "resource is required")
	}
	if opts.Signer == nil {
		return nil, apierror.New(apierror.CategoryConfig, "signer is required")
	}

	if opts.TokenPath == "" {
		opts.TokenPath = DefaultTokenPath
	}
	if opts.SafetyMargin == 0 {
		opts.SafetyMargin = DefaultSafetyMargin
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}

	return &Service{
		creds:         opts.Credentials,
		cache:         opts.Cache,
		resource:      opts.Resource,
		signer:        opts.Signer,
		tokenPath:     opts.TokenPath,
		margin:        opts.SafetyMargin,
		maxAttempts:   opts.MaxAttempts,
		retryInterval: opts.RetryInterval,
		now:           time.Now,
	}, nil
}

// AccessToken returns a currently valid bearer token, acquiring one from the
// token endpoint if the cache holds none.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return "", err
	}
	return tok.Token, nil
}

// Invalidate drops the cached token, forcing the next AccessToken call to
// acquire a fresh one.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, s.creds.CacheKey())
}

func (s *Service) token(ctx context.Context) (CachedToken, error) {
	key := s.creds.CacheKey()

	if tok, ok := s.cached(ctx, key); ok {
		return tok, nil
	}

	// collapse concurrent refreshes for the same credentials into one
	// token request
	v, err, _ := s.group.Do(key, func() (any, error) {
		// a concurrent caller may have refreshed while this one waited
		if tok, ok := s.cached(ctx, key); ok {
			return tok, nil
		}

		tok, err := s.requestToken(ctx)
		if err != nil {
			return CachedToken{}, err
		}

		if err := s.cache.Set(ctx, key, tok); err != nil {
			// the token is usable even if caching it failed
			log.Warn().Err(err).Msg("failed to cache access token")
		}

		log.Info().
			Time("expiresAt", tok.ExpiresAt).
			Str("environment", s.creds.Environment).
			Msg("access token issued")

		return tok, nil
	})
	if err != nil {
		return CachedToken{}, err
	}

	return v.(CachedToken), nil
}

// cached returns the stored token when one exists and is still inside its
// safety margin. Cache read failures degrade to a miss.
func (s *Service) cached(ctx context.Context, key string) (CachedToken, bool) {
	tok, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("token cache read failed")
		return CachedToken{}, false
	}
	if !ok || !tok.Valid(s.now(), s.margin) {
		return CachedToken{}, false
	}
	return tok, true
}

// requestToken performs the signed client-credentials grant, retrying
// transient failures with exponential backoff. Credential rejections and
// malformed responses are terminal.
func (s *Service) requestToken(ctx context.Context) (CachedToken, error) {
	form := url.Values{
		"client_id":     {s.creds.ClientID},
		"client_secret": {s.creds.ClientSecret},
		"grant_type":    {"client_credentials"},
	}
	payload := form.Encode()

	sig, err := s.signer.Sign(payload)
	if err != nil {
		return CachedToken{}, err
	}

	spec := resource.Spec{
		Method: http.MethodPost,
		Path:   s.tokenPath,
		Header: http.Header{
			"Content-Type":   {"application/x-www-form-urlencoded"},
			signature.Header: {sig},
		},
		Body: payload,
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryInterval

	return backoff.Retry(ctx, func() (CachedToken, error) {
		return s.grant(ctx, spec)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(s.maxAttempts))
}

func (s *Service) grant(ctx context.Context, spec resource.Spec) (CachedToken, error) {
	result := s.resource.Do(ctx, spec)
	if result.Err != nil {
		return CachedToken{}, s.grantError(result.Err)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := result.JSON(&body); err != nil {
		return CachedToken{}, backoff.Permanent(
			apierror.Wrap(apierror.CategoryAuth, err, "malformed token response"))
	}
	if body.AccessToken == "" || body.ExpiresIn <= 0 {
		return CachedToken{}, backoff.Permanent(
			apierror.New(apierror.CategoryAuth, "token response missing access_token or expires_in"))
	}

	now := s.now()
	return CachedToken{
		Token:     body.AccessToken,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Duration(body.ExpiresIn) * time.Second),
	}, nil
}

// grantError classifies a token endpoint failure for the retry loop: any 4xx
// other than 429 means the credentials were rejected and retrying cannot
// help; rate limiting, transient transport failures and 5xx responses stay
// retryable.
func (s *Service) grantError(err error) error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) &&
		apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusTooManyRequests {
		return backoff.Permanent(
			apierror.Wrap(apierror.CategoryAuth, err, "credentials rejected by token endpoint").
				WithStatus(apiErr.StatusCode, apiErr.Body))
	}
	if !apierror.IsRetryable(err) {
		return backoff.Permanent(err)
	}
	return err
}

// Package esimlink is a client SDK for the eSIMlink partner HTTP API. It
// handles OAuth client-credentials authentication with cached, single-flight
// token refresh, HMAC request signing, per-call retry and timeout policy,
// and bounded concurrent batch requests.
package esimlink

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/esimlink/esimlink-go/apierror"
	"github.com/esimlink/esimlink-go/internal/auth"
	"github.com/esimlink/esimlink-go/internal/cache"
	"github.com/esimlink/esimlink-go/internal/observe"
	"github.com/esimlink/esimlink-go/internal/resource"
	"github.com/esimlink/esimlink-go/internal/signature"
)

// Client is the entry point to the SDK. Construct it with New or NewFromEnv;
// a Client is safe for concurrent use and should be shared rather than
// recreated per call.
type Client struct {
	cfg Config

	signer     *signature.Signer
	tokens     *auth.Service
	tokenCache cache.TokenCache[auth.CachedToken]
	authorized *resource.Authorized
	responses  *responseCache
}

// New creates a Client from the given configuration.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var options clientOptions
	for _, opt := range opts {
		opt(&options)
	}

	transport := options.transport
	if cfg.HTTP.ObserveEnabled {
		transport = observe.Transport(transport)
	}

	signer, err := signature.New(cfg.ClientSecret)
	if err != nil {
		return nil, err
	}

	tokenCache, err := cache.New[auth.CachedToken](ctx, cache.Options{
		Type:             cfg.Cache.Type,
		TTL:              time.Duration(cfg.Cache.TokenTTLSeconds) * time.Second,
		Valkey:           cache.ValkeyOptions(cfg.Cache.Valkey),
		EncryptionKeyset: cfg.Cache.EncryptionKeyset,
	})
	if err != nil {
		return nil, apierror.Wrap(apierror.CategoryConfig, err, "building token store")
	}

	res := resource.New(resource.Options{
		BaseURL: cfg.baseURL(),
		Timeout: cfg.HTTP.timeout(),
		Retry: resource.RetryPolicy{
			MaxAttempts: cfg.HTTP.RetryMaxAttempts,
			WaitMin:     time.Duration(cfg.HTTP.RetryWaitMinMillis) * time.Millisecond,
			WaitMax:     time.Duration(cfg.HTTP.RetryWaitMaxMillis) * time.Millisecond,
		},
		Transport: transport,
		UserAgent: cfg.HTTP.UserAgent,
	})

	tokens, err := auth.NewService(auth.Options{
		Credentials:  cfg.credentials(),
		Cache:        tokenCache,
		Resource:     res,
		Signer:       signer,
		SafetyMargin: time.Duration(cfg.Auth.SafetyMarginSeconds) * time.Second,
		MaxAttempts:  uint(cfg.Auth.RetryMaxAttempts),
	})
	if err != nil {
		tokenCache.Close()
		return nil, err
	}

	responses, err := newResponseCache(
		time.Duration(cfg.Cache.ResponseTTLSeconds) * time.Second)
	if err != nil {
		tokenCache.Close()
		return nil, err
	}

	concurrency := cfg.HTTP.Concurrency
	if concurrency <= 0 {
		concurrency = resource.DefaultConcurrency
	}

	log.Debug().
		Str("environment", cfg.Environment).
		Str("base_url", cfg.baseURL()).
		Msg("esimlink client initialized")

	return &Client{
		cfg:        cfg,
		signer:     signer,
		tokens:     tokens,
		tokenCache: tokenCache,
		authorized: resource.NewAuthorized(res, resource.NewMulti(res, concurrency), tokens),
		responses:  responses,
	}, nil
}

// NewFromEnv creates a Client configured from ESIMLINK_* environment
// variables.
func NewFromEnv(ctx context.Context, opts ...Option) (*Client, error) {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, opts...)
}

// Close releases resources held by the client, including any external token
// store connection.
func (c *Client) Close() error {
	return c.tokenCache.Close()
}

// AccessToken returns a currently valid bearer token, acquiring one if
// needed. Most callers never need this; API methods authenticate
// automatically.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.tokens.AccessToken(ctx)
}

// RefreshToken discards any cached token and acquires a fresh one.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	if err := c.tokens.Invalidate(ctx); err != nil {
		return "", err
	}
	return c.tokens.AccessToken(ctx)
}

// TokenSource exposes the client's token management as an oauth2.TokenSource
// for use with stock oauth2 transports.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return c.tokens.TokenSource(ctx)
}

// get performs an authorized GET, decoding the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	spec := resource.Spec{
		Method: http.MethodGet,
		Path:   path,
		Query:  queryValues(query),
	}

	result := c.authorized.Do(ctx, spec)
	if result.Err != nil {
		return result.Err
	}
	return result.JSON(out)
}

// post performs an authorized, signed POST with a JSON body, decoding the
// JSON response into out.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	spec, err := c.signedSpec(path, payload)
	if err != nil {
		return err
	}

	result := c.authorized.Do(ctx, spec)
	if result.Err != nil {
		return result.Err
	}
	return result.JSON(out)
}

// signedSpec builds a POST spec carrying the payload signature header.
func (c *Client) signedSpec(path string, payload any) (resource.Spec, error) {
	sig, err := c.signer.Sign(payload)
	if err != nil {
		return resource.Spec{}, err
	}

	return resource.Spec{
		Method: http.MethodPost,
		Path:   path,
		Header: http.Header{
			"Content-Type":   {"application/json"},
			signature.Header: {sig},
		},
		Body: payload,
	}, nil
}

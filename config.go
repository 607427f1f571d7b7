package esimlink

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/esimlink/esimlink-go/internal/auth"
)

// Base URLs per environment.
const (
	SandboxBaseURL    = "https://sandbox-partners-api.esimlink.com"
	ProductionBaseURL = "https://partners-api.esimlink.com"
)

// Config holds client configuration. Populate it directly or load it from
// the environment with LoadConfig.
type Config struct {
	// ClientID and ClientSecret are the partner API credentials. The
	// secret is also the key for request signing.
	ClientID     string `env:"ESIMLINK_CLIENT_ID, required"`
	ClientSecret string `env:"ESIMLINK_CLIENT_SECRET, required"`

	// Environment selects the API environment: "production" (default) or
	// "sandbox".
	Environment string `env:"ESIMLINK_ENVIRONMENT, default=production"`

	// BaseURL overrides the environment-derived API base URL. Used in
	// tests; normally left empty.
	BaseURL string `env:"ESIMLINK_BASE_URL"`

	HTTP  HTTPConfig
	Auth  AuthConfig
	Cache CacheConfig
}

// HTTPConfig specifies transport behavior for API calls.
type HTTPConfig struct {
	// TimeoutSeconds bounds each HTTP call.
	TimeoutSeconds int `env:"ESIMLINK_HTTP_TIMEOUT_SECS, default=30"`

	// RetryMaxAttempts caps attempts per retryable call, first try
	// included.
	RetryMaxAttempts int `env:"ESIMLINK_HTTP_RETRY_MAX_ATTEMPTS, default=4"`

	// RetryWaitMinMillis and RetryWaitMaxMillis bound the backoff between
	// attempts.
	RetryWaitMinMillis int `env:"ESIMLINK_HTTP_RETRY_WAIT_MIN_MS, default=500"`
	RetryWaitMaxMillis int `env:"ESIMLINK_HTTP_RETRY_WAIT_MAX_MS, default=3000"`

	// Concurrency bounds parallel requests in batch calls.
	Concurrency int `env:"ESIMLINK_HTTP_CONCURRENCY, default=10"`

	// UserAgent is sent with every request.
	UserAgent string `env:"ESIMLINK_HTTP_USER_AGENT, default=esimlink-go"`

	// ObserveEnabled instruments the outgoing transport with OpenTelemetry.
	ObserveEnabled bool `env:"ESIMLINK_OBSERVE_ENABLED, default=false"`
}

// AuthConfig specifies token acquisition behavior.
type AuthConfig struct {
	// SafetyMarginSeconds is subtracted from token lifetimes when judging
	// validity, so tokens are refreshed before they can expire mid-flight.
	SafetyMarginSeconds int `env:"ESIMLINK_AUTH_SAFETY_MARGIN_SECS, default=60"`

	// RetryMaxAttempts caps token request attempts on transient failure.
	RetryMaxAttempts int `env:"ESIMLINK_AUTH_RETRY_MAX_ATTEMPTS, default=3"`
}

// CacheConfig specifies the token store and the response cache.
type CacheConfig struct {
	// Type selects the token store: "memory" (default) or "valkey".
	Type string `env:"ESIMLINK_CACHE_TYPE, default=memory"`

	// TokenTTLSeconds bounds token entry lifetime in the store. Tokens
	// also carry their own expiry; this is an upper bound.
	TokenTTLSeconds int `env:"ESIMLINK_CACHE_TOKEN_TTL_SECS, default=86400"`

	// ResponseTTLSeconds bounds catalog response cache entries; zero
	// disables response caching.
	ResponseTTLSeconds int `env:"ESIMLINK_CACHE_RESPONSE_TTL_SECS, default=900"`

	// Valkey holds distributed token store settings.
	Valkey ValkeyConfig

	// EncryptionKeyset is a cleartext Tink keyset in JSON form. When set,
	// tokens in the distributed store are encrypted at rest. Only
	// supported with Type "valkey".
	EncryptionKeyset string `env:"ESIMLINK_CACHE_ENCRYPTION_KEYSET"`
}

// ValkeyConfig specifies distributed token store connection settings.
type ValkeyConfig struct {
	// Address is the Valkey server address (host:port).
	Address string `env:"ESIMLINK_VALKEY_ADDRESS"`

	// TLS enables TLS connection to Valkey. Defaults to true so the
	// secure option is the default.
	TLS bool `env:"ESIMLINK_VALKEY_TLS, default=true"`

	// Username and Password for Valkey authentication.
	Username string `env:"ESIMLINK_VALKEY_USERNAME"`
	Password string `env:"ESIMLINK_VALKEY_PASSWORD"`
}

// LoadConfig populates a Config from the OS environment.
func LoadConfig(ctx context.Context) (Config, error) {
	return loadConfig(ctx, nil)
}

func loadConfig(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks configuration consistency. Called by LoadConfig and by
// New; programmatic users can also call it directly.
func (c Config) Validate() error {
	if err := c.credentials().Validate(); err != nil {
		return err
	}

	if c.Cache.EncryptionKeyset != "" && c.Cache.Type != "valkey" {
		return fmt.Errorf("cache encryption requires ESIMLINK_CACHE_TYPE=valkey")
	}
	if c.Cache.Type == "valkey" && c.Cache.Valkey.Address == "" {
		return fmt.Errorf("ESIMLINK_VALKEY_ADDRESS required when ESIMLINK_CACHE_TYPE=valkey")
	}

	return nil
}

func (c Config) credentials() auth.Credentials {
	return auth.Credentials{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Environment:  c.Environment,
	}
}

// baseURL resolves the API base URL from the override or the environment.
func (c Config) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Environment == auth.EnvironmentSandbox {
		return SandboxBaseURL
	}
	return ProductionBaseURL
}

func (c HTTPConfig) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

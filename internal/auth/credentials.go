// Package auth implements OAuth client-credentials token acquisition with
// cached, single-flight refresh. A token is fetched from the partner token
// endpoint at most once per genuine cache miss, no matter how many callers
// race on the same credentials.
package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/esimlink/esimlink-go/apierror"
)

// Environment names accepted by Credentials.
const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"
)

// Credentials identifies the API client. Immutable once constructed; safe
// to share across goroutines without synchronization.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Environment  string
}

// Validate checks that the credentials are complete and the environment is
// known.
func (c Credentials) Validate() error {
	if c.ClientID == "" {
		return apierror.New(apierror.CategoryConfig, "client id is required")
	}
	if c.ClientSecret == "" {
		return apierror.New(apierror.CategoryConfig, "client secret is required")
	}
	if c.Environment != EnvironmentSandbox && c.Environment != EnvironmentProduction {
		return apierror.Newf(apierror.CategoryConfig,
			"environment must be %q or %q", EnvironmentSandbox, EnvironmentProduction)
	}
	return nil
}

// CacheKey derives the token cache key for these credentials. The key is a
// fingerprint of the client id and environment, so distinct credential sets
// and environments never share a cached token. The secret itself is not
// part of the key material: keys may appear in logs and external stores.
func (c Credentials) CacheKey() string {
	sum := sha256.Sum256([]byte(c.ClientID + "|" + c.Environment))
	return "esimlink:token:" + hex.EncodeToString(sum[:])
}

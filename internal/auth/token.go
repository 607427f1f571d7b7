package auth

import "time"

// DefaultSafetyMargin is subtracted from a token's lifetime when judging
// validity, so a token is refreshed before the server would reject it
// mid-flight.
const DefaultSafetyMargin = 60 * time.Second

// CachedToken is the stored form of an issued access token. Timestamps are
// absolute so the value survives serialization into an external store.
type CachedToken struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the token can still be used at the given instant,
// applying the safety margin. An empty token is never valid.
func (t CachedToken) Valid(now time.Time, margin time.Duration) bool {
	if t.Token == "" {
		return false
	}
	return now.Before(t.ExpiresAt.Add(-margin))
}

// TTL returns the remaining usable lifetime at the given instant, margin
// applied. Used to bound the cache entry so stale tokens age out on their
// own.
func (t CachedToken) TTL(now time.Time, margin time.Duration) time.Duration {
	return t.ExpiresAt.Add(-margin).Sub(now)
}

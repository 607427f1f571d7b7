package esimlink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	"github.com/esimlink/esimlink-go/internal/cache"
	"github.com/esimlink/esimlink-go/internal/resource"
)

// responseCache holds recent catalog responses so repeated listings within
// the TTL are served without a network call. Keys include a token
// fingerprint, so clients with different credentials never share entries.
type responseCache struct {
	store *cache.Memory[[]byte]
}

const responseCacheSize = 256

func newResponseCache(ttl time.Duration) (*responseCache, error) {
	if ttl <= 0 {
		return &responseCache{}, nil
	}

	store, err := cache.NewMemory[[]byte](ttl, responseCacheSize)
	if err != nil {
		return nil, err
	}
	return &responseCache{store: store}, nil
}

func (r *responseCache) enabled() bool {
	return r.store != nil
}

func (r *responseCache) get(ctx context.Context, key string) ([]byte, bool) {
	if !r.enabled() {
		return nil, false
	}
	body, ok, err := r.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	return body, true
}

func (r *responseCache) put(ctx context.Context, key string, body []byte) {
	if !r.enabled() {
		return
	}
	// best effort: a failed write only costs a future network call
	_ = r.store.Set(ctx, key, body)
}

func responseKey(path string, query map[string]string, token string) string {
	fingerprint := token
	if len(fingerprint) > 16 {
		fingerprint = fingerprint[:16]
	}

	sum := sha256.Sum256([]byte(path + "?" + queryValues(query).Encode() + "#" + fingerprint))
	return hex.EncodeToString(sum[:])
}

// cachedGet performs an authorized GET through the response cache.
func (c *Client) cachedGet(ctx context.Context, path string, query map[string]string, out any) error {
	if !c.responses.enabled() {
		return c.get(ctx, path, query, out)
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	key := responseKey(path, query, token)
	if body, ok := c.responses.get(ctx, key); ok {
		return resource.Result{Body: body}.JSON(out)
	}

	result := c.authorized.Do(ctx, resource.Spec{
		Method: http.MethodGet,
		Path:   path,
		Query:  queryValues(query),
	})
	if result.Err != nil {
		return result.Err
	}

	c.responses.put(ctx, key, result.Body)
	return result.JSON(out)
}

func queryValues(params map[string]string) url.Values {
	if len(params) == 0 {
		return nil
	}
	values := make(url.Values, len(params))
	for k, v := range params {
		if v != "" {
			values.Set(k, v)
		}
	}
	return values
}

package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/tink-crypto/tink-go/v2/aead"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
	"github.com/tink-crypto/tink-go/v2/tink"
)

// valuePrefix marks encrypted values so plaintext entries written before
// encryption was enabled can be told apart during rollout.
const valuePrefix = "el-enc:"

// storageKeyPrefix namespaces encrypted entries away from plaintext ones.
const storageKeyPrefix = "enc:"

// EncryptionStrategy defines how distributed cache values are encrypted and
// decrypted, and how storage keys are decorated. Tokens cached in an
// external store are bearer credentials, so at-rest protection is offered as
// a strategy the store composes in.
type EncryptionStrategy interface {
	// EncryptValue encrypts token bytes for storage. The key parameter is
	// used as associated data, binding ciphertext to its cache entry.
	EncryptValue(ctx context.Context, value []byte, key string) (string, error)

	// DecryptValue decrypts a stored value. The key parameter must match
	// the key used during encryption.
	DecryptValue(ctx context.Context, value string, key string) ([]byte, error)

	// StorageKey returns the cache key, potentially decorated with a prefix.
	StorageKey(key string) string
}

// NoEncryptionStrategy is a pass-through that stores values as-is.
type NoEncryptionStrategy struct{}

func (s *NoEncryptionStrategy) EncryptValue(_ context.Context, value []byte, _ string) (string, error) {
	return string(value), nil
}

func (s *NoEncryptionStrategy) DecryptValue(_ context.Context, value string, _ string) ([]byte, error) {
	return []byte(value), nil
}

func (s *NoEncryptionStrategy) StorageKey(key string) string {
	return key
}

// AEADEncryptionStrategy encrypts cache values with a Tink AEAD primitive.
// The cache key is the associated data, preventing ciphertext swapping
// between keys. Ciphertext is base64-encoded and prefixed for
// identification.
type AEADEncryptionStrategy struct {
	aead tink.AEAD
}

// NewAEADEncryptionStrategy creates an encryption strategy backed by the
// given AEAD primitive.
func NewAEADEncryptionStrategy(primitive tink.AEAD) *AEADEncryptionStrategy {
	return &AEADEncryptionStrategy{aead: primitive}
}

// NewAEADEncryptionStrategyFromKeyset creates an encryption strategy from a
// cleartext Tink keyset in JSON form, as produced by the keyset generation
// command. The keyset itself must be stored securely by the operator.
func NewAEADEncryptionStrategyFromKeyset(keysetJSON string) (*AEADEncryptionStrategy, error) {
	handle, err := insecurecleartextkeyset.Read(keyset.NewJSONReader(strings.NewReader(keysetJSON)))
	if err != nil {
		return nil, fmt.Errorf("reading encryption keyset: %w", err)
	}

	primitive, err := aead.New(handle)
	if err != nil {
		return nil, fmt.Errorf("constructing AEAD primitive: %w", err)
	}

	return &AEADEncryptionStrategy{aead: primitive}, nil
}

func (s *AEADEncryptionStrategy) EncryptValue(_ context.Context, value []byte, key string) (string, error) {
	ciphertext, err := s.aead.Encrypt(value, []byte(key))
	if err != nil {
		return "", fmt.Errorf("encrypting value: %w", err)
	}
	return valuePrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *AEADEncryptionStrategy) DecryptValue(_ context.Context, value string, key string) ([]byte, error) {
	if !strings.HasPrefix(value, valuePrefix) {
		return nil, fmt.Errorf("missing %q prefix: value may be unencrypted or corrupted", valuePrefix)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, valuePrefix))
	if err != nil {
		return nil, fmt.Errorf("base64 decode failed: %w", err)
	}

	plaintext, err := s.aead.Decrypt(decoded, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}

func (s *AEADEncryptionStrategy) StorageKey(key string) string {
	return storageKeyPrefix + key
}

package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
)

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultTTL     = 24 * time.Hour
	DefaultMaxSize = 1024
)

// Options selects and configures a token store implementation.
type Options struct {
	// Type selects the store: "memory" (default) or "valkey".
	Type string

	// TTL bounds entry lifetime in the store. Defaults to DefaultTTL.
	TTL time.Duration

	// MaxSize caps the number of entries held by the memory store.
	// Defaults to DefaultMaxSize.
	MaxSize int

	// Valkey holds distributed store settings; required for Type "valkey".
	Valkey ValkeyOptions

	// EncryptionKeyset is a cleartext Tink keyset in JSON form. When set,
	// values in the distributed store are AEAD-encrypted at rest. Only
	// supported with Type "valkey".
	EncryptionKeyset string
}

// ValkeyOptions holds distributed store connection settings.
type ValkeyOptions struct {
	Address  string
	TLS      bool
	Username string
	Password string
}

// Validate checks option consistency before construction.
func (o Options) Validate() error {
	switch o.Type {
	case "", "memory":
		if o.EncryptionKeyset != "" {
			return fmt.Errorf("cache encryption requires the valkey store")
		}
	case "valkey":
		if o.Valkey.Address == "" {
			return fmt.Errorf("valkey address is required when cache type is valkey")
		}
	default:
		return fmt.Errorf("invalid cache type %q: must be either \"memory\" or \"valkey\"", o.Type)
	}
	return nil
}

// New creates a token store from the provided options. The returned cache
// is wrapped with metrics instrumentation.
func New[T any](ctx context.Context, opts Options) (TokenCache[T], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// a zero TTL would expire entries at creation, silently defeating the
	// store
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}

	switch opts.Type {
	case "valkey":
		log.Info().
			Str("cache_type", "valkey").
			Str("address", opts.Valkey.Address).
			Bool("tls", opts.Valkey.TLS).
			Bool("encrypted", opts.EncryptionKeyset != "").
			Msg("initializing distributed token store")

		clientOpts := valkey.ClientOption{
			InitAddress: []string{opts.Valkey.Address},
			Username:    opts.Valkey.Username,
			Password:    opts.Valkey.Password,
		}
		if opts.Valkey.TLS {
			clientOpts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		client, err := valkey.NewClient(clientOpts)
		if err != nil {
			return nil, fmt.Errorf("creating valkey client: %w", err)
		}

		var strategy EncryptionStrategy
		if opts.EncryptionKeyset != "" {
			strategy, err = NewAEADEncryptionStrategyFromKeyset(opts.EncryptionKeyset)
			if err != nil {
				client.Close()
				return nil, fmt.Errorf("initializing cache encryption: %w", err)
			}
		}

		distributed, err := NewDistributed[T](client, opts.TTL, strategy)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating distributed store: %w", err)
		}

		return NewInstrumented[T](distributed, "valkey"), nil

	default: // "" or "memory", validated above
		log.Info().
			Str("cache_type", "memory").
			Msg("initializing in-memory token store")

		memory, err := NewMemory[T](opts.TTL, opts.MaxSize)
		if err != nil {
			return nil, fmt.Errorf("creating memory store: %w", err)
		}

		return NewInstrumented[T](memory, "memory"), nil
	}
}

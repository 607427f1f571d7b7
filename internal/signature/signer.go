// Package signature computes the request signature header required by the
// partner API. The signature is an HMAC-SHA256 over a canonical encoding of
// the request payload, keyed with the client secret.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/esimlink/esimlink-go/apierror"
)

// Header is the request header carrying the computed signature.
const Header = "esimlink-signature"

// Signer produces deterministic signatures over request payloads. A Signer
// is immutable and safe for concurrent use.
type Signer struct {
	secret []byte
}

// New creates a Signer keyed with the given client secret. An empty secret
// is a configuration error: the signer never signs with an empty key.
func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, apierror.New(apierror.CategoryConfig, "signing secret must not be empty")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign computes the hex-encoded HMAC-SHA256 signature of the canonical form
// of payload. Identical payloads always produce identical signatures.
//
// The error message never includes the secret or the payload contents.
func (s *Signer) Sign(payload any) (string, error) {
	canonical, err := Canonical(payload)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Canonical returns the stable byte encoding of a payload. Strings and byte
// slices pass through unchanged; anything else is JSON-encoded, which yields
// lexically sorted keys for maps and declaration order for structs.
func Canonical(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, apierror.New(apierror.CategoryConfig, "signature payload must not be nil")
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		encoded, err := json.Marshal(p)
		if err != nil {
			// deliberately omits the payload: it may carry credentials
			return nil, apierror.Wrap(apierror.CategoryConfig, err,
				fmt.Sprintf("signature payload of type %T is not encodable", payload))
		}
		return encoded, nil
	}
}

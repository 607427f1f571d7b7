package esimlink

import "net/http"

// Option customizes client construction beyond what Config expresses.
type Option func(*clientOptions)

type clientOptions struct {
	transport http.RoundTripper
}

// WithTransport replaces the underlying HTTP round tripper, e.g. to add
// custom instrumentation or to stub the network in tests. Observability
// instrumentation configured via Config wraps the provided transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = transport
	}
}

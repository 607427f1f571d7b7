// Package observe wires OpenTelemetry instrumentation into the SDK's
// outbound HTTP traffic.
package observe

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Transport wraps the given round tripper with OTel client instrumentation,
// producing spans and metrics for every outbound request. A nil base uses
// http.DefaultTransport.
func Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return otelhttp.NewTransport(base,
		otelhttp.WithSpanNameFormatter(spanName),
	)
}

func spanName(_ string, r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

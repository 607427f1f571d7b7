package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// MockPartnerServer provides a configurable mock of the partner API for
// testing: a token endpoint plus any business endpoints registered with
// Handle. Counters are atomic because batch calls hit the server
// concurrently.
type MockPartnerServer struct {
	Server *httptest.Server

	Token       string // Token issued by the token endpoint
	ExpiresIn   int64  // Token lifetime in seconds
	TokenStatus int    // HTTP status for token requests (200 if not set)

	TokenRequests atomic.Int32 // Number of token requests received
	APIRequests   atomic.Int32 // Number of business requests received

	LastSignature  atomic.Value // Captured signature header from last token request
	LastAuthHeader atomic.Value // Captured Authorization header from last business request

	mux *http.ServeMux
}

// SetupMockPartnerServer creates a mock partner API server handling the
// client-credentials token endpoint. Business endpoints are added with
// Handle; each one enforces bearer authorization against the issued token.
func SetupMockPartnerServer(t *testing.T) *MockPartnerServer {
	t.Helper()

	mock := &MockPartnerServer{
		Token:       "test-access-token",
		ExpiresIn:   3600,
		TokenStatus: http.StatusOK,
		mux:         http.NewServeMux(),
	}

	mock.mux.HandleFunc("POST /v2/token", func(w http.ResponseWriter, r *http.Request) {
		mock.TokenRequests.Add(1)
		mock.LastSignature.Store(r.Header.Get("esimlink-signature"))

		if mock.TokenStatus != http.StatusOK {
			w.WriteHeader(mock.TokenStatus)
			return
		}

		WriteJSON(w, map[string]any{
			"access_token": mock.Token,
			"token_type":   "Bearer",
			"expires_in":   mock.ExpiresIn,
		})
	})

	mock.Server = httptest.NewServer(mock.mux)
	t.Cleanup(mock.Server.Close)

	return mock
}

// Handle registers a business endpoint returning the given payload as JSON.
// Requests lacking the issued bearer token are rejected with 401.
func (m *MockPartnerServer) Handle(pattern string, payload any) {
	m.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, payload)
	})
}

// HandleFunc registers a business endpoint with a custom handler, keeping
// the bearer check and request counting.
func (m *MockPartnerServer) HandleFunc(pattern string, handler http.HandlerFunc) {
	m.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		m.APIRequests.Add(1)
		m.LastAuthHeader.Store(r.Header.Get("Authorization"))

		if r.Header.Get("Authorization") != "Bearer "+m.Token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		handler(w, r)
	})
}

// URL returns the server's base URL.
func (m *MockPartnerServer) URL() string {
	return m.Server.URL
}

// WriteJSON writes a JSON response with the appropriate content type.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal JSON: %v", err), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}

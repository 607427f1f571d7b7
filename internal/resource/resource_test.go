package resource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/esimlink/esimlink-go/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		WaitMin:     time.Millisecond,
		WaitMax:     5 * time.Millisecond,
	}
}

func TestDo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/packages", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "sig-value", r.Header.Get("esimlink-signature"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"pkg-1"}]}`))
	}))
	defer server.Close()

	res := New(Options{BaseURL: server.URL, Retry: fastRetry(2)})

	result := res.Do(context.Background(), Spec{
		Method: http.MethodGet,
		Path:   "/v2/packages",
		Query:  map[string][]string{"limit": {"25"}},
		Header: map[string][]string{"esimlink-signature": {"sig-value"}},
	})

	require.True(t, result.Ok())
	assert.Equal(t, http.StatusOK, result.StatusCode)

	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, result.JSON(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "pkg-1", body.Data[0].ID)
}

func TestDo_RetriesServerErrorsOnGet(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// three failures, then success: within a 4-attempt budget
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	res := New(Options{BaseURL: server.URL, Retry: fastRetry(4)})

	result := res.Do(context.Background(), Spec{Method: http.MethodGet, Path: "/v2/packages"})

	require.True(t, result.Ok())
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, int32(4), calls.Load())
}

func TestDo_RetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	res := New(Options{BaseURL: server.URL, Retry: fastRetry(3)})

	result := res.Do(context.Background(), Spec{Method: http.MethodGet, Path: "/v2/packages"})

	require.False(t, result.Ok())
	assert.Equal(t, int32(3), calls.Load())

	cat, ok := apierror.CategoryOf(result.Err)
	require.True(t, ok)
	assert.Equal(t, apierror.CategoryAPI, cat)
	assert.True(t, apierror.IsRetryable(result.Err))
}

func TestDo_PostNotRetriedByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	res := New(Options{BaseURL: server.URL, Retry: fastRetry(4)})

	result := res.Do(context.Background(), Spec{Method: http.MethodPost, Path: "/v2/orders", Body: map[string]any{"package_id": "pkg-1"}})

	require.False(t, result.Ok())
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_PostRetriedWhenMarkedRetryable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	res := New(Options{BaseURL: server.URL, Retry: fastRetry(3)})

	result := res.Do(context.Background(), Spec{
		Method:    http.MethodPost,
		Path:      "/v2/orders",
		Retryable: true,
	})

	require.True(t, result.Ok())
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"quantity must be positive"}`))
	}))
	defer server.Close()

	res := New(Options{BaseURL: server.URL, Retry: fastRetry(4)})

	result := res.Do(context.Background(), Spec{Method: http.MethodGet, Path: "/v2/orders"})

	require.False(t, result.Ok())
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *apierror.Error
	require.ErrorAs(t, result.Err, &apiErr)
	assert.Equal(t, apierror.CategoryAPI, apiErr.Category)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "quantity must be positive")
	assert.False(t, apierror.IsRetryable(result.Err))
}

func TestDo_UnauthorizedSurfacesAuthExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	res := New(Options{BaseURL: server.URL, Retry: fastRetry(2)})

	result := res.Do(context.Background(), Spec{Method: http.MethodGet, Path: "/v2/packages"})

	require.False(t, result.Ok())
	cat, ok := apierror.CategoryOf(result.Err)
	require.True(t, ok)
	assert.Equal(t, apierror.CategoryAuthExpired, cat)
}

func TestDo_TimeoutCategorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	res := New(Options{BaseURL: server.URL, Timeout: 20 * time.Millisecond, Retry: fastRetry(1)})

	result := res.Do(context.Background(), Spec{Method: http.MethodGet, Path: "/slow"})

	require.False(t, result.Ok())
	cat, ok := apierror.CategoryOf(result.Err)
	require.True(t, ok)
	assert.Equal(t, apierror.CategoryTimeout, cat)
}

func TestDo_ConnectionFailureCategorized(t *testing.T) {
	res := New(Options{BaseURL: "http://localhost:1", Retry: fastRetry(1)})

	result := res.Do(context.Background(), Spec{Method: http.MethodGet, Path: "/anything"})

	require.False(t, result.Ok())
	cat, ok := apierror.CategoryOf(result.Err)
	require.True(t, ok)
	assert.Equal(t, apierror.CategoryNetwork, cat)
}

func TestDo_TagCarriedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	res := New(Options{BaseURL: server.URL, Retry: fastRetry(1)})

	result := res.Do(context.Background(), Spec{Method: http.MethodGet, Path: "/x", Tag: "slot-3"})
	assert.Equal(t, "slot-3", result.Tag)
	assert.False(t, result.Ok())
}

func TestDefaultRetryCondition(t *testing.T) {
	assert.False(t, DefaultRetryCondition(nil, context.Canceled))
	assert.False(t, DefaultRetryCondition(nil, context.DeadlineExceeded))
}

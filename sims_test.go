package esimlink

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimlink/esimlink-go/apierror"
	"github.com/esimlink/esimlink-go/internal/testhelpers"
)

const testICCID = "891000000000000001"

func TestSims_List(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)

	var limit, page string
	mock.HandleFunc("GET /v2/sims", func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("limit")
		page = r.URL.Query().Get("page")
		testhelpers.WriteJSON(w, map[string]any{
			"data": []any{map[string]any{"iccid": testICCID, "lpa": "lpa.example.com"}},
		})
	})

	client := newTestClient(t, mock)

	sims, err := client.Sims(context.Background(), 10, 2)
	require.NoError(t, err)

	require.Len(t, sims, 1)
	assert.Equal(t, testICCID, sims[0].ICCID)
	assert.Equal(t, "10", limit)
	assert.Equal(t, "2", page)
}

func TestUsage(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)
	mock.Handle("GET /v2/sims/"+testICCID+"/usage", map[string]any{
		"data": map[string]any{"status": "ACTIVE", "remaining": 512, "total": 1024},
	})

	client := newTestClient(t, mock)

	usage, err := client.Usage(context.Background(), testICCID)
	require.NoError(t, err)

	assert.Equal(t, "ACTIVE", usage.Status)
	assert.Equal(t, int64(512), usage.Remaining)
}

func TestUsage_RejectsInvalidICCID(t *testing.T) {
	client := newTestClient(t, testhelpers.SetupMockPartnerServer(t))

	for _, iccid := range []string{"", "123", "89100000000000000x", "12345678901234567890123"} {
		_, err := client.Usage(context.Background(), iccid)
		require.Error(t, err, "iccid %q", iccid)

		cat, _ := apierror.CategoryOf(err)
		assert.Equal(t, apierror.CategoryConfig, cat)
	}
}

func TestBulkUsage(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)

	iccids := make([]string, 4)
	for i := range iccids {
		iccids[i] = fmt.Sprintf("89100000000000000%d", i)
		iccid := iccids[i]
		mock.Handle("GET /v2/sims/"+iccid+"/usage", map[string]any{
			"data": map[string]any{"status": "ACTIVE", "remaining": i},
		})
	}

	client := newTestClient(t, mock)

	results, err := client.BulkUsage(context.Background(), iccids)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, result := range results {
		require.NoError(t, result.Err, "slot %d", i)
		assert.Equal(t, iccids[i], result.ICCID)
		assert.Equal(t, int64(i), result.Usage.Remaining)
	}

	assert.Equal(t, int32(1), mock.TokenRequests.Load())
}

func TestBulkUsage_SlotFailureIsIsolated(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)
	mock.Handle("GET /v2/sims/"+testICCID+"/usage", map[string]any{
		"data": map[string]any{"status": "ACTIVE"},
	})
	// the second iccid has no registered route and 404s

	client := newTestClient(t, mock)

	results, err := client.BulkUsage(context.Background(), []string{testICCID, "891000000000000009"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
}

func TestInstructions_SendsLanguageHeader(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)

	var language string
	mock.HandleFunc("GET /v2/sims/"+testICCID+"/instructions", func(w http.ResponseWriter, r *http.Request) {
		language = r.Header.Get("Accept-Language")
		testhelpers.WriteJSON(w, map[string]any{
			"data": map[string]any{
				"language": "ja",
				"ios": []any{
					map[string]any{"model": "iPhone", "steps": map[string]any{"1": "設定を開く"}},
				},
			},
		})
	})

	client := newTestClient(t, mock)

	instructions, err := client.Instructions(context.Background(), testICCID, "ja")
	require.NoError(t, err)

	assert.Equal(t, "ja", language)
	assert.Equal(t, "ja", instructions.Language)
	require.Len(t, instructions.IOS, 1)
	assert.Equal(t, "設定を開く", instructions.IOS[0].Steps["1"])
}

func TestPackageHistory(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)
	mock.Handle("GET /v2/sims/"+testICCID+"/packages", map[string]any{
		"data": []any{map[string]any{"id": "pkg-1", "data": "1 GB"}},
	})

	client := newTestClient(t, mock)

	history, err := client.PackageHistory(context.Background(), testICCID)
	require.NoError(t, err)

	require.Len(t, history, 1)
	assert.Equal(t, "pkg-1", history[0].ID)
}

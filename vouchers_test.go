package esimlink

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimlink/esimlink-go/apierror"
	"github.com/esimlink/esimlink-go/internal/testhelpers"
)

func TestCreateVouchers(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)

	var received VoucherRequest
	mock.HandleFunc("POST /v2/voucher/airmoney", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		testhelpers.WriteJSON(w, map[string]any{
			"data": []any{
				map[string]any{"id": 1, "code": "AIR-1", "amount": received.Amount},
				map[string]any{"id": 2, "code": "AIR-2", "amount": received.Amount},
			},
		})
	})

	client := newTestClient(t, mock)

	vouchers, err := client.CreateVouchers(context.Background(), VoucherRequest{
		Amount:   25,
		Quantity: 2,
	})
	require.NoError(t, err)

	require.Len(t, vouchers, 2)
	assert.Equal(t, "AIR-1", vouchers[0].Code)
	assert.Equal(t, float64(25), received.Amount)
}

func TestCreateVouchers_Validation(t *testing.T) {
	client := newTestClient(t, testhelpers.SetupMockPartnerServer(t))

	tests := []struct {
		name string
		req  VoucherRequest
	}{
		{"zero amount", VoucherRequest{Quantity: 1}},
		{"zero quantity", VoucherRequest{Amount: 10}},
		{"fixed code with multiple vouchers", VoucherRequest{Amount: 10, Quantity: 2, VoucherCode: "FIXED"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.CreateVouchers(context.Background(), tc.req)
			require.Error(t, err)

			cat, _ := apierror.CategoryOf(err)
			assert.Equal(t, apierror.CategoryConfig, cat)
		})
	}
}

func TestCreateEsimVouchers(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)
	mock.Handle("POST /v2/voucher/esim", map[string]any{
		"data": []any{
			map[string]any{"package_id": "pkg-1", "codes": []any{"ESIM-1", "ESIM-2"}},
		},
	})

	client := newTestClient(t, mock)

	vouchers, err := client.CreateEsimVouchers(context.Background(), EsimVoucherRequest{
		Vouchers: []EsimVoucherEntry{{PackageID: "pkg-1", Quantity: 2}},
	})
	require.NoError(t, err)

	require.Len(t, vouchers, 1)
	assert.Equal(t, []string{"ESIM-1", "ESIM-2"}, vouchers[0].Codes)

	_, err = client.CreateEsimVouchers(context.Background(), EsimVoucherRequest{})
	require.Error(t, err)

	_, err = client.CreateEsimVouchers(context.Background(), EsimVoucherRequest{
		Vouchers: []EsimVoucherEntry{{PackageID: "", Quantity: 1}},
	})
	require.Error(t, err)
}

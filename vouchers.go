package esimlink

import (
	"context"

	"github.com/esimlink/esimlink-go/apierror"
)

// Voucher endpoints.
const (
	vouchersPath     = "/v2/voucher/airmoney"
	esimVouchersPath = "/v2/voucher/esim"
)

// VoucherRequest issues credit vouchers.
type VoucherRequest struct {
	Amount     float64 `json:"amount"`
	Quantity   int     `json:"quantity"`
	UsageLimit int     `json:"usage_limit,omitempty"`
	IsPaid     bool    `json:"is_paid,omitempty"`

	// VoucherCode requests a specific code; only valid with quantity 1.
	VoucherCode string `json:"voucher_code,omitempty"`
}

func (r VoucherRequest) validate() error {
	if r.Amount <= 0 {
		return apierror.New(apierror.CategoryConfig, "voucher amount must be positive")
	}
	if r.Quantity < 1 {
		return apierror.New(apierror.CategoryConfig, "voucher quantity must be at least 1")
	}
	if r.VoucherCode != "" && r.Quantity > 1 {
		return apierror.New(apierror.CategoryConfig, "a fixed voucher code requires quantity 1")
	}
	return nil
}

// Voucher is an issued credit voucher.
type Voucher struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	Amount    float64 `json:"amount"`
	IsPaid    bool    `json:"is_paid"`
	ExpiresAt string  `json:"expires_at"`
}

// CreateVouchers issues credit vouchers.
func (c *Client) CreateVouchers(ctx context.Context, req VoucherRequest) ([]Voucher, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var resp struct {
		Data []Voucher `json:"data"`
	}
	if err := c.post(ctx, vouchersPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// EsimVoucherRequest issues vouchers redeemable for specific packages.
type EsimVoucherRequest struct {
	Vouchers []EsimVoucherEntry `json:"vouchers"`
}

// EsimVoucherEntry requests vouchers for one package.
type EsimVoucherEntry struct {
	PackageID string `json:"package_id"`
	Quantity  int    `json:"quantity"`
}

// EsimVoucher is an issued package voucher.
type EsimVoucher struct {
	PackageID string   `json:"package_id"`
	Codes     []string `json:"codes"`
	BookingID string   `json:"booking_reference"`
}

// CreateEsimVouchers issues vouchers redeemable for eSIM packages.
func (c *Client) CreateEsimVouchers(ctx context.Context, req EsimVoucherRequest) ([]EsimVoucher, error) {
	if len(req.Vouchers) == 0 {
		return nil, apierror.New(apierror.CategoryConfig, "esim voucher request needs at least one entry")
	}
	for _, entry := range req.Vouchers {
		if entry.PackageID == "" || entry.Quantity < 1 {
			return nil, apierror.New(apierror.CategoryConfig,
				"esim voucher entries need a package_id and a positive quantity")
		}
	}

	var resp struct {
		Data []EsimVoucher `json:"data"`
	}
	if err := c.post(ctx, esimVouchersPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

package esimlink

import (
	"context"

	"github.com/esimlink/esimlink-go/apierror"
)

const topupsPath = "/v2/orders/topups"

// TopupRequest applies a data package to an existing eSIM.
type TopupRequest struct {
	PackageID   string `json:"package_id"`
	ICCID       string `json:"iccid"`
	Description string `json:"description,omitempty"`
}

func (r TopupRequest) validate() error {
	if r.PackageID == "" {
		return apierror.New(apierror.CategoryConfig, "topup package_id is required")
	}
	return validICCID(r.ICCID)
}

// Topup is a completed topup order.
type Topup struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	PackageID string  `json:"package_id"`
	ICCID     string  `json:"iccid"`
	Currency  string  `json:"currency"`
	Price     float64 `json:"price"`
	CreatedAt string  `json:"created_at"`
}

// CreateTopup applies the given package to an existing eSIM.
func (c *Client) CreateTopup(ctx context.Context, req TopupRequest) (*Topup, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var resp struct {
		Data Topup `json:"data"`
	}
	if err := c.post(ctx, topupsPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

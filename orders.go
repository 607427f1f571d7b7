package esimlink

import (
	"context"

	"github.com/esimlink/esimlink-go/apierror"
	"github.com/esimlink/esimlink-go/internal/resource"
)

// Order endpoints.
const (
	ordersPath      = "/v2/orders"
	asyncOrdersPath = "/v2/orders-async"
)

// Order quantity bounds.
const (
	// OrderQuantityLimit is the maximum quantity accepted per order.
	OrderQuantityLimit = 50

	// BulkOrderLimit is the maximum number of orders per bulk submission.
	BulkOrderLimit = 50
)

// OrderRequest describes an eSIM order.
type OrderRequest struct {
	PackageID   string `json:"package_id"`
	Quantity    int    `json:"quantity"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`

	// WebhookURL receives the completion callback for async orders.
	WebhookURL string `json:"webhook_url,omitempty"`

	// EmailSimShare fields, populated by CreateOrderWithEmailSimShare.
	ToEmail       string   `json:"to_email,omitempty"`
	SharingOption []string `json:"sharing_option,omitempty"`
	CopyAddress   []string `json:"copy_address,omitempty"`
}

func (r *OrderRequest) validate() error {
	if r.PackageID == "" {
		return apierror.New(apierror.CategoryConfig, "order package_id is required")
	}
	if r.Quantity < 1 || r.Quantity > OrderQuantityLimit {
		return apierror.Newf(apierror.CategoryConfig,
			"order quantity must be between 1 and %d", OrderQuantityLimit)
	}
	if r.Type == "" {
		r.Type = "sim"
	}
	return nil
}

// EmailSimShare directs issued eSIMs to be shared by email.
type EmailSimShare struct {
	ToEmail       string
	SharingOption []string
	CopyAddress   []string
}

var sharingOptions = map[string]bool{"link": true, "pdf": true}

func (s EmailSimShare) validate() error {
	if s.ToEmail == "" {
		return apierror.New(apierror.CategoryConfig, "sim share to_email is required")
	}
	if len(s.SharingOption) == 0 {
		return apierror.New(apierror.CategoryConfig, "sim share sharing_option is required")
	}
	for _, opt := range s.SharingOption {
		if !sharingOptions[opt] {
			return apierror.Newf(apierror.CategoryConfig,
				"sim share sharing_option %q must be link or pdf", opt)
		}
	}
	return nil
}

// Order is a completed order with its issued eSIMs.
type Order struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	PackageID   string  `json:"package_id"`
	Quantity    int     `json:"quantity"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Currency    string  `json:"currency"`
	Price       float64 `json:"price"`
	Sims        []Sim   `json:"sims"`
}

// AsyncOrder acknowledges an asynchronous order submission.
type AsyncOrder struct {
	RequestID  string `json:"request_id"`
	AcceptedAt string `json:"accepted_at"`
}

// CreateOrder submits an order and returns the issued eSIMs.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var resp struct {
		Data Order `json:"data"`
	}
	if err := c.post(ctx, ordersPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CreateOrderWithEmailSimShare submits an order whose eSIMs are shared with
// the given email recipient.
func (c *Client) CreateOrderWithEmailSimShare(ctx context.Context, req OrderRequest, share EmailSimShare) (*Order, error) {
	if err := share.validate(); err != nil {
		return nil, err
	}

	req.ToEmail = share.ToEmail
	req.SharingOption = share.SharingOption
	req.CopyAddress = share.CopyAddress

	return c.CreateOrder(ctx, req)
}

// CreateOrderAsync submits an order for asynchronous processing. The result
// is delivered to the request's webhook URL.
func (c *Client) CreateOrderAsync(ctx context.Context, req OrderRequest) (*AsyncOrder, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var resp struct {
		Data AsyncOrder `json:"data"`
	}
	if err := c.post(ctx, asyncOrdersPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// BulkOrderResult pairs one bulk slot with its outcome. Exactly one of Order
// or Err is set.
type BulkOrderResult struct {
	PackageID string
	Order     *Order
	Err       error
}

// CreateBulkOrders submits up to BulkOrderLimit orders concurrently, one
// request per entry. Results align positionally with the input; each slot
// succeeds or fails on its own.
func (c *Client) CreateBulkOrders(ctx context.Context, reqs []OrderRequest) ([]BulkOrderResult, error) {
	if len(reqs) == 0 {
		return nil, apierror.New(apierror.CategoryConfig, "bulk order needs at least one entry")
	}
	if len(reqs) > BulkOrderLimit {
		return nil, apierror.Newf(apierror.CategoryConfig,
			"bulk order size %d exceeds the limit of %d", len(reqs), BulkOrderLimit)
	}

	specs := make([]resource.Spec, len(reqs))
	for i := range reqs {
		if err := reqs[i].validate(); err != nil {
			return nil, err
		}

		spec, err := c.signedSpec(ordersPath, reqs[i])
		if err != nil {
			return nil, err
		}
		spec.Tag = reqs[i].PackageID
		specs[i] = spec
	}

	results := c.authorized.DoAll(ctx, specs)

	out := make([]BulkOrderResult, len(results))
	for i, result := range results {
		out[i] = BulkOrderResult{PackageID: reqs[i].PackageID}

		if result.Err != nil {
			out[i].Err = result.Err
			continue
		}

		var resp struct {
			Data Order `json:"data"`
		}
		if err := result.JSON(&resp); err != nil {
			out[i].Err = err
			continue
		}
		out[i].Order = &resp.Data
	}

	return out, nil
}

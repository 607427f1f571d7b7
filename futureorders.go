package esimlink

import (
	"context"
	"time"

	"github.com/esimlink/esimlink-go/apierror"
)

// Future order endpoints.
const (
	futureOrdersPath       = "/v2/future-orders"
	cancelFutureOrdersPath = "/v2/cancel-future-orders"
)

// FutureOrderDueDateFormat is the timestamp layout accepted by the future
// order endpoint (UTC, minute precision).
const FutureOrderDueDateFormat = "2006-01-02 15:04"

// FutureOrderRequest schedules an order for a future date.
type FutureOrderRequest struct {
	PackageID   string `json:"package_id"`
	Quantity    int    `json:"quantity"`
	DueDate     string `json:"due_date"`
	Description string `json:"description,omitempty"`
	WebhookURL  string `json:"webhook_url,omitempty"`

	ToEmail       string   `json:"to_email,omitempty"`
	SharingOption []string `json:"sharing_option,omitempty"`
	CopyAddress   []string `json:"copy_address,omitempty"`
}

func (r FutureOrderRequest) validate() error {
	if r.PackageID == "" {
		return apierror.New(apierror.CategoryConfig, "future order package_id is required")
	}
	if r.Quantity < 1 || r.Quantity > OrderQuantityLimit {
		return apierror.Newf(apierror.CategoryConfig,
			"future order quantity must be between 1 and %d", OrderQuantityLimit)
	}
	if _, err := time.Parse(FutureOrderDueDateFormat, r.DueDate); err != nil {
		return apierror.Newf(apierror.CategoryConfig,
			"future order due_date must match %q", FutureOrderDueDateFormat)
	}
	return nil
}

// FutureOrder acknowledges a scheduled order.
type FutureOrder struct {
	RequestID string `json:"request_id"`
	DueDate   string `json:"due_date"`
}

// CreateFutureOrder schedules an order for the request's due date.
func (c *Client) CreateFutureOrder(ctx context.Context, req FutureOrderRequest) (*FutureOrder, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var resp struct {
		Data FutureOrder `json:"data"`
	}
	if err := c.post(ctx, futureOrdersPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CancelFutureOrders cancels scheduled orders by their request ids.
func (c *Client) CancelFutureOrders(ctx context.Context, requestIDs []string) error {
	if len(requestIDs) == 0 {
		return apierror.New(apierror.CategoryConfig, "cancellation needs at least one request id")
	}

	payload := struct {
		RequestIDs []string `json:"request_ids"`
	}{RequestIDs: requestIDs}

	var resp struct {
		Data any `json:"data"`
	}
	return c.post(ctx, cancelFutureOrdersPath, payload, &resp)
}

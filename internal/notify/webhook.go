// Package notify delivers order status changes to an operator-configured
// webhook endpoint.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/florista/backend/internal/orders"
)

// WebhookNotifier POSTs a JSON payload to the configured URL on every
// committed status change. Delivery is best effort; the order engine logs and
// drops failures.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhookNotifier creates a notifier for the given endpoint
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	return &WebhookNotifier{
		client: client,
		url:    url,
		logger: logger,
	}
}

type statusChangePayload struct {
	OrderID        int64  `json:"order_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	DeliveryDate   string `json:"delivery_date,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

// NotifyStatusChange implements orders.StatusNotifier
func (n *WebhookNotifier) NotifyStatusChange(ctx context.Context, order *orders.Order, previous orders.Status) error {
	payload := statusChangePayload{
		OrderID:        order.ID,
		PreviousStatus: string(previous),
		Status:         string(order.Status),
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if order.DeliveryDate != nil {
		payload.DeliveryDate = order.DeliveryDate.UTC().Format(time.RFC3339)
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	n.logger.Debug("status webhook delivered",
		zap.Int64("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)
	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/florista/backend/internal/orders"
)

func TestNotifyStatusChangeDeliversPayload(t *testing.T) {
	var received statusChangePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, zap.NewNop())

	delivered := time.Date(2025, 8, 10, 15, 0, 0, 0, time.UTC)
	order := orders.NewOrder(7, "Jane Doe", "12 Tulip Street", "555-0100", "")
	order.ID = 31
	order.Status = orders.StatusDelivered
	order.DeliveryDate = &delivered

	err := notifier.NotifyStatusChange(context.Background(), order, orders.StatusOnTheWay)
	require.NoError(t, err)

	assert.Equal(t, int64(31), received.OrderID)
	assert.Equal(t, "OnTheWay", received.PreviousStatus)
	assert.Equal(t, "Delivered", received.Status)
	assert.Equal(t, "2025-08-10T15:00:00Z", received.DeliveryDate)
	assert.NotEmpty(t, received.OccurredAt)
}

func TestNotifyStatusChangeReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, zap.NewNop())
	order := orders.NewOrder(7, "Jane Doe", "12 Tulip Street", "555-0100", "")
	order.ID = 31

	err := notifier.NotifyStatusChange(context.Background(), order, orders.StatusPending)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook returned status 500")
}

package orders

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/florista/backend/internal/catalog"
	apperrors "github.com/florista/backend/pkg/errors"
)

func TestNewOrder(t *testing.T) {
	order := NewOrder(42, "Jane Doe", "12 Tulip Street", "555-0100", "ring twice")

	if order.CustomerID != 42 {
		t.Errorf("Expected CustomerID 42, got %d", order.CustomerID)
	}
	if order.Status != StatusPending {
		t.Errorf("Expected Status %s, got %s", StatusPending, order.Status)
	}
	if !order.TotalAmount.IsZero() {
		t.Errorf("Expected zero total, got %s", order.TotalAmount)
	}
	if order.DeliveryDate != nil {
		t.Error("Expected DeliveryDate to be unset")
	}
	if order.OrderDate.IsZero() {
		t.Error("Expected OrderDate to be set")
	}

	now := time.Now().UTC()
	if order.OrderDate.After(now) || order.OrderDate.Before(now.Add(-time.Second)) {
		t.Error("OrderDate is not within expected time range")
	}
}

func TestAddLineSnapshotsPricing(t *testing.T) {
	item := &catalog.Item{
		ID:    1,
		Name:  "Rose Bouquet",
		Price: decimal.RequireFromString("25.00"),
	}

	order := NewOrder(1, "Jane Doe", "12 Tulip Street", "555-0100", "")
	order.AddLine(item, 3)

	if len(order.Lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(order.Lines))
	}
	line := order.Lines[0]
	if line.ItemName != "Rose Bouquet" {
		t.Errorf("Expected snapshot name 'Rose Bouquet', got %q", line.ItemName)
	}
	if !line.UnitPrice.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("Expected unit price 25.00, got %s", line.UnitPrice)
	}
	if !line.TotalPrice.Equal(decimal.RequireFromString("75.00")) {
		t.Errorf("Expected line total 75.00, got %s", line.TotalPrice)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("75.00")) {
		t.Errorf("Expected order total 75.00, got %s", order.TotalAmount)
	}

	// Later catalog edits must not affect the snapshot
	item.Price = decimal.RequireFromString("99.00")
	if !order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("25.00")) {
		t.Error("line snapshot changed with the catalog price")
	}
}

func TestAddLineAccumulatesTotal(t *testing.T) {
	rose := &catalog.Item{ID: 1, Name: "Rose", Price: decimal.RequireFromString("10.50")}
	lily := &catalog.Item{ID: 2, Name: "Lily", Price: decimal.RequireFromString("4.25")}

	order := NewOrder(1, "Jane Doe", "12 Tulip Street", "555-0100", "")
	order.AddLine(rose, 2)
	order.AddLine(lily, 4)

	want := decimal.RequireFromString("38.00") // 2*10.50 + 4*4.25
	if !order.TotalAmount.Equal(want) {
		t.Errorf("Expected total %s, got %s", want, order.TotalAmount)
	}
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"Pending", "Preparing", "OnTheWay", "Delivered", "Cancelled"} {
		status, err := ParseStatus(raw)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned error: %v", raw, err)
		}
		if string(status) != raw {
			t.Errorf("ParseStatus(%q) = %q", raw, status)
		}
	}

	if _, err := ParseStatus("Shipped"); err == nil {
		t.Error("Expected error for unknown status")
	}
	if _, err := ParseStatus("pending"); err == nil {
		t.Error("Status parsing should be case sensitive")
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusPreparing.Terminal() || StatusOnTheWay.Terminal() {
		t.Error("in-flight statuses must not be terminal")
	}
	if !StatusDelivered.Terminal() || !StatusCancelled.Terminal() {
		t.Error("Delivered and Cancelled must be terminal")
	}
}

func TestStatusTransitionTable(t *testing.T) {
	all := []Status{StatusPending, StatusPreparing, StatusOnTheWay, StatusDelivered, StatusCancelled}

	for _, from := range []Status{StatusPending, StatusPreparing, StatusOnTheWay} {
		for _, to := range all {
			if from == to {
				continue
			}
			if !from.CanTransitionTo(to) {
				t.Errorf("Expected %s -> %s to be allowed", from, to)
			}
		}
	}

	for _, from := range []Status{StatusDelivered, StatusCancelled} {
		for _, to := range all {
			if from.CanTransitionTo(to) {
				t.Errorf("Expected terminal %s to reject transition to %s", from, to)
			}
		}
	}
}

func TestApplyStatusDeliveredSetsTimestamp(t *testing.T) {
	order := NewOrder(1, "Jane Doe", "12 Tulip Street", "555-0100", "")
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	if err := order.ApplyStatus(StatusDelivered, now); err != nil {
		t.Fatalf("ApplyStatus returned error: %v", err)
	}
	if order.Status != StatusDelivered {
		t.Errorf("Expected status Delivered, got %s", order.Status)
	}
	if order.DeliveryDate == nil || !order.DeliveryDate.Equal(now) {
		t.Errorf("Expected delivery date %v, got %v", now, order.DeliveryDate)
	}
}

func TestApplyStatusKeepsExistingDeliveryDate(t *testing.T) {
	existing := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	order := NewOrder(1, "Jane Doe", "12 Tulip Street", "555-0100", "")
	order.Status = StatusOnTheWay
	order.DeliveryDate = &existing

	if err := order.ApplyStatus(StatusDelivered, time.Now()); err != nil {
		t.Fatalf("ApplyStatus returned error: %v", err)
	}
	if !order.DeliveryDate.Equal(existing) {
		t.Errorf("Expected delivery date to stay %v, got %v", existing, order.DeliveryDate)
	}
}

func TestApplyStatusRejectsTerminalTransitions(t *testing.T) {
	order := NewOrder(1, "Jane Doe", "12 Tulip Street", "555-0100", "")
	order.Status = StatusDelivered

	err := order.ApplyStatus(StatusPending, time.Now())
	if err == nil {
		t.Fatal("Expected error when leaving a terminal state")
	}
	if !apperrors.Is(err, apperrors.CodeInvalidInput) {
		t.Errorf("Expected InvalidInput, got %s", apperrors.CodeOf(err))
	}
}

func TestApplyStatusCancelledHasNoDeliveryTimestamp(t *testing.T) {
	order := NewOrder(1, "Jane Doe", "12 Tulip Street", "555-0100", "")

	if err := order.ApplyStatus(StatusCancelled, time.Now()); err != nil {
		t.Fatalf("ApplyStatus returned error: %v", err)
	}
	if order.DeliveryDate != nil {
		t.Error("Cancelled must not set a delivery timestamp")
	}
}

package orders

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/florista/backend/pkg/errors"
)

// LineRequest is one requested (item, quantity) pair
type LineRequest struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

// PlaceOrderRequest is the input to the reservation algorithm
type PlaceOrderRequest struct {
	CustomerName    string        `json:"customer_name" binding:"required"`
	DeliveryAddress string        `json:"delivery_address" binding:"required"`
	PhoneNumber     string        `json:"phone_number" binding:"required"`
	Notes           string        `json:"notes"`
	Lines           []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (r PlaceOrderRequest) validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return apperrors.NewInvalidInput("customer name is required", "customer_name")
	}
	if strings.TrimSpace(r.DeliveryAddress) == "" {
		return apperrors.NewInvalidInput("delivery address is required", "delivery_address")
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return apperrors.NewInvalidInput("phone number is required", "phone_number")
	}
	if len(r.Lines) == 0 {
		return apperrors.NewInvalidInput("order must contain at least one line", "lines")
	}
	for _, line := range r.Lines {
		if line.Quantity < 1 {
			return apperrors.NewInvalidInput("line quantity must be at least 1", "quantity")
		}
	}
	return nil
}

// PlaceOrder turns a requested line set into a committed order with decremented
// stock, or rejects the whole request with no effect.
//
// All lines are validated and decremented inside one transaction. Item rows are
// read with a pessimistic lock, so the stock check and the decrement for a given
// item are serialized against competing orders: of two concurrent requests for
// an item's last units, at most one commits.
//
// Duplicate item ids are kept as independent lines. Because each lookup inside
// the transaction observes the decrements made by earlier lines, the combined
// quantity still fails atomically when it exceeds stock.
func (uc *UseCase) PlaceOrder(ctx context.Context, customerID int64, req PlaceOrderRequest) (*Order, error) {
	ctx, span := uc.tracer.Start(ctx, "place_order")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("customer_id", customerID),
		attribute.Int("line_count", len(req.Lines)),
	)

	if err := req.validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	tx, err := uc.ledger.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewInternal("begin order transaction", err)
	}
	defer tx.Rollback(ctx)

	order := NewOrder(customerID, req.CustomerName, req.DeliveryAddress, req.PhoneNumber, req.Notes)

	for _, line := range req.Lines {
		item, err := uc.ledger.ItemForUpdate(ctx, tx, line.ItemID)
		if err != nil {
			uc.rejectOrder(ctx, span, err, zap.Int64("item_id", line.ItemID))
			return nil, err
		}

		if !item.InStock(line.Quantity) {
			err := apperrors.NewInsufficientStock(item.Name, line.Quantity, item.StockQuantity)
			uc.rejectOrder(ctx, span, err, zap.Int64("item_id", item.ID))
			return nil, err
		}

		order.AddLine(item, line.Quantity)

		if err := uc.ledger.DecrementStock(ctx, tx, item.ID, line.Quantity); err != nil {
			span.RecordError(err)
			return nil, apperrors.NewInternal("decrement stock", err)
		}
	}

	if err := uc.ledger.InsertOrder(ctx, tx, order); err != nil {
		span.RecordError(err)
		return nil, apperrors.NewInternal("insert order", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, apperrors.NewInternal("commit order", err)
	}

	uc.placedCounter.Add(ctx, 1)
	span.SetAttributes(
		attribute.Int64("order_id", order.ID),
		attribute.String("total_amount", order.TotalAmount.String()),
	)
	uc.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", customerID),
		zap.String("total_amount", order.TotalAmount.String()),
		zap.Int("lines", len(order.Lines)),
	)

	uc.publish(ctx, EventOrderCreated, order, "")

	if uc.invalidator != nil {
		for _, line := range order.Lines {
			uc.invalidator.InvalidateItem(ctx, line.ItemID)
		}
	}

	return order, nil
}

// rejectOrder records a validation rejection. The deferred rollback discards
// any locks; nothing has been written at this point.
func (uc *UseCase) rejectOrder(ctx context.Context, span trace.Span, err error, fields ...zap.Field) {
	span.RecordError(err)
	uc.rejectedCounter.Add(ctx, 1)
	uc.logger.Info("order rejected", append(fields, zap.String("reason", apperrors.CodeOf(err)))...)
}

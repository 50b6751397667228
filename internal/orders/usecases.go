package orders

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/florista/backend/pkg/errors"
)

// StatusNotifier receives a callback after a committed status change.
// Implementations must not block order processing; failures are logged and
// dropped.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, order *Order, previous Status) error
}

// CacheInvalidator drops cached catalog reads after a committed stock change
type CacheInvalidator interface {
	InvalidateItem(ctx context.Context, itemID int64)
}

// UseCase contains the order engine business logic
type UseCase struct {
	ledger      Ledger
	events      EventPublisher
	notifier    StatusNotifier
	invalidator CacheInvalidator
	tracer      trace.Tracer
	logger      *zap.Logger

	placedCounter   metric.Int64Counter
	rejectedCounter metric.Int64Counter
}

// NewUseCase creates a new order UseCase. events and notifier may be nil when
// the corresponding integrations are disabled.
func NewUseCase(ledger Ledger, events EventPublisher, notifier StatusNotifier, tracer trace.Tracer, logger *zap.Logger) *UseCase {
	meter := otel.Meter("github.com/florista/backend/internal/orders")
	placed, _ := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Orders committed with decremented stock"))
	rejected, _ := meter.Int64Counter("orders_rejected_total",
		metric.WithDescription("Order placements rejected during validation"))

	return &UseCase{
		ledger:          ledger,
		events:          events,
		notifier:        notifier,
		tracer:          tracer,
		logger:          logger,
		placedCounter:   placed,
		rejectedCounter: rejected,
	}
}

// WithCacheInvalidator registers a hook that is called for every order line
// after a successful placement.
func (uc *UseCase) WithCacheInvalidator(invalidator CacheInvalidator) *UseCase {
	uc.invalidator = invalidator
	return uc
}

// GetOrder returns one order with its lines
func (uc *UseCase) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return uc.ledger.GetOrder(ctx, id)
}

// ListAll returns every order (operator view)
func (uc *UseCase) ListAll(ctx context.Context) ([]Order, error) {
	return uc.ledger.ListAll(ctx)
}

// ListByCustomer returns the orders owned by one customer
func (uc *UseCase) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return uc.ledger.ListByCustomer(ctx, customerID)
}

// ListByStatus returns the orders currently in the given status
func (uc *UseCase) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	if !status.Valid() {
		return nil, apperrors.NewInvalidInput("unknown order status: "+string(status), "status")
	}
	return uc.ledger.ListByStatus(ctx, status)
}

// UpdateStatus moves an order through the lifecycle state machine. Entering
// Delivered stamps the delivery timestamp; entering Cancelled does not restock
// the reserved items.
func (uc *UseCase) UpdateStatus(ctx context.Context, orderID int64, status Status) (*Order, error) {
	ctx, span := uc.tracer.Start(ctx, "update_order_status")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("status", string(status)),
	)

	order, err := uc.ledger.GetOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	previous := order.Status
	if err := order.ApplyStatus(status, time.Now()); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := uc.ledger.UpdateStatus(ctx, orderID, order.Status, order.DeliveryDate); err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.logger.Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(order.Status)),
	)

	if previous != order.Status {
		uc.publish(ctx, EventOrderStatusChanged, order, previous)
		uc.notify(ctx, order, previous)
	}
	return order, nil
}

// UpdateDetailsRequest is the administrative overwrite payload
type UpdateDetailsRequest struct {
	Status       string     `json:"status" binding:"required"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Notes        string     `json:"notes"`
}

// UpdateDetails overwrites status, delivery date and notes in one call. This
// is the operator correction path: it validates only that the order exists and
// the status is a member of the enumerated set, and deliberately bypasses the
// state machine and its delivery-timestamp side effect.
func (uc *UseCase) UpdateDetails(ctx context.Context, orderID int64, req UpdateDetailsRequest) (*Order, error) {
	status, err := ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	order, err := uc.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if err := uc.ledger.UpdateDetails(ctx, orderID, status, req.DeliveryDate, req.Notes); err != nil {
		return nil, err
	}

	order.Status = status
	order.DeliveryDate = req.DeliveryDate
	order.Notes = req.Notes

	uc.logger.Info("order details updated",
		zap.Int64("order_id", orderID),
		zap.String("status", string(status)),
	)

	if previous != order.Status {
		uc.publish(ctx, EventOrderStatusChanged, order, previous)
		uc.notify(ctx, order, previous)
	}
	return order, nil
}

// publish sends a domain event after commit. Event delivery is best effort and
// never fails the operation.
func (uc *UseCase) publish(ctx context.Context, eventType string, order *Order, previous Status) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, eventType, order, previous); err != nil {
		uc.logger.Warn("failed to publish order event",
			zap.String("event_type", eventType),
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}
}

func (uc *UseCase) notify(ctx context.Context, order *Order, previous Status) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.NotifyStatusChange(ctx, order, previous); err != nil {
		uc.logger.Warn("status webhook failed",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}
}

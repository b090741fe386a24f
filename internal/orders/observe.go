package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ariefcatur/canvas-orders/internal/logging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	useCaseCreate       = "order.create"
	useCaseGet          = "order.get"
	useCaseListMine     = "order.list_mine"
	useCaseListAll      = "order.list_all"
	useCaseUpdateStatus = "order.update_status"
	useCasePayment      = "order.update_payment"
	useCaseCancel       = "order.cancel"

	publishTimeout = 300 * time.Millisecond

	reasonRestockSkipped = "cancelled through status update; stock not returned"
)

// Outcome classifies err into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "error"
	}
}

// begin opens the span and returns the closure that records the outcome of the use case.
func (m *Manager) begin(ctx context.Context, useCase string) (context.Context, func(error)) {
	ctx, span := m.tracer.Start(ctx, "Orders."+useCase, trace.WithAttributes(
		attribute.String("use_case", useCase),
	))
	start := time.Now()

	return ctx, func(err error) {
		lat := time.Since(start)
		outcome := Outcome(err)
		m.metrics.ObserveUseCase(useCase, outcome, lat)

		fields := []zap.Field{
			zap.String("use_case", useCase),
			zap.String("outcome", outcome),
			zap.Float64("latency_seconds", lat.Seconds()),
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			fields = append(fields, zap.Error(err))
		} else {
			span.SetStatus(codes.Ok, outcome)
		}
		span.End()

		logger := logging.FromContext(ctx)
		if outcome == "error" {
			logger.Error("use_case_done", fields...)
			return
		}
		logger.Debug("use_case_done", fields...)
	}
}

func annotate(ctx context.Context, o *Order) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.String("order.status", string(o.Status)),
	)
}

// adjustInventory applies the stock side effect of o. Failures are logged and
// published for reconciliation; they never fail the surrounding operation.
func (m *Manager) adjustInventory(ctx context.Context, o *Order, direction string) {
	sign := -1
	if direction == directionRestock {
		sign = 1
	}
	adj := o.stockAdjustments(sign)
	if len(adj) == 0 || m.inventory == nil {
		return
	}

	failures, err := m.inventory.Apply(ctx, o.ID, adj)
	if err != nil {
		failures = make([]AdjustmentFailure, 0, len(adj))
		for _, a := range adj {
			failures = append(failures, AdjustmentFailure{Adjustment: a, Reason: err.Error()})
		}
	}
	m.reportFailures(ctx, o, direction, failures)
}

// skipRestock records the stock a status-driven cancellation leaves on the
// books. The items are not returned; the drift ledger picks them up.
func (m *Manager) skipRestock(ctx context.Context, o *Order) {
	adj := o.stockAdjustments(1)
	if len(adj) == 0 {
		return
	}
	failures := make([]AdjustmentFailure, 0, len(adj))
	for _, a := range adj {
		failures = append(failures, AdjustmentFailure{Adjustment: a, Reason: reasonRestockSkipped})
	}
	m.reportFailures(ctx, o, directionRestock, failures)
}

func (m *Manager) reportFailures(ctx context.Context, o *Order, direction string, failures []AdjustmentFailure) {
	if len(failures) == 0 {
		return
	}
	logger := logging.FromContext(ctx)
	for _, f := range failures {
		logger.Warn("inventory_adjust_failed",
			zap.String("order_id", o.ID),
			zap.String("product_id", f.ProductID),
			zap.String("direction", direction),
			zap.Int("delta_stock", f.DeltaStock),
			zap.Int("delta_sold", f.DeltaSold),
			zap.String("reason", f.Reason),
		)
	}
	m.metrics.AdjustFailed(direction, len(failures))
	m.publish(ctx, TopicInventoryAdjustmentFailed, EventInventoryAdjustmentFailed, o.ID, InventoryAdjustmentFailedPayload{
		OrderID:   o.ID,
		Direction: direction,
		Failures:  failures,
	})
}

// publish is best effort: the mutation has already been persisted.
func (m *Manager) publish(ctx context.Context, topic, eventType, orderID string, payload any) {
	if m.publisher == nil {
		return
	}
	logger := logging.FromContext(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("event_encode_failed", zap.String("event", eventType), zap.Error(err))
		return
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    m.now().UTC(),
		Producer:      m.service,
		CorrelationID: orderID,
		Payload:       body,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		env.TraceID = sc.TraceID().String()
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := m.publisher.Publish(pubCtx, topic, env); err != nil {
		logger.Warn("event_publish_failed",
			zap.String("event", eventType),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

// Package inventory consumes inventory.adjustment_failed events and records
// the stock drift they describe.
package inventory

import (
	"context"
	"fmt"

	kafkax "github.com/ariefcatur/canvas-orders/internal/kafka"
	"github.com/ariefcatur/canvas-orders/internal/logging"
	"github.com/ariefcatur/canvas-orders/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type DriftRecorder interface {
	Record(ctx context.Context, orderID string, failures []orders.AdjustmentFailure) error
}

// Deduper is satisfied by redisx.Dedup.
type Deduper interface {
	First(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Service struct {
	Drift DriftRecorder
	Dedup Deduper // optional
}

// HandleAdjustmentFailed is installed as the consumer handler.
func (s *Service) HandleAdjustmentFailed(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m)
	if err != nil {
		return err
	}
	if env.EventType != orders.EventInventoryAdjustmentFailed {
		return nil
	}
	logger := logging.FromContext(ctx).With(
		zap.String("event_id", env.EventID),
		zap.String("order_id", env.CorrelationID),
	)

	if s.Dedup != nil && env.EventID != "" {
		first, err := s.Dedup.First(ctx, env.EventID)
		if err != nil {
			logger.Warn("dedup_unavailable", zap.Error(err))
		} else if !first {
			logger.Debug("duplicate_event_skipped")
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.InventoryAdjustmentFailedPayload](env.Payload)
	if err != nil {
		return err
	}
	if len(p.Failures) == 0 {
		return nil
	}
	if err := s.Drift.Record(ctx, p.OrderID, p.Failures); err != nil {
		s.forget(ctx, env.EventID)
		return fmt.Errorf("record drift for order %s: %w", p.OrderID, err)
	}

	logger.Info("drift_recorded",
		zap.String("direction", p.Direction),
		zap.Int("products", len(p.Failures)),
	)
	return nil
}

func (s *Service) forget(ctx context.Context, eventID string) {
	if s.Dedup == nil || eventID == "" {
		return
	}
	if err := s.Dedup.Forget(ctx, eventID); err != nil {
		logging.FromContext(ctx).Warn("dedup_forget_failed", zap.String("event_id", eventID), zap.Error(err))
	}
}

package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated              = "OrderCreated"
	EventOrderStatusChanged        = "OrderStatusChanged"
	EventOrderPaymentUpdated       = "OrderPaymentUpdated"
	EventOrderCancelled            = "OrderCancelled"
	EventInventoryAdjustmentFailed = "InventoryAdjustmentFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID       string        `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	UserID        string        `json:"user_id"`
	Items         []LineItem    `json:"items"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Total         int64         `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID       string        `json:"order_id"`
	From          Status        `json:"from"`
	To            Status        `json:"to"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Message       string        `json:"message"`
}

type OrderPaymentUpdatedPayload struct {
	OrderID       string        `json:"order_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	Reason  string `json:"reason"`
	By      string `json:"by"`
}

type InventoryAdjustmentFailedPayload struct {
	OrderID   string              `json:"order_id"`
	Direction string              `json:"direction"` // deduct | restock
	Failures  []AdjustmentFailure `json:"failures"`
}

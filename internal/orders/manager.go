package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/canvas-orders/internal/auth"
	"github.com/ariefcatur/canvas-orders/internal/logging"
	"github.com/ariefcatur/canvas-orders/internal/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	msgCreated          = "order created"
	msgCancelled        = "order cancelled"
	msgPaymentConfirmed = "payment confirmed"

	directionDeduct  = "deduct"
	directionRestock = "restock"

	// attempts at a fresh order number after a unique index clash
	maxInsertAttempts = 3
)

// Manager owns the order lifecycle: creation, status and payment updates and
// cancellation, including the inventory side effects. It keeps no per-order
// state between calls; everything lives behind Repository and InventoryStore.
type Manager struct {
	repo      Repository
	inventory InventoryStore
	publisher Publisher
	metrics   *metrics.Metrics
	numbers   *NumberSequence
	tracer    trace.Tracer
	newID     func() string
	now       func() time.Time
	service   string
}

type Option func(*Manager)

func WithPublisher(p Publisher) Option { return func(m *Manager) { m.publisher = p } }

func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithIDGenerator(f func() string) Option { return func(m *Manager) { m.newID = f } }

func WithServiceName(name string) Option { return func(m *Manager) { m.service = name } }

func WithNumberSequence(seq *NumberSequence) Option { return func(m *Manager) { m.numbers = seq } }

func NewManager(repo Repository, inv InventoryStore, opts ...Option) *Manager {
	m := &Manager{
		repo:      repo,
		inventory: inv,
		numbers:   NewNumberSequence(),
		tracer:    otel.Tracer("github.com/ariefcatur/canvas-orders/internal/orders"),
		newID:     uuid.NewString,
		now:       time.Now,
		service:   "order-api",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type CreateOrderInput struct {
	Items           []LineItem
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	Financials
}

func (m *Manager) CreateOrder(ctx context.Context, ownerID string, in CreateOrderInput) (_ *Order, err error) {
	ctx, done := m.begin(ctx, useCaseCreate)
	defer func() { done(err) }()

	if err := validateCreate(ownerID, in); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	o := &Order{
		ID:              m.newID(),
		OrderNumber:     m.numbers.Next(now),
		OwnerID:         ownerID,
		Items:           append([]LineItem(nil), in.Items...),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   PaymentPending,
		Financials:      in.Financials,
		Status:          StatusPending,
		CreatedAt:       now,
	}
	o.appendTimeline(StatusPending, now, msgCreated)

	if err := m.insert(ctx, o); err != nil {
		return nil, wrapStore("insert order", err)
	}
	annotate(ctx, o)

	m.adjustInventory(ctx, o, directionDeduct)
	m.publish(ctx, TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.OwnerID,
		Items:         o.Items,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
	})
	return o, nil
}

// insert retries with a new id and order number when the store reports a
// conflict. A valid order never fails on a numbering clash between replicas.
func (m *Manager) insert(ctx context.Context, o *Order) error {
	var err error
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		if err = m.repo.Insert(ctx, o); !errors.Is(err, ErrConflict) {
			return err
		}
		logging.FromContext(ctx).Warn("order_number_conflict",
			zap.String("order_number", o.OrderNumber),
			zap.Int("attempt", attempt),
		)
		m.numbers.Reseed()
		o.ID = m.newID()
		o.OrderNumber = m.numbers.Next(o.CreatedAt)
	}
	return err
}

func (m *Manager) GetOrder(ctx context.Context, orderID string, requester auth.Identity) (_ *Order, err error) {
	ctx, done := m.begin(ctx, useCaseGet)
	defer func() { done(err) }()

	o, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !requester.Owns(o.OwnerID) && !requester.IsAdmin() {
		return nil, fmt.Errorf("%w to access this order", ErrForbidden)
	}
	return o, nil
}

func (m *Manager) ListOrdersForUser(ctx context.Context, ownerID string) (_ []Order, err error) {
	ctx, done := m.begin(ctx, useCaseListMine)
	defer func() { done(err) }()

	if ownerID == "" {
		return nil, validation("owner is required")
	}
	list, err := m.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, wrapStore("list orders", err)
	}
	return list, nil
}

func (m *Manager) ListAllOrders(ctx context.Context, requester auth.Identity) (_ []OrderWithOwner, err error) {
	ctx, done := m.begin(ctx, useCaseListAll)
	defer func() { done(err) }()

	if !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	list, err := m.repo.ListAll(ctx)
	if err != nil {
		return nil, wrapStore("list all orders", err)
	}
	return list, nil
}

// UpdateStatus moves an order to any known status while the order is still
// open; backward moves and repeats are accepted. Delivered and cancelled
// orders are closed. A cash-on-delivery order reaching delivered is marked paid.
// Cancelling here does not restock; the unreturned items are reported as drift.
func (m *Manager) UpdateStatus(ctx context.Context, orderID string, requester auth.Identity, next Status, message string) (_ *Order, err error) {
	ctx, done := m.begin(ctx, useCaseUpdateStatus)
	defer func() { done(err) }()

	if !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	if next == "" {
		return nil, validation("status is required")
	}
	if !next.Valid() {
		return nil, validation(fmt.Sprintf("unknown status %q", next))
	}

	o, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if IsTerminal(o.Status) {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
	}

	from := o.Status
	if message == "" {
		message = "order updated to " + next.Text()
	}
	o.Status = next
	o.appendTimeline(next, m.now().UTC(), message)
	if next == StatusDelivered && o.PaymentMethod == PaymentCOD && o.PaymentStatus != PaymentPaid {
		o.PaymentStatus = PaymentPaid
	}

	if err := m.repo.Update(ctx, o); err != nil {
		return nil, wrapStore("update order", err)
	}
	if next == StatusCancelled {
		m.skipRestock(ctx, o)
	}

	m.publish(ctx, TopicOrderStatusChanged, EventOrderStatusChanged, o.ID, OrderStatusChangedPayload{
		OrderID:       o.ID,
		From:          from,
		To:            next,
		PaymentStatus: o.PaymentStatus,
		Message:       message,
	})
	return o, nil
}

func (m *Manager) UpdatePaymentStatus(ctx context.Context, orderID string, requester auth.Identity, ps PaymentStatus) (_ *Order, err error) {
	ctx, done := m.begin(ctx, useCasePayment)
	defer func() { done(err) }()

	if !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	if ps == "" {
		return nil, validation("payment status is required")
	}
	if !ps.Valid() {
		return nil, validation(fmt.Sprintf("unknown payment status %q", ps))
	}

	o, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	o.PaymentStatus = ps
	o.UpdatedAt = now
	if ps == PaymentPaid {
		o.appendTimeline(o.Status, now, msgPaymentConfirmed)
	}

	if err := m.repo.Update(ctx, o); err != nil {
		return nil, wrapStore("update order", err)
	}

	m.publish(ctx, TopicOrderPaymentUpdated, EventOrderPaymentUpdated, o.ID, OrderPaymentUpdatedPayload{
		OrderID:       o.ID,
		PaymentStatus: ps,
	})
	return o, nil
}

// CancelOrder cancels a pending or processing order and returns its line
// items to stock. The order document is saved before the stock is touched.
func (m *Manager) CancelOrder(ctx context.Context, orderID string, requester auth.Identity, reason string) (_ *Order, err error) {
	ctx, done := m.begin(ctx, useCaseCancel)
	defer func() { done(err) }()

	o, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !requester.Owns(o.OwnerID) && !requester.IsAdmin() {
		return nil, fmt.Errorf("%w to cancel this order", ErrForbidden)
	}
	if !CanCancel(o.Status) {
		return nil, fmt.Errorf("%w: cannot cancel order at current status", ErrInvalidState)
	}

	from := o.Status
	if reason == "" {
		reason = msgCancelled
	}
	o.Status = StatusCancelled
	o.appendTimeline(StatusCancelled, m.now().UTC(), reason)

	if err := m.repo.Update(ctx, o); err != nil {
		return nil, wrapStore("update order", err)
	}

	m.adjustInventory(ctx, o, directionRestock)
	m.publish(ctx, TopicOrderCancelled, EventOrderCancelled, o.ID, OrderCancelledPayload{
		OrderID: o.ID,
		From:    from,
		Reason:  reason,
		By:      requester.UserID,
	})
	return o, nil
}

func (m *Manager) load(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, validation("order id is required")
	}
	o, err := m.repo.Get(ctx, orderID)
	if err != nil {
		return nil, wrapStore("get order", err)
	}
	annotate(ctx, o)
	return o, nil
}

package orders_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/canvas-orders/internal/auth"
	"github.com/ariefcatur/canvas-orders/internal/memory"
	"github.com/ariefcatur/canvas-orders/internal/metrics"
	"github.com/ariefcatur/canvas-orders/internal/orders"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	customer = auth.Identity{UserID: "u-customer", Role: auth.RoleUser}
	stranger = auth.Identity{UserID: "u-stranger", Role: auth.RoleUser}
	admin    = auth.Identity{UserID: "u-admin", Role: auth.RoleAdmin}
)

type published struct {
	topic string
	env   orders.Envelope
}

type mockPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *mockPublisher) Publish(_ context.Context, topic string, env orders.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, env: env})
	return p.err
}

func (p *mockPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

// clashingRepo fails the first n inserts as a duplicate order number would.
type clashingRepo struct {
	*memory.OrderRepository
	n        int
	attempts []string
}

func (r *clashingRepo) Insert(ctx context.Context, o *orders.Order) error {
	r.attempts = append(r.attempts, o.OrderNumber)
	if len(r.attempts) <= r.n {
		return fmt.Errorf("%w: orders_order_number_key", orders.ErrConflict)
	}
	return r.OrderRepository.Insert(ctx, o)
}

type brokenInventory struct{}

func (brokenInventory) Apply(context.Context, string, []orders.Adjustment) ([]orders.AdjustmentFailure, error) {
	return nil, errors.New("connection refused")
}

type fixture struct {
	mgr     *orders.Manager
	repo    *memory.OrderRepository
	inv     *memory.InventoryStore
	pub     *mockPublisher
	metrics *metrics.Metrics
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repo := memory.NewOrderRepository()
	inv := memory.NewInventoryStore()
	inv.Put("p-sunset", 5, 0)
	inv.Put("p-lotus", 3, 1)
	pub := &mockPublisher{}
	m := metrics.New(prometheus.NewRegistry(), "orders_test")

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	seq := 0
	newID := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("order-%d", seq)
	}

	mgr := orders.NewManager(repo, inv,
		orders.WithPublisher(pub),
		orders.WithMetrics(m),
		orders.WithClock(now),
		orders.WithIDGenerator(newID),
	)
	return &fixture{mgr: mgr, repo: repo, inv: inv, pub: pub, metrics: m}
}

func address() orders.Address {
	return orders.Address{
		FullName: "Nguyen Van A",
		Email:    "a@example.com",
		Phone:    "0900000000",
		Address:  "12 Hang Bai",
		City:     "Ha Noi",
		District: "Hoan Kiem",
		Ward:     "Trang Tien",
	}
}

func twoCanvasInput(method orders.PaymentMethod) orders.CreateOrderInput {
	return orders.CreateOrderInput{
		Items: []orders.LineItem{
			{ProductID: "p-sunset", Name: "Sunset over Ha Long", Quantity: 1, UnitPrice: 650000, Image: "sunset.jpg"},
			{ProductID: "p-lotus", Name: "Lotus Pond", Quantity: 1, UnitPrice: 600000, Image: "lotus.jpg"},
		},
		ShippingAddress: address(),
		PaymentMethod:   method,
		Financials:      orders.Financials{Subtotal: 1250000, ShippingFee: 0, Discount: 0, Total: 1250000},
	}
}

func (f *fixture) create(t *testing.T, method orders.PaymentMethod) *orders.Order {
	t.Helper()
	o, err := f.mgr.CreateOrder(context.Background(), customer.UserID, twoCanvasInput(method))
	require.NoError(t, err)
	return o
}

func (f *fixture) level(t *testing.T, productID string) memory.StockLevel {
	t.Helper()
	lvl, ok := f.inv.Level(productID)
	require.True(t, ok)
	return lvl
}

func TestCreateOrder(t *testing.T) {
	f := setup(t)

	o := f.create(t, orders.PaymentCOD)

	assert.Equal(t, int64(1250000), o.Total)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, orders.PaymentPending, o.PaymentStatus)
	assert.Equal(t, customer.UserID, o.OwnerID)
	assert.NotEmpty(t, o.ID)
	assert.Regexp(t, `^DH\d+$`, o.OrderNumber)
	require.Len(t, o.Timeline, 1)
	assert.Equal(t, orders.StatusPending, o.Timeline[0].Status)
	assert.Equal(t, "order created", o.Timeline[0].Message)

	stored, err := f.repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, stored.OrderNumber)

	assert.Equal(t, memory.StockLevel{Stock: 4, Sold: 1}, f.level(t, "p-sunset"))
	assert.Equal(t, memory.StockLevel{Stock: 2, Sold: 2}, f.level(t, "p-lotus"))

	require.Equal(t, []string{orders.TopicOrderCreated}, f.pub.topics())
	env := f.pub.events[0].env
	assert.Equal(t, orders.EventOrderCreated, env.EventType)
	assert.Equal(t, o.ID, env.CorrelationID)
	var payload orders.OrderCreatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, o.OrderNumber, payload.OrderNumber)
}

func TestCreateOrderNumbersAreUnique(t *testing.T) {
	f := setup(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		o := f.create(t, orders.PaymentBank)
		assert.False(t, seen[o.OrderNumber], o.OrderNumber)
		seen[o.OrderNumber] = true
	}
}

func TestCreateOrderValidation(t *testing.T) {
	cases := map[string]func(in *orders.CreateOrderInput){
		"no items":            func(in *orders.CreateOrderInput) { in.Items = nil },
		"incomplete address":  func(in *orders.CreateOrderInput) { in.ShippingAddress.Ward = "" },
		"no payment method":   func(in *orders.CreateOrderInput) { in.PaymentMethod = "" },
		"bad payment method":  func(in *orders.CreateOrderInput) { in.PaymentMethod = "crypto" },
		"no total":            func(in *orders.CreateOrderInput) { in.Total = 0 },
		"zero quantity":       func(in *orders.CreateOrderInput) { in.Items[0].Quantity = 0 },
		"negative price":      func(in *orders.CreateOrderInput) { in.Items[1].UnitPrice = -1 },
		"negative discount":   func(in *orders.CreateOrderInput) { in.Discount = -5 },
		"total does not add":  func(in *orders.CreateOrderInput) { in.Total = 1 },
		"discount not netted": func(in *orders.CreateOrderInput) { in.Discount = 50000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			in := twoCanvasInput(orders.PaymentCOD)
			mutate(&in)

			o, err := f.mgr.CreateOrder(context.Background(), customer.UserID, in)
			assert.Nil(t, o)
			assert.ErrorIs(t, err, orders.ErrValidation)
			assert.Equal(t, memory.StockLevel{Stock: 5, Sold: 0}, f.level(t, "p-sunset"))
			assert.Empty(t, f.pub.topics())
		})
	}

	t.Run("financials with shipping and discount", func(t *testing.T) {
		f := setup(t)
		in := twoCanvasInput(orders.PaymentMomo)
		in.ShippingFee = 30000
		in.Discount = 100000
		in.Total = 1180000
		_, err := f.mgr.CreateOrder(context.Background(), customer.UserID, in)
		assert.NoError(t, err)
	})
}

func TestCreateOrderInventoryPartialFailure(t *testing.T) {
	f := setup(t)
	f.inv.Delete("p-lotus")

	o := f.create(t, orders.PaymentCOD)

	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, memory.StockLevel{Stock: 4, Sold: 1}, f.level(t, "p-sunset"))
	assert.Equal(t, []string{orders.TopicInventoryAdjustmentFailed, orders.TopicOrderCreated}, f.pub.topics())

	var payload orders.InventoryAdjustmentFailedPayload
	require.NoError(t, json.Unmarshal(f.pub.events[0].env.Payload, &payload))
	assert.Equal(t, "deduct", payload.Direction)
	require.Len(t, payload.Failures, 1)
	assert.Equal(t, "p-lotus", payload.Failures[0].ProductID)
	assert.Equal(t, -1, payload.Failures[0].DeltaStock)
	assert.Equal(t, 1, payload.Failures[0].DeltaSold)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdjustFailures.WithLabelValues("deduct")))
}

func TestCreateOrderSurvivesInventoryOutage(t *testing.T) {
	repo := memory.NewOrderRepository()
	pub := &mockPublisher{}
	mgr := orders.NewManager(repo, brokenInventory{}, orders.WithPublisher(pub))

	o, err := mgr.CreateOrder(context.Background(), customer.UserID, twoCanvasInput(orders.PaymentCOD))
	require.NoError(t, err)

	var payload orders.InventoryAdjustmentFailedPayload
	require.NoError(t, json.Unmarshal(pub.events[0].env.Payload, &payload))
	assert.Len(t, payload.Failures, 2)
	assert.Equal(t, "connection refused", payload.Failures[0].Reason)

	_, err = repo.Get(context.Background(), o.ID)
	assert.NoError(t, err)
}

func TestCreateOrderRetriesOrderNumberConflict(t *testing.T) {
	repo := &clashingRepo{OrderRepository: memory.NewOrderRepository(), n: 2}
	mgr := orders.NewManager(repo, memory.NewInventoryStore(),
		orders.WithNumberSequence(&orders.NumberSequence{Node: "001"}))

	o, err := mgr.CreateOrder(context.Background(), customer.UserID, twoCanvasInput(orders.PaymentCOD))
	require.NoError(t, err)
	require.Len(t, repo.attempts, 3)
	assert.Equal(t, repo.attempts[2], o.OrderNumber)
	assert.NotEqual(t, repo.attempts[0], repo.attempts[1])

	stored, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, stored.OrderNumber)

	repo = &clashingRepo{OrderRepository: memory.NewOrderRepository(), n: 10}
	mgr = orders.NewManager(repo, memory.NewInventoryStore())
	_, err = mgr.CreateOrder(context.Background(), customer.UserID, twoCanvasInput(orders.PaymentCOD))
	assert.ErrorIs(t, err, orders.ErrConflict)
	assert.Len(t, repo.attempts, 3)
}

func TestCreateOrderIgnoresPublishFailure(t *testing.T) {
	f := setup(t)
	f.pub.err = errors.New("broker down")

	_, err := f.mgr.CreateOrder(context.Background(), customer.UserID, twoCanvasInput(orders.PaymentCOD))
	assert.NoError(t, err)
}

func TestItemsWithoutProductSkipInventory(t *testing.T) {
	f := setup(t)
	in := twoCanvasInput(orders.PaymentCOD)
	in.Items[1].ProductID = ""

	_, err := f.mgr.CreateOrder(context.Background(), customer.UserID, in)
	require.NoError(t, err)
	assert.Equal(t, memory.StockLevel{Stock: 3, Sold: 1}, f.level(t, "p-lotus"))
	assert.Equal(t, []string{orders.TopicOrderCreated}, f.pub.topics())
}

func TestGetOrder(t *testing.T) {
	f := setup(t)
	o := f.create(t, orders.PaymentCOD)
	ctx := context.Background()

	got, err := f.mgr.GetOrder(ctx, o.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.mgr.GetOrder(ctx, o.ID, admin)
	assert.NoError(t, err)

	_, err = f.mgr.GetOrder(ctx, o.ID, stranger)
	assert.ErrorIs(t, err, orders.ErrForbidden)

	_, err = f.mgr.GetOrder(ctx, "missing", admin)
	assert.ErrorIs(t, err, orders.ErrNotFound)

	_, err = f.mgr.GetOrder(ctx, o.ID, auth.Identity{})
	assert.ErrorIs(t, err, orders.ErrForbidden)
}

func TestListOrders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.create(t, orders.PaymentCOD)
	second := f.create(t, orders.PaymentBank)
	_, err := f.mgr.CreateOrder(ctx, stranger.UserID, twoCanvasInput(orders.PaymentCOD))
	require.NoError(t, err)
	f.repo.PutOwner(orders.Owner{ID: customer.UserID, FirstName: "Mai", LastName: "Le", Email: "mai@example.com"})

	mine, err := f.mgr.ListOrdersForUser(ctx, customer.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	_, err = f.mgr.ListAllOrders(ctx, customer)
	assert.ErrorIs(t, err, orders.ErrForbidden)

	all, err := f.mgr.ListAllOrders(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, stranger.UserID, all[0].OwnerID)
	assert.Equal(t, "mai@example.com", all[1].Owner.Email)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("delivered cod order becomes paid", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentCOD)

		got, err := f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusDelivered, "")
		require.NoError(t, err)
		assert.Equal(t, orders.StatusDelivered, got.Status)
		assert.Equal(t, orders.PaymentPaid, got.PaymentStatus)
		require.Len(t, got.Timeline, 2)
		assert.Equal(t, orders.StatusDelivered, got.Timeline[1].Status)
		assert.Equal(t, "order updated to delivered", got.Timeline[1].Message)

		stored, _ := f.repo.Get(ctx, o.ID)
		assert.Equal(t, orders.PaymentPaid, stored.PaymentStatus)
	})

	t.Run("delivered bank order keeps payment status", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentBank)

		got, err := f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusDelivered, "")
		require.NoError(t, err)
		assert.Equal(t, orders.PaymentPending, got.PaymentStatus)
	})

	t.Run("custom message and permissive moves", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentCOD)

		_, err := f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusShipping, "handed to courier")
		require.NoError(t, err)
		_, err = f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusProcessing, "")
		require.NoError(t, err)
		got, err := f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusProcessing, "")
		require.NoError(t, err)

		require.Len(t, got.Timeline, 4)
		assert.Equal(t, "handed to courier", got.Timeline[1].Message)
		assert.Equal(t, orders.StatusProcessing, got.Status)
		assert.Equal(t, orders.PaymentPending, got.PaymentStatus)
		assert.Equal(t, []string{
			orders.TopicOrderCreated,
			orders.TopicOrderStatusChanged,
			orders.TopicOrderStatusChanged,
			orders.TopicOrderStatusChanged,
		}, f.pub.topics())
	})

	t.Run("cancelling through status reports unreturned stock", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentCOD)
		_, err := f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusShipping, "")
		require.NoError(t, err)

		got, err := f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusCancelled, "")
		require.NoError(t, err)
		assert.Equal(t, orders.StatusCancelled, got.Status)
		assert.Equal(t, memory.StockLevel{Stock: 4, Sold: 1}, f.level(t, "p-sunset"))

		topics := f.pub.topics()
		require.Len(t, topics, 4)
		assert.Equal(t, orders.TopicInventoryAdjustmentFailed, topics[2])
		assert.Equal(t, orders.TopicOrderStatusChanged, topics[3])

		var payload orders.InventoryAdjustmentFailedPayload
		require.NoError(t, json.Unmarshal(f.pub.events[2].env.Payload, &payload))
		assert.Equal(t, "restock", payload.Direction)
		require.Len(t, payload.Failures, 2)
		assert.Equal(t, orders.Adjustment{ProductID: "p-sunset", DeltaStock: 1, DeltaSold: -1}, payload.Failures[0].Adjustment)
		assert.Contains(t, payload.Failures[0].Reason, "stock not returned")
		assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.AdjustFailures.WithLabelValues("restock")))
	})

	t.Run("closed orders reject changes", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentCOD)
		_, err := f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusDelivered, "")
		require.NoError(t, err)

		_, err = f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusPending, "")
		assert.ErrorIs(t, err, orders.ErrInvalidState)
		stored, _ := f.repo.Get(ctx, o.ID)
		assert.Equal(t, orders.StatusDelivered, stored.Status)
		assert.Len(t, stored.Timeline, 2)
	})

	t.Run("errors", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentCOD)

		_, err := f.mgr.UpdateStatus(ctx, o.ID, customer, orders.StatusProcessing, "")
		assert.ErrorIs(t, err, orders.ErrForbidden)
		_, err = f.mgr.UpdateStatus(ctx, o.ID, admin, "", "")
		assert.ErrorIs(t, err, orders.ErrValidation)
		_, err = f.mgr.UpdateStatus(ctx, o.ID, admin, "lost", "")
		assert.ErrorIs(t, err, orders.ErrValidation)
		_, err = f.mgr.UpdateStatus(ctx, "missing", admin, orders.StatusProcessing, "")
		assert.ErrorIs(t, err, orders.ErrNotFound)
	})
}

func TestUpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	o := f.create(t, orders.PaymentBank)

	got, err := f.mgr.UpdatePaymentStatus(ctx, o.ID, admin, orders.PaymentFailed)
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentFailed, got.PaymentStatus)
	assert.Len(t, got.Timeline, 1)

	_, err = f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusProcessing, "")
	require.NoError(t, err)

	got, err = f.mgr.UpdatePaymentStatus(ctx, o.ID, admin, orders.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentPaid, got.PaymentStatus)
	require.Len(t, got.Timeline, 3)
	assert.Equal(t, orders.StatusProcessing, got.Timeline[2].Status)
	assert.Equal(t, "payment confirmed", got.Timeline[2].Message)
	assert.Equal(t, orders.StatusProcessing, got.Status)

	_, err = f.mgr.UpdatePaymentStatus(ctx, o.ID, customer, orders.PaymentPaid)
	assert.ErrorIs(t, err, orders.ErrForbidden)
	_, err = f.mgr.UpdatePaymentStatus(ctx, o.ID, admin, "")
	assert.ErrorIs(t, err, orders.ErrValidation)
	_, err = f.mgr.UpdatePaymentStatus(ctx, o.ID, admin, "refunded")
	assert.ErrorIs(t, err, orders.ErrValidation)
}

func TestUpdatePaymentStatusOnClosedOrder(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	o := f.create(t, orders.PaymentBank)
	_, err := f.mgr.CancelOrder(ctx, o.ID, customer, "")
	require.NoError(t, err)

	got, err := f.mgr.UpdatePaymentStatus(ctx, o.ID, admin, orders.PaymentFailed)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	assert.Equal(t, orders.PaymentFailed, got.PaymentStatus)
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order restocks", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentCOD)

		got, err := f.mgr.CancelOrder(ctx, o.ID, customer, "")
		require.NoError(t, err)
		assert.Equal(t, orders.StatusCancelled, got.Status)
		require.Len(t, got.Timeline, 2)
		assert.Equal(t, orders.StatusCancelled, got.Timeline[1].Status)
		assert.Equal(t, "order cancelled", got.Timeline[1].Message)

		assert.Equal(t, memory.StockLevel{Stock: 5, Sold: 0}, f.level(t, "p-sunset"))
		assert.Equal(t, memory.StockLevel{Stock: 3, Sold: 1}, f.level(t, "p-lotus"))
		assert.Equal(t, []string{orders.TopicOrderCreated, orders.TopicOrderCancelled}, f.pub.topics())
	})

	t.Run("processing order by admin with reason", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentBank)
		_, err := f.mgr.UpdateStatus(ctx, o.ID, admin, orders.StatusProcessing, "")
		require.NoError(t, err)
		before := f.level(t, "p-sunset")

		got, err := f.mgr.CancelOrder(ctx, o.ID, admin, "out of frames")
		require.NoError(t, err)
		assert.Equal(t, "out of frames", got.Timeline[len(got.Timeline)-1].Message)
		after := f.level(t, "p-sunset")
		assert.Equal(t, before.Stock+1, after.Stock)
		assert.Equal(t, before.Sold-1, after.Sold)
	})

	for _, closed := range []orders.Status{orders.StatusDelivered, orders.StatusShipping} {
		t.Run("rejected when "+string(closed), func(t *testing.T) {
			f := setup(t)
			o := f.create(t, orders.PaymentCOD)
			moved, err := f.mgr.UpdateStatus(ctx, o.ID, admin, closed, "")
			require.NoError(t, err)
			stock := f.level(t, "p-sunset")

			_, err = f.mgr.CancelOrder(ctx, o.ID, customer, "")
			assert.ErrorIs(t, err, orders.ErrInvalidState)

			stored, _ := f.repo.Get(ctx, o.ID)
			assert.Equal(t, moved, stored)
			assert.Equal(t, stock, f.level(t, "p-sunset"))
		})
	}

	t.Run("twice", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentCOD)
		_, err := f.mgr.CancelOrder(ctx, o.ID, customer, "")
		require.NoError(t, err)

		_, err = f.mgr.CancelOrder(ctx, o.ID, customer, "")
		assert.ErrorIs(t, err, orders.ErrInvalidState)
		assert.Equal(t, memory.StockLevel{Stock: 5, Sold: 0}, f.level(t, "p-sunset"))
	})

	t.Run("stranger", func(t *testing.T) {
		f := setup(t)
		o := f.create(t, orders.PaymentCOD)
		_, err := f.mgr.CancelOrder(ctx, o.ID, stranger, "")
		assert.ErrorIs(t, err, orders.ErrForbidden)
		assert.Equal(t, memory.StockLevel{Stock: 4, Sold: 1}, f.level(t, "p-sunset"))
	})

	t.Run("missing", func(t *testing.T) {
		f := setup(t)
		_, err := f.mgr.CancelOrder(ctx, "missing", admin, "")
		assert.ErrorIs(t, err, orders.ErrNotFound)
	})
}

func TestUseCaseMetrics(t *testing.T) {
	f := setup(t)
	o := f.create(t, orders.PaymentCOD)
	_, _ = f.mgr.GetOrder(context.Background(), o.ID, stranger)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.UseCases.WithLabelValues("order.create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.UseCases.WithLabelValues("order.get", "forbidden")))
}

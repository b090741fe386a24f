package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ariefcatur/canvas-orders/internal/orders"
)

type OrderRepository struct {
	mu      sync.RWMutex
	orders  map[string]*orders.Order
	numbers map[string]string // order number -> id
	owners  map[string]orders.Owner
}

var _ orders.Repository = (*OrderRepository)(nil)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:  make(map[string]*orders.Order),
		numbers: make(map[string]string),
		owners:  make(map[string]orders.Owner),
	}
}

// PutOwner registers the profile summary returned with admin listings.
func (r *OrderRepository) PutOwner(o orders.Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[o.ID] = o
}

func (r *OrderRepository) Insert(ctx context.Context, o *orders.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return orders.ErrConflict
	}
	if _, exists := r.numbers[o.OrderNumber]; exists {
		return fmt.Errorf("%w: order number %s", orders.ErrConflict, o.OrderNumber)
	}
	r.orders[o.ID] = o.Clone()
	r.numbers[o.OrderNumber] = o.ID
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*orders.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, o *orders.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; !exists {
		return orders.ErrNotFound
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]orders.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []orders.Order{}
	for _, o := range r.orders {
		if o.OwnerID == ownerID {
			out = append(out, *o.Clone())
		}
	}
	sortNewestFirst(out, func(i int) *orders.Order { return &out[i] })
	return out, nil
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]orders.OrderWithOwner, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]orders.OrderWithOwner, 0, len(r.orders))
	for _, o := range r.orders {
		owner := r.owners[o.OwnerID]
		owner.ID = o.OwnerID
		out = append(out, orders.OrderWithOwner{Order: *o.Clone(), Owner: owner})
	}
	sortNewestFirst(out, func(i int) *orders.Order { return &out[i].Order })
	return out, nil
}

// sortNewestFirst orders by creation time, then order number, both descending.
func sortNewestFirst[T any](list []T, at func(int) *orders.Order) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := at(i), at(j)
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.OrderNumber > b.OrderNumber
	})
}

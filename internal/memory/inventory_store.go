package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ariefcatur/canvas-orders/internal/orders"
)

type StockLevel struct {
	Stock int
	Sold  int
}

// InventoryStore keeps per-product stock/sold counters. Each adjustment is
// applied atomically on its own; there is no cross-product transaction.
type InventoryStore struct {
	mu       sync.Mutex
	products map[string]*StockLevel
}

var _ orders.InventoryStore = (*InventoryStore)(nil)

func NewInventoryStore() *InventoryStore {
	return &InventoryStore{products: make(map[string]*StockLevel)}
}

func (s *InventoryStore) Put(productID string, stock, sold int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productID] = &StockLevel{Stock: stock, Sold: sold}
}

// Delete removes a product, as catalog administration would.
func (s *InventoryStore) Delete(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, productID)
}

func (s *InventoryStore) Level(productID string) (StockLevel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lvl, ok := s.products[productID]
	if !ok {
		return StockLevel{}, false
	}
	return *lvl, true
}

func (s *InventoryStore) Apply(ctx context.Context, orderID string, adj []orders.Adjustment) ([]orders.AdjustmentFailure, error) {
	_ = ctx
	_ = orderID

	var failures []orders.AdjustmentFailure
	for _, a := range adj {
		if err := s.adjust(a); err != nil {
			failures = append(failures, orders.AdjustmentFailure{Adjustment: a, Reason: err.Error()})
		}
	}
	return failures, nil
}

func (s *InventoryStore) adjust(a orders.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lvl, ok := s.products[a.ProductID]
	if !ok {
		return fmt.Errorf("%w: %s", orders.ErrProductNotFound, a.ProductID)
	}
	lvl.Stock += a.DeltaStock
	lvl.Sold += a.DeltaSold
	return nil
}

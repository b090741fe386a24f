package orders

import "context"

// Repository is the persistence boundary for order documents.
type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	// ListByOwner returns the owner's orders, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Order, error)
	// ListAll returns every order, newest first, with the owner summarized.
	ListAll(ctx context.Context) ([]OrderWithOwner, error)
}

// Adjustment is one per-product counter update: stock += DeltaStock, sold += DeltaSold.
type Adjustment struct {
	ProductID  string `json:"product_id"`
	DeltaStock int    `json:"delta_stock"`
	DeltaSold  int    `json:"delta_sold"`
}

type AdjustmentFailure struct {
	Adjustment
	Reason string `json:"reason"`
}

// InventoryStore applies counter adjustments for one order. Every adjustment is
// attempted independently; the ones that could not be applied come back as
// failures. The error return is reserved for failures that prevented any attempt.
type InventoryStore interface {
	Apply(ctx context.Context, orderID string, adj []Adjustment) ([]AdjustmentFailure, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, env Envelope) error
}

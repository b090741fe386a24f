package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryRepo keeps the stock/sold counters on the products table.
type InventoryRepo struct{ DB *pgxpool.Pool }

var _ InventoryStore = (*InventoryRepo)(nil)

// Apply runs every adjustment of one order inside a single transaction, each
// under its own savepoint: a product that is gone (or a failing statement)
// rolls back only its own adjustment. Every attempt is recorded in
// inventory_adjustments, applied or not.
func (r *InventoryRepo) Apply(ctx context.Context, orderID string, adj []Adjustment) ([]AdjustmentFailure, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var failures []AdjustmentFailure
	for _, a := range adj {
		if err := applyOne(ctx, tx, a); err != nil {
			failures = append(failures, AdjustmentFailure{Adjustment: a, Reason: err.Error()})
			continue
		}
		if err := recordAdjustment(ctx, tx, orderID, a, true, ""); err != nil {
			return nil, err
		}
	}
	for _, f := range failures {
		if err := recordAdjustment(ctx, tx, orderID, f.Adjustment, false, f.Reason); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return failures, nil
}

func applyOne(ctx context.Context, tx pgx.Tx, a Adjustment) error {
	sp, err := tx.Begin(ctx) // savepoint
	if err != nil {
		return err
	}
	defer func() { _ = sp.Rollback(ctx) }()

	ct, err := sp.Exec(ctx, `
		UPDATE products SET stock = stock + $2, sold = sold + $3, updated_at = now()
		WHERE id=$1`, a.ProductID, a.DeltaStock, a.DeltaSold)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, a.ProductID)
	}
	return sp.Commit(ctx)
}

func recordAdjustment(ctx context.Context, tx pgx.Tx, orderID string, a Adjustment, applied bool, reason string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_adjustments(order_id, product_id, delta_stock, delta_sold, applied, reason)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		orderID, a.ProductID, a.DeltaStock, a.DeltaSold, applied, reason,
	)
	return err
}

// DriftRepo accumulates adjustments that could not be applied, per product,
// so an operator can reconcile the counters against the shelf.
type DriftRepo struct{ DB *pgxpool.Pool }

func (r *DriftRepo) Record(ctx context.Context, orderID string, failures []AdjustmentFailure) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, f := range failures {
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory_drift(product_id, pending_stock, pending_sold, occurrences, last_order_id, last_reason)
			VALUES ($1,$2,$3,1,$4,$5)
			ON CONFLICT (product_id) DO UPDATE SET
				pending_stock = inventory_drift.pending_stock + EXCLUDED.pending_stock,
				pending_sold  = inventory_drift.pending_sold + EXCLUDED.pending_sold,
				occurrences   = inventory_drift.occurrences + 1,
				last_order_id = EXCLUDED.last_order_id,
				last_reason   = EXCLUDED.last_reason,
				updated_at    = now()`,
			f.ProductID, f.DeltaStock, f.DeltaSold, orderID, f.Reason,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo stores orders as documents: scalar columns for what is filtered or
// sorted on, JSONB for items, address and timeline.
type Repo struct{ DB *pgxpool.Pool }

var _ Repository = (*Repo)(nil)

var orderColumns = []string{
	"id", "order_number", "user_id", "items", "shipping_address", "payment_method",
	"payment_status", "subtotal", "shipping", "discount", "total", "status", "timeline",
	"created_at", "updated_at",
}

func selectColumns(prefix string) string {
	cols := make([]string, len(orderColumns))
	for i, c := range orderColumns {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

func (r *Repo) Insert(ctx context.Context, o *Order) error {
	items, addr, timeline, err := encodeDocument(o)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO orders(`+selectColumns("")+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		o.ID, o.OrderNumber, o.OwnerID, items, addr, string(o.PaymentMethod),
		string(o.PaymentStatus), o.Subtotal, o.ShippingFee, o.Discount, o.Total, string(o.Status), timeline,
		o.CreatedAt, o.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func (r *Repo) Get(ctx context.Context, id string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+selectColumns("")+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// Update writes the mutable part of the document. Last write wins.
func (r *Repo) Update(ctx context.Context, o *Order) error {
	timeline, err := json.Marshal(o.Timeline)
	if err != nil {
		return err
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, payment_status=$3, timeline=$4, updated_at=$5
		WHERE id=$1`,
		o.ID, string(o.Status), string(o.PaymentStatus), timeline, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+selectColumns("")+`
		FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) ListAll(ctx context.Context) ([]OrderWithOwner, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+selectColumns("o.")+`,
			COALESCE(u.firstname, ''), COALESCE(u.lastname, ''), COALESCE(u.email, '')
		FROM orders o LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OrderWithOwner{}
	for rows.Next() {
		var ow Owner
		o, err := scanOrder(rows, &ow.FirstName, &ow.LastName, &ow.Email)
		if err != nil {
			return nil, err
		}
		ow.ID = o.OwnerID
		out = append(out, OrderWithOwner{Order: *o, Owner: ow})
	}
	return out, rows.Err()
}

func encodeDocument(o *Order) (items, addr, timeline []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, err
	}
	if addr, err = json.Marshal(o.ShippingAddress); err != nil {
		return nil, nil, nil, err
	}
	if timeline, err = json.Marshal(o.Timeline); err != nil {
		return nil, nil, nil, err
	}
	return items, addr, timeline, nil
}

func scanOrder(row pgx.Row, extra ...any) (*Order, error) {
	var (
		o                         Order
		items, addr, timeline     []byte
		method, payStatus, status string
	)
	dest := append([]any{
		&o.ID, &o.OrderNumber, &o.OwnerID, &items, &addr, &method,
		&payStatus, &o.Subtotal, &o.ShippingFee, &o.Discount, &o.Total, &status, &timeline,
		&o.CreatedAt, &o.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.PaymentMethod = PaymentMethod(method)
	o.PaymentStatus = PaymentStatus(payStatus)
	o.Status = Status(status)

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(timeline, &o.Timeline); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	return &o, nil
}

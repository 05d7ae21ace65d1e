package order

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const (
	orderColumns = `id::text, user_id::text, total_amount::text, status, COALESCE(session_id, ''), created_at`
	lineColumns  = `id::text, order_id::text, product_id::text, quantity, size, color, price::text, product_name, product_brand, image_url`
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, userID string, total decimal.Decimal) (*domain.Order, error) {
	const q = `
INSERT INTO orders (user_id, total_amount, status)
VALUES ($1::uuid, $2::numeric, 'pending')
RETURNING ` + orderColumns
	return scanOrder(r.pool.QueryRow(ctx, q, userID, total.StringFixed(2)))
}

func (r *postgresRepo) InsertLines(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return db.Classify(err)
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO order_items (order_id, product_id, quantity, size, color, price, product_name, product_brand, image_url)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6::numeric, $7, $8, $9)
`
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(q, orderID, l.ProductID, l.Quantity, l.Size, l.Color, l.Price.StringFixed(2), l.ProductName, l.ProductBrand, l.ImageURL)
	}
	br := tx.SendBatch(ctx, batch)
	for i := range lines {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("order line %d: %w", i, db.Classify(err))
		}
	}
	if err := br.Close(); err != nil {
		return db.Classify(err)
	}
	return db.Classify(tx.Commit(ctx))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id::text = $1`, id))
	if err != nil {
		return nil, err
	}
	lines, err := r.queryLines(ctx, `SELECT `+lineColumns+` FROM order_items WHERE order_id::text = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

// ListByUser returns the user's orders, newest first, with their lines.
func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id::text = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}
	lines, err := r.queryLines(ctx, `SELECT `+lineColumns+` FROM order_items WHERE order_id::text = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		i := index[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return orders, nil
}

func (r *postgresRepo) MarkCompleted(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `
UPDATE orders SET status = 'completed'
WHERE id::text = $1
RETURNING `+orderColumns, id))
}

func (r *postgresRepo) SetSession(ctx context.Context, id, sessionID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET session_id = $2 WHERE id::text = $1`, id, sessionID)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *postgresRepo) ListAllLines(ctx context.Context) ([]domain.OrderLine, error) {
	return r.queryLines(ctx, `SELECT `+lineColumns+` FROM order_items`)
}

func (r *postgresRepo) ListOrphaned(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders o
WHERE o.status = 'pending'
  AND o.created_at < now() - make_interval(secs => $1)
  AND (o.session_id IS NULL
       OR NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id))
ORDER BY o.created_at ASC
`
	return r.queryOrders(ctx, q, olderThan.Seconds())
}

func (r *postgresRepo) queryOrders(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return orders, nil
}

func (r *postgresRepo) queryLines(ctx context.Context, q string, args ...any) ([]domain.OrderLine, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var (
			l     domain.OrderLine
			price string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.Size, &l.Color, &price, &l.ProductName, &l.ProductBrand, &l.ImageURL); err != nil {
			return nil, db.Classify(err)
		}
		if l.Price, err = db.Numeric(price); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return lines, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o     domain.Order
		total string
	)
	if err := row.Scan(&o.ID, &o.UserID, &total, &o.Status, &o.SessionID, &o.CreatedAt); err != nil {
		return nil, db.Classify(err)
	}
	var err error
	if o.TotalAmount, err = db.Numeric(total); err != nil {
		return nil, err
	}
	return &o, nil
}

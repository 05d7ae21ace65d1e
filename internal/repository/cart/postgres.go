package cart

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const lineColumns = `id::text, user_id::text, product_id::text, quantity, size, color, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// ListByUser returns the user's lines joined with the live product summary, oldest first.
func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	const q = `
SELECT ci.id::text, ci.user_id::text, ci.product_id::text, ci.quantity, ci.size, ci.color, ci.created_at,
       p.name, p.brand, p.price::text, p.image_url
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.user_id::text = $1
ORDER BY ci.created_at ASC, ci.id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var (
			line  domain.CartLine
			sum   domain.ProductSummary
			price string
		)
		if err := rows.Scan(
			&line.ID,
			&line.UserID,
			&line.ProductID,
			&line.Quantity,
			&line.Size,
			&line.Color,
			&line.CreatedAt,
			&sum.Name,
			&sum.Brand,
			&price,
			&sum.ImageURL,
		); err != nil {
			return nil, db.Classify(err)
		}
		if sum.Price, err = db.Numeric(price); err != nil {
			return nil, err
		}
		line.Product = &sum
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return lines, nil
}

// AddLine inserts a line or, when the (user, product, size, color) key already exists,
// increments the stored quantity.
func (r *postgresRepo) AddLine(ctx context.Context, in AddLineInput) (*domain.CartLine, error) {
	const q = `
INSERT INTO cart_items (user_id, product_id, quantity, size, color)
VALUES ($1::uuid, $2::uuid, $3, $4, $5)
ON CONFLICT (user_id, product_id, size, color) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity
RETURNING ` + lineColumns
	return scanLine(r.pool.QueryRow(ctx, q, in.UserID, in.ProductID, in.Quantity, in.Size, in.Color))
}

func (r *postgresRepo) SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error) {
	return scanLine(r.pool.QueryRow(ctx, `
UPDATE cart_items
SET quantity = $3
WHERE id::text = $1 AND user_id::text = $2
RETURNING `+lineColumns, lineID, userID, quantity))
}

func (r *postgresRepo) DeleteLine(ctx context.Context, userID, lineID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id::text = $1 AND user_id::text = $2`, lineID, userID)
	if err != nil {
		return db.Classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id::text = $1`, userID)
	if err != nil {
		return 0, db.Classify(err)
	}
	return cmd.RowsAffected(), nil
}

func scanLine(row pgx.Row) (*domain.CartLine, error) {
	var line domain.CartLine
	if err := row.Scan(
		&line.ID,
		&line.UserID,
		&line.ProductID,
		&line.Quantity,
		&line.Size,
		&line.Color,
		&line.CreatedAt,
	); err != nil {
		return nil, db.Classify(err)
	}
	return &line, nil
}

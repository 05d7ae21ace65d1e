package brand

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const brandColumns = `id::text, name, display_name, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Brand, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+brandColumns+` FROM brands ORDER BY name ASC`)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var result []domain.Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Brand, error) {
	return scanBrand(r.pool.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE id::text = $1`, id))
}

func (r *postgresRepo) GetByName(ctx context.Context, name string) (*domain.Brand, error) {
	return scanBrand(r.pool.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE name = $1`, name))
}

func (r *postgresRepo) Create(ctx context.Context, b domain.Brand) (*domain.Brand, error) {
	const q = `
INSERT INTO brands (name, display_name)
VALUES ($1, $2)
RETURNING ` + brandColumns
	return scanBrand(r.pool.QueryRow(ctx, q, b.Name, b.DisplayName))
}

func (r *postgresRepo) Upsert(ctx context.Context, b domain.Brand) (*domain.Brand, error) {
	const q = `
INSERT INTO brands (name, display_name)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET display_name = EXCLUDED.display_name
RETURNING ` + brandColumns
	return scanBrand(r.pool.QueryRow(ctx, q, b.Name, b.DisplayName))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id::text = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: brand still has products", domain.ErrConflict)
	}
	if err != nil {
		return db.Classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanBrand(row pgx.Row) (*domain.Brand, error) {
	var b domain.Brand
	if err := row.Scan(&b.ID, &b.Name, &b.DisplayName, &b.CreatedAt); err != nil {
		return nil, db.Classify(err)
	}
	return &b, nil
}

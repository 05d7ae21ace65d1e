package profile

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// Ensure inserts the profile if it does not exist and returns the stored row.
// Existing rows are left untouched.
func (r *postgresRepo) Ensure(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	const q = `
WITH ins AS (
    INSERT INTO profiles (id, email, full_name)
    VALUES ($1::uuid, $2, $3)
    ON CONFLICT (id) DO NOTHING
    RETURNING id::text, email, full_name, created_at
)
SELECT id, email, full_name, created_at FROM ins
UNION ALL
SELECT id::text, email, full_name, created_at FROM profiles WHERE id = $1::uuid
LIMIT 1
`
	var out domain.Profile
	if err := r.pool.QueryRow(ctx, q, p.ID, p.Email, p.FullName).Scan(&out.ID, &out.Email, &out.FullName, &out.CreatedAt); err != nil {
		return nil, db.Classify(err)
	}
	return &out, nil
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM profiles`).Scan(&n); err != nil {
		return 0, db.Classify(err)
	}
	return n, nil
}

package product

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const productColumns = `id::text, name, brand, price::text, original_price::text, discount, gender, type, image_url, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		r.logger.Error().Err(err).Msg("product repo: list")
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("product repo: list rows")
		return nil, db.Classify(err)
	}
	r.logger.Debug().Int("count", len(result)).Msg("product repo: list")
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id::text = $1`, id))
	if err != nil {
		r.logger.Debug().Err(err).Str("id", id).Msg("product repo: get")
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id::text = ANY($1)`, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("ids", len(ids)).Msg("product repo: get many")
		return nil, db.Classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return out, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (name, brand, price, original_price, discount, gender, type, image_url)
VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6, $7, $8)
RETURNING ` + productColumns
	created, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.Name, p.Brand, p.Price.String(), optionalNumeric(p), p.Discount, p.Gender, p.Type, p.ImageURL,
	))
	if err != nil {
		r.logger.Error().Err(err).Str("name", p.Name).Msg("product repo: create")
		return nil, err
	}
	r.logger.Info().Str("id", created.ID).Str("brand", created.Brand).Msg("product repo: created")
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET name = $2, brand = $3, price = $4::numeric, original_price = $5::numeric,
    discount = $6, gender = $7, type = $8, image_url = $9
WHERE id::text = $1
RETURNING ` + productColumns
	updated, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.ID, p.Name, p.Brand, p.Price.String(), optionalNumeric(p), p.Discount, p.Gender, p.Type, p.ImageURL,
	))
	if err != nil {
		r.logger.Error().Err(err).Str("id", p.ID).Msg("product repo: update")
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id::text = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("product repo: delete")
		return db.Classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ExistsByBrand(ctx context.Context, brand string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE brand = $1)`, brand).Scan(&exists)
	if err != nil {
		return false, db.Classify(err)
	}
	return exists, nil
}

func optionalNumeric(p domain.Product) *string {
	if p.OriginalPrice == nil {
		return nil
	}
	s := p.OriginalPrice.String()
	return &s
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p        domain.Product
		price    string
		original *string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Brand, &price, &original, &p.Discount, &p.Gender, &p.Type, &p.ImageURL, &p.CreatedAt); err != nil {
		return nil, db.Classify(err)
	}
	var err error
	if p.Price, err = db.Numeric(price); err != nil {
		return nil, err
	}
	if p.OriginalPrice, err = db.NullableNumeric(original); err != nil {
		return nil, err
	}
	return &p, nil
}

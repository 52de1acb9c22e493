package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS reviews (
    id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    seq                BIGSERIAL,
    user_id            TEXT NOT NULL,
    restaurant_name    TEXT NOT NULL,
    address            TEXT NOT NULL,
    city               TEXT NOT NULL,
    rating_food        DOUBLE PRECISION NOT NULL,
    rating_service     DOUBLE PRECISION NOT NULL,
    rating_environment DOUBLE PRECISION NOT NULL,
    price              DOUBLE PRECISION NOT NULL,
    comment            TEXT NOT NULL,
    images             TEXT[] NOT NULL DEFAULT '{}',
    created_at         TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS reviews_created_at_idx ON reviews (created_at DESC, seq DESC);
CREATE INDEX IF NOT EXISTS reviews_user_id_idx ON reviews (user_id, created_at DESC);
`

const reviewColumns = `id::text, user_id, restaurant_name, address, city,
    rating_food, rating_service, rating_environment, price, comment, images,
    created_at, updated_at`

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create reviews table: %w", err)
	}
	return nil
}

func scanReview(row pgx.Row) (*Review, error) {
	var rv Review
	err := row.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.RestaurantName,
		&rv.Address,
		&rv.City,
		&rv.Ratings.Food,
		&rv.Ratings.Service,
		&rv.Ratings.Environment,
		&rv.Price,
		&rv.Comment,
		&rv.Images,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rv.CreatedAt = rv.CreatedAt.UTC()
	rv.UpdatedAt = rv.UpdatedAt.UTC()
	normalizeImages(&rv)
	return &rv, nil
}

func (r *PostgresRepository) Create(ctx context.Context, review *Review) error {
	query := `
        INSERT INTO reviews (user_id, restaurant_name, address, city,
            rating_food, rating_service, rating_environment, price, comment, images,
            created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
        RETURNING id::text
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	now := Now()
	normalizeImages(review)
	err := r.db.QueryRow(ctx, query,
		review.UserID,
		review.RestaurantName,
		review.Address,
		review.City,
		review.Ratings.Food,
		review.Ratings.Service,
		review.Ratings.Environment,
		review.Price,
		review.Comment,
		review.Images,
		now,
	).Scan(&review.ID)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	review.CreatedAt = now
	review.UpdatedAt = now
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Review, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rv, err := scanReview(r.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

func (r *PostgresRepository) GetPaginated(ctx context.Context, q Query) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE ($1 = '' OR user_id = $1)`, q.UserID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	p := q.Pagination
	query := `
        SELECT ` + reviewColumns + `
        FROM reviews
        WHERE ($1 = '' OR user_id = $1)
        ORDER BY created_at DESC, seq DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.db.Query(ctx, query, q.UserID, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]Review, 0, p.Limit)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	p.ComputeMeta(total)
	return &Page{Reviews: out, Pagination: p}, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, u Update) (*Review, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var food, service, environment *float64
	if u.Ratings != nil {
		food, service, environment = u.Ratings.Food, u.Ratings.Service, u.Ratings.Environment
	}

	query := `
        UPDATE reviews SET
            restaurant_name    = COALESCE($2, restaurant_name),
            address            = COALESCE($3, address),
            city               = COALESCE($4, city),
            rating_food        = COALESCE($5, rating_food),
            rating_service     = COALESCE($6, rating_service),
            rating_environment = COALESCE($7, rating_environment),
            price              = COALESCE($8, price),
            comment            = COALESCE($9, comment),
            updated_at         = GREATEST($10, updated_at)
        WHERE id = $1
        RETURNING ` + reviewColumns

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rv, err := scanReview(r.db.QueryRow(ctx, query,
		id,
		u.RestaurantName,
		u.Address,
		u.City,
		food,
		service,
		environment,
		u.Price,
		u.Comment,
		Now(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	return rv, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

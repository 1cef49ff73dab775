package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

// RatingRepository stores append-only janitor ratings.
type RatingRepository interface {
	CreateBatch(ctx context.Context, ratings []*domain.Rating) error
	Aggregate(ctx context.Context) ([]domain.RatingAggregate, error)
}

type ratingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository constructs repository.
func NewRatingRepository(pool *pgxpool.Pool) RatingRepository {
	return &ratingRepository{pool: pool}
}

// CreateBatch writes all ratings in one transaction.
func (r *ratingRepository) CreateBatch(ctx context.Context, ratings []*domain.Rating) error {
	const query = `
        INSERT INTO ratings (user_id, floor, janitor_type, rating)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, rating := range ratings {
			if err := tx.QueryRow(ctx, query,
				rating.UserID,
				rating.Floor,
				rating.JanitorType,
				rating.Rating,
			).Scan(&rating.ID, &rating.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ratingRepository) Aggregate(ctx context.Context) ([]domain.RatingAggregate, error) {
	const query = `
        SELECT floor, janitor_type, AVG(rating)::float8, COUNT(*)
        FROM ratings
        GROUP BY floor, janitor_type
        ORDER BY floor, janitor_type`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.RatingAggregate{}
	for rows.Next() {
		var agg domain.RatingAggregate
		if err := rows.Scan(&agg.Floor, &agg.JanitorType, &agg.Average, &agg.Count); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	return result, rows.Err()
}

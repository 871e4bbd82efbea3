package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.ReviewRepository = (*PostgresReviewRepo)(nil)

type PostgresReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *PostgresReviewRepo {
	return &PostgresReviewRepo{pool: pool}
}

const reviewColumns = `id, job_id, reviewer_id, reviewee_id, rating, comment, created_at`

func scanReview(row pgx.Row) (*model.Review, error) {
	var rv model.Review
	if err := row.Scan(&rv.ID, &rv.JobID, &rv.ReviewerID, &rv.RevieweeID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *PostgresReviewRepo) Save(ctx context.Context, tx repository.Tx, rv *model.Review) error {
	_, err := execSQL(ctx, r.pool, tx, `
INSERT INTO reviews (id, job_id, reviewer_id, reviewee_id, rating, comment, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rv.ID, rv.JobID, rv.ReviewerID, rv.RevieweeID, rv.Rating, rv.Comment, rv.CreatedAt)
	return mapPgError("save review", err)
}

func (r *PostgresReviewRepo) FindByJobAndReviewer(ctx context.Context, tx repository.Tx, jobID, reviewerID string) (*model.Review, error) {
	rv, err := scanReview(pickRow(ctx, r.pool, tx,
		`SELECT `+reviewColumns+` FROM reviews WHERE job_id=$1 AND reviewer_id=$2`, jobID, reviewerID))
	if err != nil {
		return nil, mapPgError("find review", err)
	}
	return rv, nil
}

func (r *PostgresReviewRepo) ListByReviewee(ctx context.Context, tx repository.Tx, revieweeID string) ([]*model.Review, error) {
	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT `+reviewColumns+` FROM reviews WHERE reviewee_id=$1 ORDER BY created_at DESC`, revieweeID)
	if err != nil {
		return nil, mapPgError("list reviews", err)
	}
	defer rows.Close()
	out := make([]*model.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *PostgresReviewRepo) AverageRating(ctx context.Context, tx repository.Tx, revieweeID string) (float64, int, error) {
	var (
		avg float64
		n   int
	)
	err := pickRow(ctx, r.pool, tx,
		`SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE reviewee_id=$1`, revieweeID).Scan(&avg, &n)
	if err != nil {
		return 0, 0, mapPgError("average rating", err)
	}
	return avg, n, nil
}

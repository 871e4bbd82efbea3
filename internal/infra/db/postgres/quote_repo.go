package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.QuoteRepository = (*PostgresQuoteRepo)(nil)

type PostgresQuoteRepo struct {
	pool *pgxpool.Pool
}

func NewQuoteRepo(pool *pgxpool.Pool) *PostgresQuoteRepo {
	return &PostgresQuoteRepo{pool: pool}
}

const quoteColumns = `id, job_id, tradesperson_id, amount::float8, currency, description, estimated_duration,
       proposed_start_date, valid_until, status, created_at, updated_at`

func scanQuote(row pgx.Row) (*model.Quote, error) {
	var (
		q      model.Quote
		status string
	)
	if err := row.Scan(&q.ID, &q.JobID, &q.TradespersonID, &q.Amount, &q.Currency, &q.Description,
		&q.EstimatedDuration, &q.ProposedStartDate, &q.ValidUntil, &status, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Status = model.QuoteStatus(status)
	return &q, nil
}

func (r *PostgresQuoteRepo) list(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) ([]*model.Quote, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, mapPgError("list quotes", err)
	}
	defer rows.Close()
	out := make([]*model.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Save maps the partial unique index on live (job, tradesperson) pairs to
// domain.ErrAlreadyExists and a missing job to domain.ErrNotFound.
func (r *PostgresQuoteRepo) Save(ctx context.Context, tx repository.Tx, q *model.Quote) error {
	const sql = `
INSERT INTO quotes (
  id, job_id, tradesperson_id, amount, currency, description, estimated_duration,
  proposed_start_date, valid_until, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`
	_, err := execSQL(ctx, r.pool, tx, sql,
		q.ID, q.JobID, q.TradespersonID, q.Amount, q.Currency, q.Description, q.EstimatedDuration,
		q.ProposedStartDate, q.ValidUntil, string(q.Status), q.CreatedAt, q.UpdatedAt)
	return mapPgError("save quote", err)
}

func (r *PostgresQuoteRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Quote, error) {
	q, err := scanQuote(pickRow(ctx, r.pool, tx, `SELECT `+quoteColumns+` FROM quotes WHERE id=$1`, id))
	if err != nil {
		return nil, mapPgError("find quote", err)
	}
	return q, nil
}

func (r *PostgresQuoteRepo) ListByJob(ctx context.Context, tx repository.Tx, jobID string) ([]*model.Quote, error) {
	return r.list(ctx, tx, `SELECT `+quoteColumns+` FROM quotes WHERE job_id=$1 ORDER BY amount ASC, created_at ASC`, jobID)
}

func (r *PostgresQuoteRepo) ListByTradesperson(ctx context.Context, tx repository.Tx, tradespersonID string) ([]*model.Quote, error) {
	return r.list(ctx, tx, `SELECT `+quoteColumns+` FROM quotes WHERE tradesperson_id=$1 ORDER BY created_at DESC`, tradespersonID)
}

func (r *PostgresQuoteRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.QuoteStatus) error {
	ct, err := execSQL(ctx, r.pool, tx,
		`UPDATE quotes SET status=$2, updated_at=now() WHERE id=$1 AND status='pending'`, id, string(status))
	if err != nil {
		err = mapPgError("update quote", err)
		// quotes_one_accepted: another quote on the job already won.
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.ErrConflict
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return explainNoRow(ctx, r.pool, tx, "quotes", id)
	}
	return nil
}

func (r *PostgresQuoteRepo) DeclineSiblings(ctx context.Context, tx repository.Tx, jobID, keepID string) (int64, error) {
	ct, err := execSQL(ctx, r.pool, tx, `
UPDATE quotes SET status='declined', updated_at=now()
 WHERE job_id=$1 AND id<>$2 AND status='pending'`, jobID, keepID)
	if err != nil {
		return 0, mapPgError("decline siblings", err)
	}
	return ct.RowsAffected(), nil
}

package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*PostgresJobRepo)(nil)

type PostgresJobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *PostgresJobRepo {
	return &PostgresJobRepo{pool: pool}
}

const jobColumns = `id, customer_id, title, description, original_text, suggested_trades, primary_trade,
       budget::float8, location, urgency, status, assigned_to, accepted_at, selected_quote_id,
       ai_generated, ai_summary, images, created_at, updated_at`

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		j                        model.Job
		trades                   []string
		primary, urgency, status string
	)
	if err := row.Scan(
		&j.ID, &j.CustomerID, &j.Title, &j.Description, &j.OriginalText, &trades, &primary,
		&j.Budget, &j.Location, &urgency, &status, &j.AssignedTo, &j.AcceptedAt, &j.SelectedQuoteID,
		&j.AIGenerated, &j.AISummary, &j.Images, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	j.SuggestedTrades = tradeTags(trades)
	j.PrimaryTrade = model.TradeTag(primary)
	j.Urgency = model.Urgency(urgency)
	j.Status = model.JobStatus(status)
	if j.Images == nil {
		j.Images = []string{}
	}
	return &j, nil
}

func collectJobs(rows pgx.Rows) ([]*model.Job, error) {
	defer rows.Close()
	out := make([]*model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *PostgresJobRepo) Save(ctx context.Context, tx repository.Tx, j *model.Job) error {
	const q = `
INSERT INTO jobs (
  id, customer_id, title, description, original_text, suggested_trades, primary_trade,
  budget, location, urgency, status, assigned_to, accepted_at, selected_quote_id,
  ai_generated, ai_summary, images, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (id) DO UPDATE SET
  title=EXCLUDED.title, description=EXCLUDED.description, suggested_trades=EXCLUDED.suggested_trades,
  primary_trade=EXCLUDED.primary_trade, budget=EXCLUDED.budget, location=EXCLUDED.location,
  urgency=EXCLUDED.urgency, ai_summary=EXCLUDED.ai_summary, images=EXCLUDED.images,
  updated_at=EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		j.ID, j.CustomerID, j.Title, j.Description, j.OriginalText, model.TradeStrings(j.SuggestedTrades),
		string(j.PrimaryTrade), j.Budget, j.Location, string(j.Urgency), string(j.Status), j.AssignedTo,
		j.AcceptedAt, j.SelectedQuoteID, j.AIGenerated, j.AISummary, j.Images, j.CreatedAt, j.UpdatedAt,
	)
	return mapPgError("save job", err)
}

func (r *PostgresJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	j, err := scanJob(pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM jobs WHERE id=$1`, id))
	if err != nil {
		return nil, mapPgError("find job", err)
	}
	return j, nil
}

func (r *PostgresJobRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	j, err := scanJob(pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM jobs WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapPgError("find job for update", err)
	}
	return j, nil
}

func (r *PostgresJobRepo) List(ctx context.Context, tx repository.Tx, f model.JobFilter) ([]*model.Job, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(f.Statuses) > 0 {
		args = append(args, model.JobStatusStrings(f.Statuses))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if len(f.Trades) > 0 {
		args = append(args, model.TradeStrings(f.Trades))
		where = append(where, fmt.Sprintf("suggested_trades && $%d::text[]", len(args)))
	}
	q := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, model.ClampLimit(f.Limit))
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapPgError("list jobs", err)
	}
	return collectJobs(rows)
}

func (r *PostgresJobRepo) ListOpen(ctx context.Context, tx repository.Tx, trades []model.TradeTag, limit int) ([]*model.Job, error) {
	const q = `
SELECT ` + jobColumns + `
  FROM jobs
 WHERE status = ANY($1)
   AND (cardinality($2::text[]) = 0 OR suggested_trades && $2::text[])
 ORDER BY created_at DESC, id DESC
 LIMIT $3`
	rows, err := queryRows(ctx, r.pool, tx, q,
		model.JobStatusStrings(model.OpenStatuses()), model.TradeStrings(trades), model.ClampLimit(limit))
	if err != nil {
		return nil, mapPgError("list open jobs", err)
	}
	return collectJobs(rows)
}

// Accept is one conditional UPDATE; the row lock taken by UPDATE serializes
// racing callers and only the first sees an open status. The customer who
// posted the job never matches.
func (r *PostgresJobRepo) Accept(ctx context.Context, tx repository.Tx, jobID, contractorID string, at time.Time) (*model.Job, error) {
	const q = `
UPDATE jobs
   SET status=$2, assigned_to=$3, accepted_at=$4, updated_at=$4
 WHERE id=$1 AND status = ANY($5) AND customer_id <> $3
RETURNING ` + jobColumns
	j, err := scanJob(pickRow(ctx, r.pool, tx, q,
		jobID, string(model.JobStatusAssigned), contractorID, at, model.JobStatusStrings(model.OpenStatuses())))
	if err == pgx.ErrNoRows {
		return nil, r.explainNoAccept(ctx, tx, jobID, contractorID)
	}
	if err != nil {
		return nil, mapPgError("accept job", err)
	}
	return j, nil
}

// explainNoAccept runs after a zero-row Accept. A claimant who owns the job
// gets Forbidden.
func (r *PostgresJobRepo) explainNoAccept(ctx context.Context, tx repository.Tx, jobID, contractorID string) error {
	var customerID string
	err := pickRow(ctx, r.pool, tx, `SELECT customer_id FROM jobs WHERE id=$1`, jobID).Scan(&customerID)
	if err != nil {
		return mapPgError("check job owner", err)
	}
	if customerID == contractorID {
		return domain.ErrForbidden
	}
	return domain.ErrConflict
}

func (r *PostgresJobRepo) TransitionStatus(ctx context.Context, tx repository.Tx, jobID string, from []model.JobStatus, to model.JobStatus) (*model.Job, error) {
	const q = `
UPDATE jobs SET status=$2, updated_at=now()
 WHERE id=$1 AND status = ANY($3)
RETURNING ` + jobColumns
	j, err := scanJob(pickRow(ctx, r.pool, tx, q, jobID, string(to), model.JobStatusStrings(from)))
	if err == pgx.ErrNoRows {
		return nil, explainNoRow(ctx, r.pool, tx, "jobs", jobID)
	}
	if err != nil {
		return nil, mapPgError("transition job", err)
	}
	return j, nil
}

func (r *PostgresJobRepo) SelectQuote(ctx context.Context, tx repository.Tx, jobID, quoteID, contractorID string, at time.Time) (*model.Job, error) {
	const q = `
UPDATE jobs
   SET status=$2, selected_quote_id=$3, assigned_to=$4, accepted_at=$5, updated_at=$5
 WHERE id=$1 AND status = ANY($6)
RETURNING ` + jobColumns
	j, err := scanJob(pickRow(ctx, r.pool, tx, q,
		jobID, string(model.JobStatusContractorSelected), quoteID, contractorID, at,
		model.JobStatusStrings(model.OpenStatuses())))
	if err == pgx.ErrNoRows {
		return nil, explainNoRow(ctx, r.pool, tx, "jobs", jobID)
	}
	if err != nil {
		return nil, mapPgError("select quote", err)
	}
	return j, nil
}

func (r *PostgresJobRepo) AddImage(ctx context.Context, tx repository.Tx, jobID, url string) error {
	ct, err := execSQL(ctx, r.pool, tx,
		`UPDATE jobs SET images = array_append(images, $2), updated_at=now() WHERE id=$1`, jobID, url)
	if err != nil {
		return mapPgError("add image", err)
	}
	if ct.RowsAffected() == 0 {
		return mapPgError("add image", pgx.ErrNoRows)
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for quotes, messages and reviews.
func (r *PostgresJobRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM jobs WHERE id=$1`, id)
	if err != nil {
		return mapPgError("delete job", err)
	}
	if ct.RowsAffected() == 0 {
		return mapPgError("delete job", pgx.ErrNoRows)
	}
	return nil
}

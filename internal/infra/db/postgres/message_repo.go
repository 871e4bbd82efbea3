package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.MessageRepository = (*PostgresMessageRepo)(nil)

type PostgresMessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *PostgresMessageRepo {
	return &PostgresMessageRepo{pool: pool}
}

const messageColumns = `id, job_id, sender_id, receiver_id, content, read, created_at`

func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	if err := row.Scan(&m.ID, &m.JobID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresMessageRepo) Save(ctx context.Context, tx repository.Tx, m *model.Message) error {
	_, err := execSQL(ctx, r.pool, tx, `
INSERT INTO messages (id, job_id, sender_id, receiver_id, content, read, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.JobID, m.SenderID, m.ReceiverID, m.Content, m.Read, m.CreatedAt)
	return mapPgError("save message", err)
}

func (r *PostgresMessageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Message, error) {
	m, err := scanMessage(pickRow(ctx, r.pool, tx, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, id))
	if err != nil {
		return nil, mapPgError("find message", err)
	}
	return m, nil
}

func (r *PostgresMessageRepo) ListByJobAndPair(ctx context.Context, tx repository.Tx, jobID, userA, userB string) ([]*model.Message, error) {
	const q = `
SELECT ` + messageColumns + `
  FROM messages
 WHERE job_id=$1
   AND ((sender_id=$2 AND receiver_id=$3) OR (sender_id=$3 AND receiver_id=$2))
 ORDER BY created_at ASC, id ASC`
	rows, err := queryRows(ctx, r.pool, tx, q, jobID, userA, userB)
	if err != nil {
		return nil, mapPgError("list messages", err)
	}
	defer rows.Close()
	out := make([]*model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresMessageRepo) MarkRead(ctx context.Context, tx repository.Tx, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `UPDATE messages SET read=TRUE WHERE id=$1`, id)
	if err != nil {
		return mapPgError("mark read", err)
	}
	if ct.RowsAffected() == 0 {
		return mapPgError("mark read", pgx.ErrNoRows)
	}
	return nil
}

func (r *PostgresMessageRepo) MarkAllRead(ctx context.Context, tx repository.Tx, jobID, receiverID string) (int64, error) {
	ct, err := execSQL(ctx, r.pool, tx,
		`UPDATE messages SET read=TRUE WHERE job_id=$1 AND receiver_id=$2 AND NOT read`, jobID, receiverID)
	if err != nil {
		return 0, mapPgError("mark all read", err)
	}
	return ct.RowsAffected(), nil
}

func (r *PostgresMessageRepo) CountUnread(ctx context.Context, tx repository.Tx, receiverID string) (int, error) {
	var n int
	if err := pickRow(ctx, r.pool, tx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id=$1 AND NOT read`, receiverID).Scan(&n); err != nil {
		return 0, mapPgError("count unread", err)
	}
	return n, nil
}

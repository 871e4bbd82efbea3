package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.ContractorProfileRepository = (*PostgresContractorRepo)(nil)

type PostgresContractorRepo struct {
	pool *pgxpool.Pool
}

func NewContractorRepo(pool *pgxpool.Pool) *PostgresContractorRepo {
	return &PostgresContractorRepo{pool: pool}
}

func (r *PostgresContractorRepo) Save(ctx context.Context, tx repository.Tx, p *model.ContractorProfile) error {
	const q = `
INSERT INTO contractor_profiles (user_id, primary_trade, secondary_trades, county, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id) DO UPDATE SET
  primary_trade=EXCLUDED.primary_trade, secondary_trades=EXCLUDED.secondary_trades,
  county=EXCLUDED.county, updated_at=EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.UserID, string(p.PrimaryTrade), model.TradeStrings(p.SecondaryTrades), p.County, p.UpdatedAt)
	return mapPgError("save contractor profile", err)
}

const profileColumns = `user_id, primary_trade, secondary_trades, county, updated_at`

func scanProfile(row pgx.Row) (*model.ContractorProfile, error) {
	var (
		p         model.ContractorProfile
		primary   string
		secondary []string
	)
	if err := row.Scan(&p.UserID, &primary, &secondary, &p.County, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.PrimaryTrade = model.TradeTag(primary)
	p.SecondaryTrades = tradeTags(secondary)
	return &p, nil
}

func (r *PostgresContractorRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.ContractorProfile, error) {
	p, err := scanProfile(pickRow(ctx, r.pool, tx, `
SELECT `+profileColumns+`
  FROM contractor_profiles WHERE user_id=$1`, userID))
	if err != nil {
		return nil, mapPgError("find contractor profile", err)
	}
	return p, nil
}

func (r *PostgresContractorRepo) Search(ctx context.Context, tx repository.Tx, county string, trades []model.TradeTag, limit int) ([]*model.ContractorProfile, error) {
	const q = `
SELECT ` + profileColumns + `
  FROM contractor_profiles
 WHERE ($1 = '' OR lower(county) = lower($1))
   AND (cardinality($2::text[]) = 0 OR (secondary_trades || primary_trade) && $2::text[])
 ORDER BY updated_at DESC, user_id
 LIMIT $3`
	rows, err := queryRows(ctx, r.pool, tx, q,
		strings.TrimSpace(county), model.TradeStrings(trades), model.ClampLimit(limit))
	if err != nil {
		return nil, mapPgError("search contractor profiles", err)
	}
	defer rows.Close()
	out := make([]*model.ContractorProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, mapPgError("scan contractor profile", err)
		}
		out = append(out, p)
	}
	return out, mapPgError("search contractor profiles", rows.Err())
}

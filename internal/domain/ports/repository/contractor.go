package repository

import (
	"context"

	"trades-marketplace/internal/domain/model"
)

type ContractorProfileRepository interface {
	Save(ctx context.Context, tx Tx, p *model.ContractorProfile) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.ContractorProfile, error)
	// Search lists profiles in county (any county when empty) whose trade set
	// overlaps trades (any trade when empty), most recently updated first.
	Search(ctx context.Context, tx Tx, county string, trades []model.TradeTag, limit int) ([]*model.ContractorProfile, error)
}

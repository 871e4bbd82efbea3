package repository

import (
	"context"

	"trades-marketplace/internal/domain/model"
)

type QuoteRepository interface {
	// Save inserts a quote; a second live quote from the same tradesperson on
	// the same job yields domain.ErrAlreadyExists.
	Save(ctx context.Context, tx Tx, q *model.Quote) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Quote, error)
	// ListByJob returns quotes ordered by amount ascending.
	ListByJob(ctx context.Context, tx Tx, jobID string) ([]*model.Quote, error)
	ListByTradesperson(ctx context.Context, tx Tx, tradespersonID string) ([]*model.Quote, error)
	// UpdateStatus applies only when the quote is currently pending.
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.QuoteStatus) error
	// DeclineSiblings declines every pending quote on jobID except keepID and
	// returns how many rows changed.
	DeclineSiblings(ctx context.Context, tx Tx, jobID, keepID string) (int64, error)
}

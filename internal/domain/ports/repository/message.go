package repository

import (
	"context"

	"trades-marketplace/internal/domain/model"
)

type MessageRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Message) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Message, error)
	// ListByJobAndPair returns the a<->b conversation on jobID, oldest first.
	ListByJobAndPair(ctx context.Context, tx Tx, jobID, userA, userB string) ([]*model.Message, error)
	MarkRead(ctx context.Context, tx Tx, id string) error
	// MarkAllRead flags every message on jobID addressed to receiverID.
	MarkAllRead(ctx context.Context, tx Tx, jobID, receiverID string) (int64, error)
	CountUnread(ctx context.Context, tx Tx, receiverID string) (int, error)
}

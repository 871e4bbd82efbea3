package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
	"trades-marketplace/internal/infra/logging"
)

var _ MessageUseCase = (*messageUC)(nil)

type MessageUseCase interface {
	Send(ctx context.Context, senderID, jobID, receiverID, content string) (*model.Message, error)
	// ListByJobAndPair returns the conversation between actorID and otherID on a job, oldest first.
	ListByJobAndPair(ctx context.Context, actorID, jobID, otherID string) ([]*model.Message, error)
	// MarkRead is receiver only and idempotent.
	MarkRead(ctx context.Context, actorID, messageID string) error
	MarkAllRead(ctx context.Context, actorID, jobID string) (int64, error)
	UnreadCountForUser(ctx context.Context, userID string) (int, error)
}

type messageUC struct {
	messages repository.MessageRepository
	jobs     repository.JobRepository
	log      *zerolog.Logger
}

func NewMessageUseCase(messages repository.MessageRepository, jobs repository.JobRepository, logger *zerolog.Logger) *messageUC {
	return &messageUC{messages: messages, jobs: jobs, log: logger}
}

// Send requires the job's customer on one side of the conversation.
func (u *messageUC) Send(ctx context.Context, senderID, jobID, receiverID, content string) (*model.Message, error) {
	defer logging.TraceDuration(u.log, "MessageUC.Send")()

	m, err := model.NewMessage(jobID, senderID, receiverID, content)
	if err != nil {
		return nil, fmt.Errorf("%w: receiver must differ from sender and content must be 1..%d characters",
			err, model.MaxMessageLength)
	}
	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsOwnedBy(senderID) && !job.IsOwnedBy(receiverID) {
		return nil, fmt.Errorf("%w: messages must involve the job's customer", domain.ErrForbidden)
	}
	if err := u.messages.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	logging.With(logging.WithJobID(ctx, jobID), u.log).Debug().
		Str("message_id", m.ID).
		Str("receiver_id", receiverID).
		Msg("message sent")
	return m, nil
}

func (u *messageUC) ListByJobAndPair(ctx context.Context, actorID, jobID, otherID string) ([]*model.Message, error) {
	defer logging.TraceDuration(u.log, "MessageUC.ListByJobAndPair")()
	if actorID == "" || otherID == "" || jobID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.messages.ListByJobAndPair(ctx, repository.NoTX, jobID, actorID, otherID)
}

func (u *messageUC) MarkRead(ctx context.Context, actorID, messageID string) error {
	defer logging.TraceDuration(u.log, "MessageUC.MarkRead")()
	m, err := u.messages.FindByID(ctx, repository.NoTX, messageID)
	if err != nil {
		return err
	}
	if m.ReceiverID != actorID {
		return domain.ErrForbidden
	}
	if m.Read {
		return nil
	}
	return u.messages.MarkRead(ctx, repository.NoTX, messageID)
}

func (u *messageUC) MarkAllRead(ctx context.Context, actorID, jobID string) (int64, error) {
	defer logging.TraceDuration(u.log, "MessageUC.MarkAllRead")()
	if _, err := u.jobs.FindByID(ctx, repository.NoTX, jobID); err != nil {
		return 0, err
	}
	return u.messages.MarkAllRead(ctx, repository.NoTX, jobID, actorID)
}

func (u *messageUC) UnreadCountForUser(ctx context.Context, userID string) (int, error) {
	defer logging.TraceDuration(u.log, "MessageUC.UnreadCountForUser")()
	return u.messages.CountUnread(ctx, repository.NoTX, userID)
}

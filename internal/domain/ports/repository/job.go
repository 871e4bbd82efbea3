package repository

import (
	"context"
	"time"

	"trades-marketplace/internal/domain/model"
)

type JobRepository interface {
	Save(ctx context.Context, tx Tx, job *model.Job) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)
	// FindByIDForUpdate locks the row until tx ends. Without a tx it behaves like FindByID.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.Job, error)
	List(ctx context.Context, tx Tx, filter model.JobFilter) ([]*model.Job, error)
	// ListOpen returns open jobs whose trades overlap the set, newest first.
	// An empty set disables the trade filter.
	ListOpen(ctx context.Context, tx Tx, trades []model.TradeTag, limit int) ([]*model.Job, error)

	// Accept claims an open job for contractorID in one conditional write.
	// It returns domain.ErrConflict when the job is no longer open and
	// domain.ErrNotFound when it does not exist.
	Accept(ctx context.Context, tx Tx, jobID, contractorID string, at time.Time) (*model.Job, error)
	// TransitionStatus moves the job to `to` only if its current status is one
	// of `from`. Same error contract as Accept.
	TransitionStatus(ctx context.Context, tx Tx, jobID string, from []model.JobStatus, to model.JobStatus) (*model.Job, error)
	// SelectQuote records the accepted quote and its contractor while moving
	// an open job to contractor_selected.
	SelectQuote(ctx context.Context, tx Tx, jobID, quoteID, contractorID string, at time.Time) (*model.Job, error)
	AddImage(ctx context.Context, tx Tx, jobID, url string) error

	Delete(ctx context.Context, tx Tx, id string) error
}

//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/adapter"
	"trades-marketplace/internal/domain/ports/repository"
	"trades-marketplace/internal/infra/db/memory"
	"trades-marketplace/internal/usecase"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock PhotoStorage ----

type MockPhotoStorage struct {
	UploadFunc func(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
	Objects    []string
}

var _ adapter.PhotoStorage = (*MockPhotoStorage)(nil)

func (m *MockPhotoStorage) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	m.Objects = append(m.Objects, objectName)
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, objectName, r, size, contentType)
	}
	return "https://photos.example.test/" + objectName, nil
}

// fixture wires every use case over one in-memory store.
type fixture struct {
	store    *memory.Store
	tm       repository.TransactionManager
	jobRepo  repository.JobRepository
	quotes   repository.QuoteRepository
	messages repository.MessageRepository
	reviews  repository.ReviewRepository
	profiles repository.ContractorProfileRepository
	photos   *MockPhotoStorage

	jobUC        usecase.JobUseCase
	quoteUC      usecase.QuoteUseCase
	messageUC    usecase.MessageUseCase
	reviewUC     usecase.ReviewUseCase
	contractorUC usecase.ContractorUseCase
}

func newFixture() *fixture {
	s := memory.NewStore()
	log := newTestLogger()
	f := &fixture{
		store:    s,
		tm:       memory.NewTxManager(s),
		jobRepo:  memory.NewJobRepo(s),
		quotes:   memory.NewQuoteRepo(s),
		messages: memory.NewMessageRepo(s),
		reviews:  memory.NewReviewRepo(s),
		profiles: memory.NewContractorProfileRepo(s),
		photos:   &MockPhotoStorage{},
	}
	f.jobUC = usecase.NewJobUseCase(f.jobRepo, f.quotes, f.profiles, f.photos, f.tm, log)
	f.quoteUC = usecase.NewQuoteUseCase(f.quotes, f.jobRepo, f.tm, log)
	f.messageUC = usecase.NewMessageUseCase(f.messages, f.jobRepo, log)
	f.reviewUC = usecase.NewReviewUseCase(f.reviews, f.jobRepo, f.tm, log)
	f.contractorUC = usecase.NewContractorUseCase(f.profiles, f.reviews, log)
	return f
}

func (f *fixture) createJob(t *testing.T, customerID string, trades ...string) *model.Job {
	t.Helper()
	job, err := f.jobUC.Create(context.Background(), customerID, model.JobInput{
		Title:           "Job for " + customerID,
		Description:     "Some work that needs doing",
		SuggestedTrades: trades,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

// completeJob drives a fresh job through accept, start and finish.
func (f *fixture) completeJob(t *testing.T, customerID, contractorID string) *model.Job {
	t.Helper()
	ctx := context.Background()
	job := f.createJob(t, customerID, "plumbing")
	if _, err := f.jobUC.AcceptJob(ctx, job.ID, contractorID); err != nil {
		t.Fatalf("AcceptJob: %v", err)
	}
	if _, err := f.jobUC.UpdateStatus(ctx, contractorID, job.ID, model.JobStatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := f.jobUC.UpdateStatus(ctx, customerID, job.ID, model.JobStatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return done
}

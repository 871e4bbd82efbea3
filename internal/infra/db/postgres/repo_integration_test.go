//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"golang.org/x/sync/errgroup"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

func insertJob(t *testing.T, repo *PostgresJobRepo, customer string, trades ...string) *model.Job {
	t.Helper()
	budget := 250.0
	job, _, err := model.NewJob(customer, model.JobInput{
		Title:           "Leaking tap",
		Description:     "Kitchen tap drips",
		SuggestedTrades: trades,
		Budget:          &budget,
	})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := repo.Save(context.Background(), repository.NoTX, job); err != nil {
		t.Fatalf("Save job: %v", err)
	}
	return job
}

func TestJobRepo_SaveAndFind(t *testing.T) {
	cleanup(t)
	repo := NewJobRepo(testPool)

	// --- Arrange ---
	job := insertJob(t, repo, "cust-1", "plumbing", "tiling")

	// --- Act ---
	got, err := repo.FindByID(context.Background(), repository.NoTX, job.ID)

	// --- Assert ---
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Title != job.Title || len(got.SuggestedTrades) != 2 || got.Status != model.JobStatusPendingQuotes {
		t.Fatalf("unexpected job %+v", got)
	}
	if got.Budget == nil || *got.Budget != 250 {
		t.Fatalf("budget not round-tripped: %v", got.Budget)
	}
	if _, err := repo.FindByID(context.Background(), repository.NoTX, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobRepo_AcceptRace(t *testing.T) {
	cleanup(t)
	repo := NewJobRepo(testPool)
	job := insertJob(t, repo, "cust-1", "electrical")

	var wins, conflicts int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		contractor := fmt.Sprintf("contractor-%d", i)
		g.Go(func() error {
			_, err := repo.Accept(context.Background(), repository.NoTX, job.ID, contractor, time.Now().UTC())
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, domain.ErrConflict):
				atomic.AddInt32(&conflicts, 1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wins != 1 || conflicts != 9 {
		t.Fatalf("expected 1 win / 9 conflicts, got %d / %d", wins, conflicts)
	}
}

func TestJobRepo_AcceptOwnJob(t *testing.T) {
	cleanup(t)
	repo := NewJobRepo(testPool)
	ctx := context.Background()
	job := insertJob(t, repo, "cust-1", "plumbing")

	if _, err := repo.Accept(ctx, repository.NoTX, job.ID, "cust-1", time.Now().UTC()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := repo.Accept(ctx, repository.NoTX, "missing", "cust-1", time.Now().UTC()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, _ := repo.FindByID(ctx, repository.NoTX, job.ID)
	if got.Status != model.JobStatusPendingQuotes || got.AssignedTo != nil {
		t.Fatalf("job must stay open: %+v", got)
	}
}

func TestJobRepo_ListOpenOverlap(t *testing.T) {
	cleanup(t)
	repo := NewJobRepo(testPool)
	ctx := context.Background()
	insertJob(t, repo, "cust-1", "plumbing")
	elec := insertJob(t, repo, "cust-1", "electrical", "carpentry")
	taken := insertJob(t, repo, "cust-2", "electrical")
	if _, err := repo.Accept(ctx, repository.NoTX, taken.ID, "c", time.Now().UTC()); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	got, err := repo.ListOpen(ctx, repository.NoTX, []model.TradeTag{model.TradeElectrical}, 10)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(got) != 1 || got[0].ID != elec.ID {
		t.Fatalf("expected only %s, got %d jobs", elec.ID, len(got))
	}

	all, _ := repo.ListOpen(ctx, repository.NoTX, nil, 10)
	if len(all) != 2 {
		t.Fatalf("expected 2 open jobs, got %d", len(all))
	}
}

func TestQuoteAccept_RollsBackTogether(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	jobs := NewJobRepo(testPool)
	quotes := NewQuoteRepo(testPool)
	tm := NewTxManager(testPool)
	job := insertJob(t, jobs, "cust-1", "roofing")

	q1, _ := model.NewQuote(job.ID, "c1", model.QuoteInput{Amount: 100})
	q2, _ := model.NewQuote(job.ID, "c2", model.QuoteInput{Amount: 90})
	for _, q := range []*model.Quote{q1, q2} {
		if err := quotes.Save(ctx, repository.NoTX, q); err != nil {
			t.Fatalf("Save quote: %v", err)
		}
	}
	dup, _ := model.NewQuote(job.ID, "c1", model.QuoteInput{Amount: 50})
	if err := quotes.Save(ctx, repository.NoTX, dup); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	boom := errors.New("boom")
	err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := quotes.UpdateStatus(ctx, tx, q1.ID, model.QuoteStatusAccepted); err != nil {
			return err
		}
		if _, err := quotes.DeclineSiblings(ctx, tx, job.ID, q1.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := quotes.ListByJob(ctx, repository.NoTX, job.ID)
	for _, q := range got {
		if q.Status != model.QuoteStatusPending {
			t.Fatalf("quote %s leaked status %s", q.ID, q.Status)
		}
	}
	if got[0].ID != q2.ID {
		t.Fatalf("expected cheapest quote first")
	}

	err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := jobs.FindByIDForUpdate(ctx, tx, job.ID); err != nil {
			return err
		}
		if err := quotes.UpdateStatus(ctx, tx, q1.ID, model.QuoteStatusAccepted); err != nil {
			return err
		}
		if _, err := quotes.DeclineSiblings(ctx, tx, job.ID, q1.ID); err != nil {
			return err
		}
		_, err := jobs.SelectQuote(ctx, tx, job.ID, q1.ID, "c1", time.Now().UTC())
		return err
	})
	if err != nil {
		t.Fatalf("accept tx: %v", err)
	}
	j, _ := jobs.FindByID(ctx, repository.NoTX, job.ID)
	if j.Status != model.JobStatusContractorSelected || j.SelectedQuoteID == nil || *j.SelectedQuoteID != q1.ID {
		t.Fatalf("job not updated: %+v", j)
	}
	if err := quotes.UpdateStatus(ctx, repository.NoTX, q1.ID, model.QuoteStatusDeclined); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on settled quote, got %v", err)
	}
}

func TestMessagesAndReviews(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	jobs := NewJobRepo(testPool)
	messages := NewMessageRepo(testPool)
	reviews := NewReviewRepo(testPool)
	job := insertJob(t, jobs, "cust-1", "painting")

	m1, _ := model.NewMessage(job.ID, "cust-1", "c1", "hi")
	m2, _ := model.NewMessage(job.ID, "c1", "cust-1", "hello")
	m3, _ := model.NewMessage(job.ID, "cust-1", "c1", "when?")
	for _, m := range []*model.Message{m1, m2, m3} {
		if err := messages.Save(ctx, repository.NoTX, m); err != nil {
			t.Fatalf("Save message: %v", err)
		}
	}
	thread, err := messages.ListByJobAndPair(ctx, repository.NoTX, job.ID, "c1", "cust-1")
	if err != nil || len(thread) != 3 || thread[0].ID != m1.ID {
		t.Fatalf("unexpected thread %v err=%v", thread, err)
	}
	if n, _ := messages.CountUnread(ctx, repository.NoTX, "c1"); n != 2 {
		t.Fatalf("expected 2 unread, got %d", n)
	}
	if n, _ := messages.MarkAllRead(ctx, repository.NoTX, job.ID, "c1"); n != 2 {
		t.Fatalf("expected 2 marked, got %d", n)
	}
	if err := messages.MarkRead(ctx, repository.NoTX, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	r1, _ := model.NewReview(job.ID, "cust-1", "c1", 4, "good")
	if err := reviews.Save(ctx, repository.NoTX, r1); err != nil {
		t.Fatalf("Save review: %v", err)
	}
	r2, _ := model.NewReview(job.ID, "cust-1", "c1", 2, "changed my mind")
	if err := reviews.Save(ctx, repository.NoTX, r2); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	avg, n, err := reviews.AverageRating(ctx, repository.NoTX, "c1")
	if err != nil || avg != 4 || n != 1 {
		t.Fatalf("unexpected average %v/%d err=%v", avg, n, err)
	}
	if avg, n, _ := reviews.AverageRating(ctx, repository.NoTX, "nobody"); avg != 0 || n != 0 {
		t.Fatalf("expected zero average for unreviewed user")
	}
}

func TestContractorRepo_Upsert(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewContractorRepo(testPool)

	p, _ := model.NewContractorProfile("c1", "plumber", []string{"tiling"}, "Dublin")
	if err := repo.Save(ctx, repository.NoTX, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	p2, _ := model.NewContractorProfile("c1", "electrician", nil, "Cork")
	if err := repo.Save(ctx, repository.NoTX, p2); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	got, err := repo.FindByUserID(ctx, repository.NoTX, "c1")
	if err != nil {
		t.Fatalf("FindByUserID: %v", err)
	}
	if got.PrimaryTrade != model.TradeElectrical || len(got.SecondaryTrades) != 0 || got.County != "Cork" {
		t.Fatalf("unexpected profile %+v", got)
	}
}

func TestContractorRepo_Search(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewContractorRepo(testPool)
	for _, in := range []struct {
		id, primary, county string
		secondary           []string
	}{
		{"c1", "plumber", "Dublin", nil},
		{"c2", "electrician", "dublin", []string{"plumbing"}},
		{"c3", "plumber", "Cork", nil},
		{"c4", "roofer", "Dublin", nil},
	} {
		p, _ := model.NewContractorProfile(in.id, in.primary, in.secondary, in.county)
		if err := repo.Save(ctx, repository.NoTX, p); err != nil {
			t.Fatalf("Save %s: %v", in.id, err)
		}
	}

	got, err := repo.Search(ctx, repository.NoTX, "DUBLIN", []model.TradeTag{model.TradePlumbing}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected c1 and c2, got %d profiles", len(got))
	}
	all, _ := repo.Search(ctx, repository.NoTX, "", nil, 10)
	if len(all) != 4 {
		t.Fatalf("expected every profile, got %d", len(all))
	}
}

func TestJobRepo_PersistsEveryStatus(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewJobRepo(testPool)
	for _, st := range model.JobStatuses() {
		job, _, err := model.NewJob("cust-1", model.JobInput{Title: "t", Description: "d"})
		if err != nil {
			t.Fatalf("NewJob: %v", err)
		}
		job.Status = st
		if err := repo.Save(ctx, repository.NoTX, job); err != nil {
			t.Fatalf("status %s rejected by schema: %v", st, err)
		}
		got, err := repo.FindByID(ctx, repository.NoTX, job.ID)
		if err != nil || got.Status != st {
			t.Fatalf("status %s not round-tripped: %+v (%v)", st, got, err)
		}
	}
}

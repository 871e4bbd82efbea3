//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
)

func TestJobUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should normalize trades and keep the primary in the set", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture()
		budget := 150.0

		// --- Act ---
		job, err := f.jobUC.Create(ctx, "cust-1", model.JobInput{
			Title:           "  Rewire kitchen ",
			Description:     "Need new sockets",
			SuggestedTrades: []string{"Electrician", "electrical", "astrology"},
			PrimaryTrade:    "carpentry",
			Budget:          &budget,
		})

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if job.Status != model.JobStatusPendingQuotes {
			t.Errorf("expected pending_quotes, got %s", job.Status)
		}
		if job.Title != "Rewire kitchen" {
			t.Errorf("title not trimmed: %q", job.Title)
		}
		want := []model.TradeTag{model.TradeCarpentry, model.TradeElectrical}
		if fmt.Sprint(job.SuggestedTrades) != fmt.Sprint(want) {
			t.Errorf("expected %v, got %v", want, job.SuggestedTrades)
		}
		if job.PrimaryTrade != model.TradeCarpentry {
			t.Errorf("expected carpentry primary, got %s", job.PrimaryTrade)
		}
	})

	t.Run("should infer trades from text when none are valid", func(t *testing.T) {
		f := newFixture()

		job, err := f.jobUC.Create(ctx, "cust-1", model.JobInput{
			Title:           "Leaking tap",
			Description:     "The kitchen sink tap drips all night",
			SuggestedTrades: []string{"astrology"},
		})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if job.PrimaryTrade != model.TradePlumbing || !model.ContainsTrade(job.SuggestedTrades, model.TradePlumbing) {
			t.Fatalf("expected plumbing to be inferred, got %v / %s", job.SuggestedTrades, job.PrimaryTrade)
		}
		stored, _ := f.jobUC.Get(ctx, job.ID)
		if !stored.HasTrades() {
			t.Fatal("inferred trades were not persisted")
		}
	})

	t.Run("should reject an empty title or description", func(t *testing.T) {
		f := newFixture()
		_, err := f.jobUC.Create(ctx, "cust-1", model.JobInput{Title: " ", Description: "x"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		_, err = f.jobUC.Create(ctx, "cust-1", model.JobInput{Title: "x"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestJobUseCase_AcceptJob(t *testing.T) {
	ctx := context.Background()

	t.Run("should let exactly one of many concurrent contractors win", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture()
		job := f.createJob(t, "cust-1", "plumbing")

		// --- Act ---
		var wins, conflicts int32
		var g errgroup.Group
		for i := 0; i < 20; i++ {
			contractor := fmt.Sprintf("contractor-%d", i)
			g.Go(func() error {
				_, err := f.jobUC.AcceptJob(ctx, job.ID, contractor)
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

		// --- Assert ---
		if err := g.Wait(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wins != 1 || conflicts != 19 {
			t.Fatalf("expected 1 winner and 19 conflicts, got %d / %d", wins, conflicts)
		}
		got, _ := f.jobUC.Get(ctx, job.ID)
		if got.Status != model.JobStatusAssigned || got.AssignedTo == nil || got.AcceptedAt == nil {
			t.Fatalf("job not assigned: %+v", got)
		}
	})

	t.Run("should forbid the customer from accepting their own job", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture()
		job := f.createJob(t, "cust-1", "plumbing")

		// --- Act ---
		_, err := f.jobUC.AcceptJob(ctx, job.ID, "cust-1")

		// --- Assert ---
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		got, _ := f.jobUC.Get(ctx, job.ID)
		if got.Status != model.JobStatusPendingQuotes || got.AssignedTo != nil {
			t.Fatalf("job must stay open, got %+v", got)
		}
		if _, err := f.jobUC.AcceptJob(ctx, job.ID, "c-1"); err != nil {
			t.Fatalf("another contractor should still win, got %v", err)
		}
	})

	t.Run("should decline pending quotes when a contractor claims the job", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture()
		job := f.createJob(t, "cust-1", "plumbing")
		for _, c := range []string{"c-1", "c-2"} {
			if _, err := f.quoteUC.Create(ctx, c, job.ID, model.QuoteInput{Amount: 100}); err != nil {
				t.Fatalf("quote: %v", err)
			}
		}

		// --- Act ---
		if _, err := f.jobUC.AcceptJob(ctx, job.ID, "c-3"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// --- Assert ---
		quotes, err := f.quoteUC.ListByJob(ctx, job.ID)
		if err != nil || len(quotes) != 2 {
			t.Fatalf("expected 2 quotes, got %d (%v)", len(quotes), err)
		}
		for _, q := range quotes {
			if q.Status != model.QuoteStatusDeclined {
				t.Fatalf("quote %s should be declined, got %s", q.ID, q.Status)
			}
		}
	})

	t.Run("should return not found for an unknown job", func(t *testing.T) {
		f := newFixture()
		if _, err := f.jobUC.AcceptJob(ctx, "nope", "c-1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should reject missing ids", func(t *testing.T) {
		f := newFixture()
		if _, err := f.jobUC.AcceptJob(ctx, "", "c-1"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestJobUseCase_Matching(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	elec := f.createJob(t, "cust-1", "electrical")
	plumb := f.createJob(t, "cust-2", "plumbing")

	t.Run("should return only overlapping open jobs", func(t *testing.T) {
		got, err := f.jobUC.FindOpenJobsForTrades(ctx, []string{"electrical"}, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].ID != elec.ID {
			t.Fatalf("expected only the electrical job, got %d", len(got))
		}
	})

	t.Run("should return every open job for an empty set", func(t *testing.T) {
		got, _ := f.jobUC.FindOpenJobsForTrades(ctx, nil, 0)
		if len(got) != 2 {
			t.Fatalf("expected 2 jobs, got %d", len(got))
		}
	})

	t.Run("should return nothing when every requested trade is unknown", func(t *testing.T) {
		got, err := f.jobUC.FindOpenJobsForTrades(ctx, []string{"astrology"}, 0)
		if err != nil || len(got) != 0 {
			t.Fatalf("expected empty result, got %d (%v)", len(got), err)
		}
	})

	t.Run("should hide jobs once assigned", func(t *testing.T) {
		if _, err := f.jobUC.AcceptJob(ctx, plumb.ID, "c-9"); err != nil {
			t.Fatalf("AcceptJob: %v", err)
		}
		got, _ := f.jobUC.FindOpenJobsForTrades(ctx, []string{"Plumber"}, 0)
		if len(got) != 0 {
			t.Fatalf("assigned job still listed as open")
		}
	})

	t.Run("should match by contractor profile", func(t *testing.T) {
		if _, err := f.contractorUC.Save(ctx, "c-1", "Electrician", []string{"carpentry"}, "Cork"); err != nil {
			t.Fatalf("Save profile: %v", err)
		}
		got, err := f.jobUC.MatchForContractor(ctx, "c-1", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].ID != elec.ID {
			t.Fatalf("expected the electrical job, got %d", len(got))
		}
	})

	t.Run("should fall back to every open job without a profile", func(t *testing.T) {
		got, err := f.jobUC.MatchForContractor(ctx, "c-unknown", 10)
		if err != nil || len(got) != 1 {
			t.Fatalf("expected 1 open job, got %d (%v)", len(got), err)
		}
	})
}

func TestJobUseCase_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("should walk the lifecycle with the right actors", func(t *testing.T) {
		f := newFixture()
		job := f.createJob(t, "cust-1", "roofing")
		if _, err := f.jobUC.AcceptJob(ctx, job.ID, "c-1"); err != nil {
			t.Fatalf("AcceptJob: %v", err)
		}

		if _, err := f.jobUC.UpdateStatus(ctx, "c-2", job.ID, model.JobStatusInProgress); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
		}
		if _, err := f.jobUC.UpdateStatus(ctx, "c-1", job.ID, model.JobStatusInProgress); err != nil {
			t.Fatalf("assigned contractor should start the job: %v", err)
		}
		if _, err := f.jobUC.UpdateStatus(ctx, "c-1", job.ID, model.JobStatusCompleted); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden for contractor completing, got %v", err)
		}
		got, err := f.jobUC.UpdateStatus(ctx, "cust-1", job.ID, model.JobStatusCompleted)
		if err != nil || got.Status != model.JobStatusCompleted {
			t.Fatalf("customer should complete the job: %v", err)
		}
		if _, err := f.jobUC.UpdateStatus(ctx, "cust-1", job.ID, model.JobStatusCancelled); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict cancelling a completed job, got %v", err)
		}
	})

	t.Run("should refuse workflow-only targets", func(t *testing.T) {
		f := newFixture()
		job := f.createJob(t, "cust-1", "roofing")
		for _, s := range []model.JobStatus{model.JobStatusReviewed, model.JobStatusContractorSelected, model.JobStatusQuotesReceived, "bogus"} {
			if _, err := f.jobUC.UpdateStatus(ctx, "cust-1", job.ID, s); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, got %v", s, err)
			}
		}
	})

	t.Run("should let only the customer cancel", func(t *testing.T) {
		f := newFixture()
		job := f.createJob(t, "cust-1", "roofing")
		if _, err := f.jobUC.UpdateStatus(ctx, "c-1", job.ID, model.JobStatusCancelled); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		got, err := f.jobUC.UpdateStatus(ctx, "cust-1", job.ID, model.JobStatusCancelled)
		if err != nil || got.Status != model.JobStatusCancelled {
			t.Fatalf("expected cancelled, got %v", err)
		}
		if _, err := f.jobUC.AcceptJob(ctx, job.ID, "c-1"); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict accepting a cancelled job, got %v", err)
		}
	})
}

func TestJobUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	job := f.createJob(t, "cust-1", "tiling")

	if err := f.jobUC.Delete(ctx, "someone-else", job.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.jobUC.Delete(ctx, "cust-1", job.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := f.jobUC.Get(ctx, job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := f.jobUC.Delete(ctx, "cust-1", job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestJobUseCase_AttachPhoto(t *testing.T) {
	ctx := context.Background()

	t.Run("should upload and record the url", func(t *testing.T) {
		f := newFixture()
		job := f.createJob(t, "cust-1", "glazing")

		url, err := f.jobUC.AttachPhoto(ctx, "cust-1", job.ID, "Window.JPG", strings.NewReader("img"), 3, "image/jpeg")

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.photos.Objects) != 1 || !strings.HasPrefix(f.photos.Objects[0], "jobs/"+job.ID+"/") ||
			!strings.HasSuffix(f.photos.Objects[0], ".jpg") {
			t.Fatalf("unexpected object names %v", f.photos.Objects)
		}
		got, _ := f.jobUC.Get(ctx, job.ID)
		if len(got.Images) != 1 || got.Images[0] != url {
			t.Fatalf("image not recorded: %v", got.Images)
		}
	})

	t.Run("should reject non-images and strangers", func(t *testing.T) {
		f := newFixture()
		job := f.createJob(t, "cust-1", "glazing")
		if _, err := f.jobUC.AttachPhoto(ctx, "cust-1", job.ID, "a.txt", strings.NewReader("x"), 1, "text/plain"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := f.jobUC.AttachPhoto(ctx, "c-1", job.ID, "a.png", strings.NewReader("x"), 1, "image/png"); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("should map storage failures to upstream", func(t *testing.T) {
		f := newFixture()
		job := f.createJob(t, "cust-1", "glazing")
		f.photos.UploadFunc = func(context.Context, string, io.Reader, int64, string) (string, error) {
			return "", errors.New("bucket unavailable")
		}
		if _, err := f.jobUC.AttachPhoto(ctx, "cust-1", job.ID, "a.png", strings.NewReader("x"), 1, "image/png"); !errors.Is(err, domain.ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
	})
}

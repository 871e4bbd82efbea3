//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain/classify"
	"trades-marketplace/internal/domain/ports/adapter"
	"trades-marketplace/internal/infra/adapters/auth"
	"trades-marketplace/internal/infra/db/memory"
	"trades-marketplace/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock PhotoStorage ----

type mockPhotoStorage struct {
	UploadFunc func(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
}

func (m *mockPhotoStorage) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, objectName, r, size, contentType)
	}
	return "https://photos.example.test/" + objectName, nil
}

// ---- Mock Classifier ----

type mockClassifier struct {
	ClassifyFunc func(ctx context.Context, text string) (*classify.Result, error)
}

func (m *mockClassifier) Classify(ctx context.Context, text string) (*classify.Result, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return classify.NewLocal().Classify(ctx, text)
}

// ---- Mock Limiter ----

type mockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	keys      []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	return true, nil
}

type testEnv struct {
	handler    http.Handler
	classifier *mockClassifier
	photos     *mockPhotoStorage
	limiter    *mockLimiter
}

type envOption func(*Deps, *Options)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	log := newTestLogger()
	s := memory.NewStore()
	tm := memory.NewTxManager(s)
	jobs := memory.NewJobRepo(s)
	profiles := memory.NewContractorProfileRepo(s)
	quotes := memory.NewQuoteRepo(s)
	reviews := memory.NewReviewRepo(s)

	env := &testEnv{classifier: &mockClassifier{}, photos: &mockPhotoStorage{}, limiter: &mockLimiter{}}
	jobUC := usecase.NewJobUseCase(jobs, quotes, profiles, env.photos, tm, log)
	d := Deps{
		Jobs:        jobUC,
		Quotes:      usecase.NewQuoteUseCase(quotes, jobs, tm, log),
		Messages:    usecase.NewMessageUseCase(memory.NewMessageRepo(s), jobs, log),
		Reviews:     usecase.NewReviewUseCase(reviews, jobs, tm, log),
		Contractors: usecase.NewContractorUseCase(profiles, reviews, log),
		Classify:    usecase.NewClassifyUseCase(env.classifier, "test", jobUC, log),
		Identity:    auth.HeaderIdentity{},
		Limiter:     env.limiter,
	}
	o := Options{
		RequestTimeout:    5 * time.Second,
		UserHeader:        "X-User-ID",
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
	for _, fn := range opts {
		fn(&d, &o)
	}
	env.handler = NewServer(d, o, log).Router()
	return env
}

// do sends a JSON request as user (no identity header when user is empty).
func (e *testEnv) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorBody](t, rec).Error.Kind
}

var _ adapter.PhotoStorage = (*mockPhotoStorage)(nil)

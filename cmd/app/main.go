package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"trades-marketplace/internal/config"
	"trades-marketplace/internal/domain/classify"
	"trades-marketplace/internal/domain/ports/adapter"
	"trades-marketplace/internal/domain/ports/repository"
	aiAdapters "trades-marketplace/internal/infra/adapters/ai"
	"trades-marketplace/internal/infra/adapters/auth"
	"trades-marketplace/internal/infra/adapters/storage"
	"trades-marketplace/internal/infra/db/memory"
	pg "trades-marketplace/internal/infra/db/postgres"
	"trades-marketplace/internal/infra/logging"
	"trades-marketplace/internal/infra/metrics"
	red "trades-marketplace/internal/infra/redis"
	"trades-marketplace/internal/infra/web"
	"trades-marketplace/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

type stores struct {
	jobs     repository.JobRepository
	quotes   repository.QuoteRepository
	messages repository.MessageRepository
	reviews  repository.ReviewRepository
	profiles repository.ContractorProfileRepository
	tm       repository.TransactionManager
	health   func(ctx context.Context) error
	close    func()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		// logger not configured yet
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Redis (optional) ----
	var cache red.RedisClient
	var limiter red.Limiter = red.NewLocalRateLimiter()
	if cfg.Redis.URL != "" {
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer client.Close()
		cache = client
		limiter = red.NewRateLimiter(client)
		logger.Info().Msg("redis connected; shared rate limits and caches enabled")
	}

	// ---- Storage ----
	st, err := openStores(ctx, cfg, cache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}
	defer st.close()

	// ---- Photos ----
	var photos adapter.PhotoStorage
	if cfg.Storage.Endpoint != "" {
		ms, err := storage.NewMinioStorage(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("photo storage")
		}
		if err := ms.EnsureBucket(ctx); err != nil {
			logger.Fatal().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("photo bucket")
		}
		photos = ms
	} else {
		logger.Info().Msg("storage.endpoint empty; photo uploads disabled")
	}

	// ---- Classifier ----
	classifier, provider, err := buildClassifier(ctx, cfg, cache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("classifier")
	}

	// ---- Identity ----
	idp, userHeader, err := buildIdentity(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth")
	}

	// ---- Use cases ----
	jobUC := usecase.NewJobUseCase(st.jobs, st.quotes, st.profiles, photos, st.tm, logger)
	deps := web.Deps{
		Jobs:        jobUC,
		Quotes:      usecase.NewQuoteUseCase(st.quotes, st.jobs, st.tm, logger),
		Messages:    usecase.NewMessageUseCase(st.messages, st.jobs, logger),
		Reviews:     usecase.NewReviewUseCase(st.reviews, st.jobs, st.tm, logger),
		Contractors: usecase.NewContractorUseCase(st.profiles, st.reviews, logger),
		Classify:    usecase.NewClassifyUseCase(classifier, provider, jobUC, logger),
		Identity:    idp,
		Limiter:     limiter,
		Health:      st.health,
	}

	opts := web.Options{
		RequestTimeout:  cfg.Server.RequestTimeout,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		UserHeader:      userHeader,
		RateLimitWindow: cfg.RateLimit.Window,
	}
	if cfg.RateLimit.Enabled {
		opts.RateLimitRequests = cfg.RateLimit.Requests
	}

	// ---- HTTP ----
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           web.NewServer(deps, opts, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("db", cfg.Database.Driver).
			Str("classifier", cfg.Classifier.Strategy).
			Str("auth", cfg.Auth.Provider).
			Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

func openStores(ctx context.Context, cfg *config.Config, cache red.RedisClient, logger *zerolog.Logger) (*stores, error) {
	if cfg.Database.Driver == "memory" {
		s := memory.NewStore()
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return &stores{
			jobs:     memory.NewJobRepo(s),
			quotes:   memory.NewQuoteRepo(s),
			messages: memory.NewMessageRepo(s),
			reviews:  memory.NewReviewRepo(s),
			profiles: memory.NewContractorProfileRepo(s),
			tm:       memory.NewTxManager(s),
			close:    func() {},
		}, nil
	}

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	var profiles repository.ContractorProfileRepository = pg.NewContractorRepo(pool)
	if cache != nil {
		profiles = pg.NewContractorRepoCacheDecorator(profiles, cache, cfg.Redis.TTL)
	}
	return &stores{
		jobs:     pg.NewJobRepo(pool),
		quotes:   pg.NewQuoteRepo(pool),
		messages: pg.NewMessageRepo(pool),
		reviews:  pg.NewReviewRepo(pool),
		profiles: profiles,
		tm:       pg.NewTxManager(pool),
		health:   poolHealth(pool),
		close:    pool.Close,
	}, nil
}

func poolHealth(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		pg.ObservePoolStats(pool)
		return pool.Ping(ctx)
	}
}

// buildClassifier returns the configured strategy and the provider label used in metrics.
func buildClassifier(ctx context.Context, cfg *config.Config, cache red.RedisClient, logger *zerolog.Logger) (classify.Classifier, string, error) {
	if cfg.Classifier.Strategy != "remote" {
		return classify.NewLocal(), "local", nil
	}

	byProvider := map[string]adapter.AIServiceAdapter{}
	if cfg.AI.OpenAIKey != "" {
		a, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, cfg.AI.DefaultModel)
		if err != nil {
			return nil, "", err
		}
		byProvider["openai"] = a
	}
	if cfg.AI.MetisKey != "" {
		a, err := aiAdapters.NewMetisAdapter(cfg.AI.MetisKey, cfg.AI.MetisBaseURL, cfg.AI.DefaultModel)
		if err != nil {
			return nil, "", err
		}
		byProvider["metis"] = a
	}
	if cfg.AI.GeminiKey != "" {
		a, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			return nil, "", err
		}
		byProvider["gemini"] = a
	}

	provider := strings.ToLower(cfg.AI.Provider)
	ai := aiAdapters.NewLimitedAI(
		aiAdapters.NewMultiAIAdapter(provider, byProvider, nil),
		cfg.AI.ConcurrentLimit,
	)
	logger.Info().
		Str("provider", ai.Provider()).
		Str("model", cfg.Classifier.Model).
		Msg("remote classifier enabled")

	var c classify.Classifier = classify.NewRemote(ai, classify.RemoteConfig{
		Model:           cfg.Classifier.Model,
		Timeout:         cfg.Classifier.Timeout,
		MaxInputTokens:  cfg.Classifier.MaxInputTokens,
		MaxOutputTokens: cfg.Classifier.MaxOutputTokens,
	})
	if cache != nil {
		c = red.NewClassifierCache(c, cache, cfg.Classifier.CacheTTL, logger)
	}
	return c, ai.Provider(), nil
}

func buildIdentity(cfg *config.Config) (adapter.IdentityProvider, string, error) {
	switch cfg.Auth.Provider {
	case "supabase":
		idp, err := auth.NewSupabaseIdentity(cfg.Auth.SupabaseURL, cfg.Auth.SupabaseKey)
		return idp, "", err
	case "header":
		return auth.HeaderIdentity{}, "X-User-ID", nil
	default:
		idp, err := auth.NewJWTIdentity(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
		return idp, "", err
	}
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"trades-marketplace/internal/config"
	"trades-marketplace/internal/infra/metrics"
)

// NewPgxPool connects and pings within a bounded startup window.
func NewPgxPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.ConnectConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.Connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// ObservePoolStats publishes the pool gauges; called from the health check.
func ObservePoolStats(pool *pgxpool.Pool) {
	s := pool.Stat()
	metrics.SetDBPoolStats(metrics.PoolStats{
		Max:           s.MaxConns(),
		Total:         s.TotalConns(),
		Idle:          s.IdleConns(),
		Acquired:      s.AcquiredConns(),
		EmptyAcquires: s.EmptyAcquireCount(),
	})
}

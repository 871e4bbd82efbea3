// Package memory is an in-process implementation of the repository ports.
// It is used by tests and by -dev runs without a database.
package memory

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

// Store holds every entity in id-keyed maps guarded by one mutex. A
// transaction holds the mutex for its whole duration, so readers never see a
// half-applied change.
type Store struct {
	mu       sync.Mutex
	jobs     map[string]*model.Job
	quotes   map[string]*model.Quote
	messages map[string]*model.Message
	reviews  map[string]*model.Review
	profiles map[string]*model.ContractorProfile
}

func NewStore() *Store {
	return &Store{
		jobs:     make(map[string]*model.Job),
		quotes:   make(map[string]*model.Quote),
		messages: make(map[string]*model.Message),
		reviews:  make(map[string]*model.Review),
		profiles: make(map[string]*model.ContractorProfile),
	}
}

// txHandle is the repository.Tx handed out by TxManager.
type txHandle struct{ s *Store }

// acquire locks the store unless tx is this store's live transaction.
func (s *Store) acquire(ctx context.Context, tx repository.Tx) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch v := tx.(type) {
	case nil:
		s.mu.Lock()
		return s.mu.Unlock, nil
	case *txHandle:
		if v.s != s {
			return nil, domain.ErrInvalidExecContext
		}
		return func() {}, nil
	default:
		return nil, domain.ErrInvalidExecContext
	}
}

type snapshot struct {
	jobs     map[string]*model.Job
	quotes   map[string]*model.Quote
	messages map[string]*model.Message
	reviews  map[string]*model.Review
	profiles map[string]*model.ContractorProfile
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		jobs:     make(map[string]*model.Job, len(s.jobs)),
		quotes:   make(map[string]*model.Quote, len(s.quotes)),
		messages: make(map[string]*model.Message, len(s.messages)),
		reviews:  make(map[string]*model.Review, len(s.reviews)),
		profiles: make(map[string]*model.ContractorProfile, len(s.profiles)),
	}
	for k, v := range s.jobs {
		snap.jobs[k] = v.Clone()
	}
	for k, v := range s.quotes {
		cp := *v
		snap.quotes[k] = &cp
	}
	for k, v := range s.messages {
		cp := *v
		snap.messages[k] = &cp
	}
	for k, v := range s.reviews {
		cp := *v
		snap.reviews[k] = &cp
	}
	for k, v := range s.profiles {
		snap.profiles[k] = cloneProfile(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.jobs = snap.jobs
	s.quotes = snap.quotes
	s.messages = snap.messages
	s.reviews = snap.reviews
	s.profiles = snap.profiles
}

// Ensure compile-time conformance
var _ repository.TransactionManager = (*TxManager)(nil)

// TxManager serializes transactions on the store and restores the pre-tx
// snapshot when fn fails.
type TxManager struct {
	s *Store
}

func NewTxManager(s *Store) *TxManager {
	return &TxManager{s: s}
}

func (m *TxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	snap := m.s.snapshot()
	if err := fn(ctx, &txHandle{s: m.s}); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

func cloneProfile(p *model.ContractorProfile) *model.ContractorProfile {
	cp := *p
	cp.SecondaryTrades = append([]model.TradeTag(nil), p.SecondaryTrades...)
	return &cp
}

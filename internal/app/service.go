// Package service provides the counter store service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	repository "github.com/StacL/tdd/internal/adapters/repository"
	"github.com/StacL/tdd/internal/domain/counter"
	"github.com/StacL/tdd/pkg/logger"
	"github.com/StacL/tdd/pkg/metrics"
)

// Operation names used in logs and metrics.
const (
	opCreate    = "create"
	opIncrement = "update"
	opRead      = "read"
	opDelete    = "delete"
)

const defaultShardCount = 16

// Service owns the counter store and maps store results to typed outcomes.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	ownsStore bool

	// Configuration
	shardCount int

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithShardCount sets the number of shards of the default store.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithStore replaces the default sharded store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. The store is created on Start unless one
// was supplied with WithStore.
func New(opts ...Option) *Service {
	s := &Service{
		shardCount: defaultShardCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the store. It is safe to call more than once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *Service) startLocked(ctx context.Context) error {
	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting counter service...")
	if s.store == nil {
		s.store = repository.NewShardedStore(context.WithoutCancel(ctx), repository.WithShardCount(s.shardCount))
		s.ownsStore = true
	}

	s.started = true
	s.logger.Info(ctx, "counter service started", logger.Int("shards", s.shardCount))
	return nil
}

// Stop closes the store. A store created by the service is dropped, so a
// later Start begins with no counters.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping counter service...")
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "closing store failed", logger.Error(err))
		}
		if s.ownsStore {
			s.store = nil
			s.ownsStore = false
		}
	}
	s.started = false
	s.logger.Info(ctx, "counter service stopped")
}

// ensureStarted returns the live store, starting the service on first use.
func (s *Service) ensureStarted(ctx context.Context) (repository.Store, error) {
	s.mu.RLock()
	if s.started {
		st := s.store
		s.mu.RUnlock()
		return st, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.startLocked(ctx); err != nil {
		return nil, err
	}
	return s.store, nil
}

// Create adds a counter with value 0.
func (s *Service) Create(ctx context.Context, name string) (counter.Result, error) {
	st, err := s.begin(ctx, opCreate, name)
	if err != nil {
		return counter.Result{}, err
	}

	c, err := st.Create(ctx, name)
	switch {
	case errors.Is(err, counter.ErrAlreadyExists):
		return s.finish(opCreate, counter.Result{Counter: c, Outcome: counter.OutcomeAlreadyExists},
			fmt.Errorf("create %q: %w", name, err))
	case err != nil:
		return counter.Result{}, fmt.Errorf("create %q: %w", name, err)
	}
	return s.finish(opCreate, counter.Result{Counter: c, Outcome: counter.OutcomeCreated}, nil)
}

// Increment adds one to an existing counter.
func (s *Service) Increment(ctx context.Context, name string) (counter.Result, error) {
	st, err := s.begin(ctx, opIncrement, name)
	if err != nil {
		return counter.Result{}, err
	}

	c, err := st.Increment(ctx, name)
	if err != nil {
		return s.notFound(opIncrement, name, err)
	}
	return s.finish(opIncrement, counter.Result{Counter: c, Outcome: counter.OutcomeIncremented}, nil)
}

// Read returns the current value of a counter.
func (s *Service) Read(ctx context.Context, name string) (counter.Result, error) {
	st, err := s.begin(ctx, opRead, name)
	if err != nil {
		return counter.Result{}, err
	}

	c, err := st.Get(ctx, name)
	if err != nil {
		return s.notFound(opRead, name, err)
	}
	return s.finish(opRead, counter.Result{Counter: c, Outcome: counter.OutcomeRead}, nil)
}

// Delete removes a counter.
func (s *Service) Delete(ctx context.Context, name string) (counter.Result, error) {
	st, err := s.begin(ctx, opDelete, name)
	if err != nil {
		return counter.Result{}, err
	}

	if err := st.Delete(ctx, name); err != nil {
		return s.notFound(opDelete, name, err)
	}
	return s.finish(opDelete, counter.Result{Counter: counter.Counter{Name: name}, Outcome: counter.OutcomeDeleted}, nil)
}

// Count returns the number of live counters.
func (s *Service) Count(ctx context.Context) int {
	st, err := s.ensureStarted(ctx)
	if err != nil {
		return 0
	}
	return st.Count(ctx)
}

// GetStats returns a snapshot of service state for the /stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"shardCount": s.shardCount,
	}
	if s.started {
		total := s.store.Count(context.Background())
		stats["totalCounters"] = total
		metrics.UpdateCountersTotal(total)
	}
	return stats
}

func (s *Service) begin(ctx context.Context, op, name string) (repository.Store, error) {
	st, err := s.ensureStarted(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, fmt.Sprintf("Request to %s counter: %s", op, name))
	return st, nil
}

func (s *Service) notFound(op, name string, err error) (counter.Result, error) {
	if !errors.Is(err, counter.ErrNotFound) {
		return counter.Result{}, fmt.Errorf("%s %q: %w", op, name, err)
	}
	return s.finish(op, counter.Result{Counter: counter.Counter{Name: name}, Outcome: counter.OutcomeNotFound},
		fmt.Errorf("%s %q: %w", op, name, err))
}

func (s *Service) finish(op string, res counter.Result, err error) (counter.Result, error) {
	metrics.RecordOperation(op, res.Outcome.String())
	return res, err
}

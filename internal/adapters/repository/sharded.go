package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/StacL/tdd/internal/domain/counter"
	"github.com/StacL/tdd/pkg/metrics"
)

const (
	defaultShardCount            = 16
	defaultMetricsUpdateInterval = 5 * time.Second
)

// Operation labels used for latency metrics.
const (
	opCreate    = "create"
	opIncrement = "increment"
	opGet       = "get"
	opDelete    = "delete"
)

var _ Store = (*ShardedStore)(nil)

// shard is one independently locked slice of the name space.
type shard struct {
	mu     sync.RWMutex
	values map[string]int64
}

// ShardedStore is an in-memory Store. Names are spread over shards by
// xxhash; a name always lives in the same shard, so holding the shard lock
// for the whole operation makes operations on a name serializable.
type ShardedStore struct {
	shards                []*shard
	shardCount            int
	metricsUpdateInterval time.Duration

	wg        sync.WaitGroup
	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewShardedStore constructs an empty store and starts its metrics updater,
// which stops on Close or when ctx is done.
func NewShardedStore(ctx context.Context, opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{values: make(map[string]int64)}
	}

	metrics.UpdateRepositoryShardCount(s.shardCount)
	s.startMetricsUpdater(ctx)

	return s
}

func (s *ShardedStore) shardFor(name string) *shard {
	return s.shards[xxhash.Sum64String(name)%uint64(len(s.shards))]
}

// Create implements Store.Create.
func (s *ShardedStore) Create(_ context.Context, name string) (counter.Counter, error) {
	defer observe(opCreate, time.Now())

	sh := s.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if v, ok := sh.values[name]; ok {
		return counter.Counter{Name: name, Value: v}, counter.ErrAlreadyExists
	}
	sh.values[name] = 0
	return counter.Counter{Name: name}, nil
}

// Increment implements Store.Increment.
func (s *ShardedStore) Increment(_ context.Context, name string) (counter.Counter, error) {
	defer observe(opIncrement, time.Now())

	sh := s.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	v, ok := sh.values[name]
	if !ok {
		return counter.Counter{Name: name}, counter.ErrNotFound
	}
	v++
	sh.values[name] = v
	return counter.Counter{Name: name, Value: v}, nil
}

// Get implements Store.Get.
func (s *ShardedStore) Get(_ context.Context, name string) (counter.Counter, error) {
	defer observe(opGet, time.Now())

	sh := s.shardFor(name)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	v, ok := sh.values[name]
	if !ok {
		return counter.Counter{Name: name}, counter.ErrNotFound
	}
	return counter.Counter{Name: name, Value: v}, nil
}

// Delete implements Store.Delete.
func (s *ShardedStore) Delete(_ context.Context, name string) error {
	defer observe(opDelete, time.Now())

	sh := s.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.values[name]; !ok {
		return counter.ErrNotFound
	}
	delete(sh.values, name)
	return nil
}

// Count implements Store.Count. Shards are counted one at a time, so the
// total is not a point-in-time snapshot under concurrent writes.
func (s *ShardedStore) Count(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.values)
		sh.mu.RUnlock()
	}
	return total
}

// ShardCount returns the number of shards.
func (s *ShardedStore) ShardCount() int {
	return len(s.shards)
}

// Close stops the metrics updater. The store stays usable afterwards.
func (s *ShardedStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *ShardedStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *ShardedStore) updateMetrics() {
	total := 0
	for i, sh := range s.shards {
		sh.mu.RLock()
		n := len(sh.values)
		sh.mu.RUnlock()

		total += n
		metrics.UpdateRepositoryRecordsPerShard(fmt.Sprintf("shard_%d", i), n)
	}
	metrics.UpdateCountersTotal(total)
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

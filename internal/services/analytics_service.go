package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const snapshotCacheSize = 256

// AnalyticsService serves read-side views over a per-user snapshot of
// transactions. Snapshots are cached until a write invalidates them or the
// TTL passes; concurrent loads for one user share a single query.
type AnalyticsService struct {
	lister        ports.TransactionLister
	snapshots     *cache.LRUCache[[]core.Transaction]
	group         singleflight.Group
	now           func() time.Time
	heatmapWindow int

	// generations counts invalidations per user. A load only stores its
	// snapshot if no invalidation happened while it ran.
	mu          sync.Mutex
	generations map[string]uint64
}

type AnalyticsOptions struct {
	CacheTTL      time.Duration
	HeatmapWindow int
	Now           func() time.Time
}

func NewAnalyticsService(lister ports.TransactionLister, opts AnalyticsOptions) *AnalyticsService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HeatmapWindow <= 0 {
		opts.HeatmapWindow = aggregate.DefaultHeatmapWindow
	}
	return &AnalyticsService{
		lister:        lister,
		snapshots:     cache.NewLRUCache[[]core.Transaction](snapshotCacheSize, opts.CacheTTL),
		now:           opts.Now,
		heatmapWindow: opts.HeatmapWindow,
		generations:   make(map[string]uint64),
	}
}

// Cache exposes the snapshot cache so it can be registered for periodic cleanup.
func (s *AnalyticsService) Cache() cache.Cleaner { return s.snapshots }

func (s *AnalyticsService) Invalidate(userID string) {
	s.mu.Lock()
	s.generations[userID]++
	s.snapshots.Delete(userID)
	s.mu.Unlock()
	s.group.Forget(userID)
}

func (s *AnalyticsService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// store caches txs unless userID was invalidated after gen was read.
func (s *AnalyticsService) store(userID string, gen uint64, txs []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] == gen {
		s.snapshots.Set(userID, txs)
	}
}

// Transactions returns the user's transactions, newest first.
func (s *AnalyticsService) Transactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	if txs, ok := s.snapshots.Get(userID); ok {
		return txs, nil
	}
	v, err, _ := s.group.Do(userID, func() (interface{}, error) {
		if txs, ok := s.snapshots.Get(userID); ok {
			return txs, nil
		}
		gen := s.generation(userID)
		txs, err := s.lister.ListTransactions(ctx, ports.TransactionQuery{UserID: userID, Order: ports.OrderDesc})
		if err != nil {
			return nil, fmt.Errorf("load transactions: %w", err)
		}
		s.store(userID, gen, txs)
		return txs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.Transaction), nil
}

func (s *AnalyticsService) Summary(ctx context.Context, userID string) (core.Summary, error) {
	txs, err := s.Transactions(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(txs), nil
}

// Forecast returns daily expense totals, limited to the trailing days when
// days > 0, and the projected spend for the coming month.
func (s *AnalyticsService) Forecast(ctx context.Context, userID string, days int) (aggregate.Forecast, error) {
	txs, err := s.Transactions(ctx, userID)
	if err != nil {
		return aggregate.Forecast{}, err
	}
	return aggregate.BuildForecast(txs, days, s.now())
}

// Heatmap returns a dense grid of daily expenses ending today. A non-positive
// window uses the configured default; ref, when non-zero, replaces today.
func (s *AnalyticsService) Heatmap(ctx context.Context, userID string, window int, ref time.Time) (aggregate.Heatmap, error) {
	txs, err := s.Transactions(ctx, userID)
	if err != nil {
		return aggregate.Heatmap{}, err
	}
	if window <= 0 {
		window = s.heatmapWindow
	}
	if ref.IsZero() {
		ref = s.now()
	}
	return aggregate.BuildHeatmap(txs, window, ref)
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"projects-dashboard/internal/generator"
	"projects-dashboard/internal/models"
)

type Option func(*Analytics)

// WithSeed fixes the generator seed. Successive regenerations advance the
// seed by one so a seeded run is reproducible end to end.
func WithSeed(seed uint64) Option {
	return func(a *Analytics) { a.seed = seed }
}

func WithCounts(counts generator.Counts) Option {
	return func(a *Analytics) { a.counts = counts }
}

func WithClock(now func() time.Time) Option {
	return func(a *Analytics) { a.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

type Analytics struct {
	mu            sync.RWMutex
	regenMu       sync.Mutex
	snapshot      *models.Snapshot
	seed          uint64
	counts        generator.Counts
	now           func() time.Time
	regenerations atomic.Int64
	logger        *slog.Logger
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		snapshot: &models.Snapshot{},
		counts:   generator.DefaultCounts(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analytics) SetSnapshot(snap *models.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshot = snap
}

func (a *Analytics) Snapshot() *models.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Regenerate draws a fresh snapshot and swaps it in. Runs are serialized so
// run n is always installed before run n+1.
func (a *Analytics) Regenerate(ctx context.Context) error {
	a.regenMu.Lock()
	defer a.regenMu.Unlock()

	n := a.regenerations.Add(1)

	seed := a.seed
	if seed != 0 {
		seed += uint64(n - 1)
	}

	start := time.Now()
	snap, err := generator.Snapshot(ctx, seed, a.now(), a.counts)
	if err != nil {
		return fmt.Errorf("regenerate: %w", err)
	}

	a.SetSnapshot(snap)
	a.logger.Info("snapshot generated",
		"snapshot_id", snap.ID,
		"seed", snap.Seed,
		"projects", len(snap.Projects),
		"duration", time.Since(start),
	)
	return nil
}

// AutoRefresh regenerates every interval until ctx is done.
func (a *Analytics) AutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Regenerate(ctx); err != nil && ctx.Err() == nil {
				a.logger.Warn("auto refresh failed", "error", err)
			}
		}
	}
}

// View pins the current snapshot. A request should take one view and run
// every query against it so tables and totals come from the same run.
func (a *Analytics) View() *View {
	return &View{snap: a.Snapshot()}
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	snap := a.Snapshot()

	return map[string]any{
		"snapshot_id":      snap.ID,
		"generated_at":     snap.GeneratedAt,
		"seed":             snap.Seed,
		"regenerations":    a.regenerations.Load(),
		"projects":         len(snap.Projects),
		"activities":       len(snap.Activities),
		"sales_orders":     len(snap.SalesOrders),
		"compliance_tasks": len(snap.ComplianceTasks),
		"market_records":   len(snap.MarketTurnover),
	}
}

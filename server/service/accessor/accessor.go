// Package accessor serves schedule resources cache-aside with stale-while-revalidate.
//
// A lookup that finds a live cache entry returns it immediately and refreshes the
// entry in the background; a lookup that misses fetches synchronously, stores the
// result and returns it. Only the synchronous path surfaces remote failures.
//
// Writers must call Invalidate after every mutation that changes a cached resource.
// Concurrent refreshes, invalidations and miss-path writes of the same key are not
// ordered: the last write wins.
package accessor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/hrygo/shiftcover/server/internal/errors"
	"github.com/hrygo/shiftcover/server/internal/observability"
	"github.com/hrygo/shiftcover/server/service/coverage"
	"github.com/hrygo/shiftcover/store"
	"github.com/hrygo/shiftcover/store/cache"
)

// dependents lists the categories derived from each category.
// Invalidating a category also invalidates its dependents for the same owner.
var dependents = map[cache.Category][]cache.Category{
	cache.CategoryStaffList:           {cache.CategoryDashboardSummary},
	cache.CategoryRequirementTemplate: {cache.CategoryScheduleOverview, cache.CategoryDashboardSummary},
	cache.CategoryScheduleOverview:    {cache.CategoryDashboardSummary},
}

// Option customizes an Accessor.
type Option func(*Accessor)

// WithClock replaces the time source used for dashboard periods.
func WithClock(now func() time.Time) Option {
	return func(a *Accessor) {
		a.now = now
	}
}

// WithLogger sets the logger of background refreshes.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Accessor) {
		a.logger = logger
	}
}

// WithMetrics records hits, misses and fetches into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Accessor) {
		a.metrics = m
	}
}

// Accessor is the cache-aside front of the remote schedule store.
type Accessor struct {
	cache   Cache
	fetcher Fetcher
	cfg     Config
	now     func() time.Time
	logger  *slog.Logger
	metrics *observability.Metrics

	group singleflight.Group

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates an Accessor over c and fetcher.
func New(c Cache, fetcher Fetcher, cfg Config, opts ...Option) *Accessor {
	if cfg.TTLs == nil {
		cfg.TTLs = DefaultConfig().TTLs
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultConfig().RefreshTimeout
	}

	a := &Accessor{
		cache:   c,
		fetcher: newLimitedFetcher(fetcher, cfg.RemoteRPS, cfg.RemoteBurst),
		cfg:     cfg,
		now:     time.Now,
		logger:  slog.Default(),
		metrics: observability.NewMetrics(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close waits for in-flight background refreshes. Lookups after Close still
// work but no longer refresh in the background.
func (a *Accessor) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	a.wg.Wait()
}

// Metrics returns the accessor's counters.
func (a *Accessor) Metrics() *observability.Metrics {
	return a.metrics
}

// GetOptimizedStaffRoster returns the owner's roster.
func (a *Accessor) GetOptimizedStaffRoster(ctx context.Context, ownerID string) ([]*store.Staff, *RefreshTask, error) {
	return getOptimized(ctx, a, cache.CategoryStaffList, ownerID, "", func(ctx context.Context) ([]*store.Staff, error) {
		return a.fetcher.FetchStaffRoster(ctx, ownerID)
	})
}

// GetOptimizedTemplate returns the owner's requirement template for period, nil when none exists.
func (a *Accessor) GetOptimizedTemplate(ctx context.Context, ownerID, period string) (*store.RequirementTemplate, *RefreshTask, error) {
	p, err := coverage.ParsePeriod(period)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "invalid period")
	}
	// Templates are kept per month.
	month := p.TemplatePeriod()
	return getOptimized(ctx, a, cache.CategoryRequirementTemplate, ownerID, month, func(ctx context.Context) (*store.RequirementTemplate, error) {
		return a.fetcher.FetchRequirementTemplate(ctx, ownerID, month)
	})
}

// GetOptimizedOverview returns the coverage overview of the owner for period.
func (a *Accessor) GetOptimizedOverview(ctx context.Context, ownerID, period string) (*coverage.Overview, *RefreshTask, error) {
	p, err := coverage.ParsePeriod(period)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "invalid period")
	}
	return getOptimized(ctx, a, cache.CategoryScheduleOverview, ownerID, p.Label, func(ctx context.Context) (*coverage.Overview, error) {
		return a.fetchOverview(ctx, ownerID, p)
	})
}

// GetOptimizedDashboard returns the dashboard summary of the owner for the current month.
func (a *Accessor) GetOptimizedDashboard(ctx context.Context, ownerID string) (*coverage.DashboardSummary, *RefreshTask, error) {
	return getOptimized(ctx, a, cache.CategoryDashboardSummary, ownerID, "", func(ctx context.Context) (*coverage.DashboardSummary, error) {
		return a.fetchDashboard(ctx, ownerID)
	})
}

func (a *Accessor) fetchOverview(ctx context.Context, ownerID string, p coverage.Period) (*coverage.Overview, error) {
	months := p.Months()
	fetched := make([]*store.RequirementTemplate, len(months))
	var slots []*store.ScheduleSlot

	g, gctx := errgroup.WithContext(ctx)
	for i, month := range months {
		g.Go(func() error {
			template, err := a.fetcher.FetchRequirementTemplate(gctx, ownerID, month)
			fetched[i] = template
			return errors.Wrapf(err, "fetch requirement template %s", month)
		})
	}
	g.Go(func() error {
		var err error
		slots, err = a.fetcher.FetchScheduleSlots(gctx, ownerID, p.DateRange())
		return errors.Wrap(err, "fetch schedule slots")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	templates := make(coverage.Templates, len(months))
	for i, month := range months {
		templates[month] = fetched[i]
	}
	return coverage.ComputeOverview(ownerID, p, slots, templates), nil
}

func (a *Accessor) fetchDashboard(ctx context.Context, ownerID string) (*coverage.DashboardSummary, error) {
	now := a.now()
	p := coverage.MonthPeriod(now.In(a.cfg.Location))

	var roster []*store.Staff
	var overview *coverage.Overview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roster, err = a.fetcher.FetchStaffRoster(gctx, ownerID)
		return errors.Wrap(err, "fetch staff roster")
	})
	g.Go(func() error {
		var err error
		overview, err = a.fetchOverview(gctx, ownerID, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return coverage.Summarize(overview, roster, now), nil
}

// getOptimized implements the cache-aside lookup for one key.
func getOptimized[T any](ctx context.Context, a *Accessor, category cache.Category, ownerID, period string, fetch func(context.Context) (T, error)) (T, *RefreshTask, error) {
	key := cache.Key(category, ownerID, period)
	ttl := a.cfg.TTL(category)

	var cached T
	if a.cache.GetInto(key, &cached) {
		a.metrics.RecordHit(string(category))
		task := a.spawnRefresh(ctx, category, ownerID, key, func(ctx context.Context) error {
			fresh, err := fetchShared(ctx, a, category, key, fetch)
			if err != nil {
				return err
			}
			a.cache.Set(key, fresh, ttl)
			return nil
		})
		return cached, task, nil
	}

	a.metrics.RecordMiss(string(category))
	fresh, err := fetchShared(ctx, a, category, key, fetch)
	if err != nil {
		var zero T
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The caller went away; the remote store is not at fault.
			return zero, nil, errors.Wrap(ctxErr, "fetch "+key)
		}
		return zero, nil, apperrors.RemoteUnavailable("fetch "+key, err)
	}
	a.cache.Set(key, fresh, ttl)
	return fresh, nil, nil
}

// fetchShared runs one remote fetch. With coalescing enabled, concurrent fetches
// of the same key wait for the first one and share its result. The shared fetch
// runs detached from every caller and is bounded by RefreshTimeout, so a caller
// that gives up only stops its own wait.
func fetchShared[T any](ctx context.Context, a *Accessor, category cache.Category, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	call := func(ctx context.Context) (any, error) {
		start := time.Now()
		v, err := fetch(ctx)
		a.metrics.RecordFetch(string(category), time.Since(start), err)
		return v, err
	}

	if !a.cfg.CoalesceFetches {
		v, err := call(ctx)
		if err != nil {
			return zero, err
		}
		return v.(T), nil
	}

	results := a.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.RefreshTimeout)
		defer cancel()
		return call(shared)
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// spawnRefresh runs refresh on a goroutine detached from the caller's cancellation.
func (a *Accessor) spawnRefresh(ctx context.Context, category cache.Category, ownerID, key string, refresh func(context.Context) error) *RefreshTask {
	rc := observability.NewRequestContext(a.logger, "refresh", ownerID)
	if parent, ok := observability.FromContext(ctx); ok {
		rc.Logger = rc.Logger.With(slog.String(observability.LogFieldParentRequestID, parent.RequestID))
	}
	task := newRefreshTask(rc.RequestID, key)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		task.finish(ErrClosed)
		return task
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.RefreshTimeout)
		defer cancel()

		err := refresh(ctx)
		if err != nil {
			a.metrics.RecordRefreshFailure(string(category))
			rc.Error("background cache refresh failed", err,
				slog.String(observability.LogFieldCacheKey, key),
				slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
		} else {
			rc.Debug("background cache refresh done",
				slog.String(observability.LogFieldCacheKey, key),
				slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
		}
		task.finish(err)
	}()
	return task
}

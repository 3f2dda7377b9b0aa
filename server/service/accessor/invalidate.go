package accessor

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/shiftcover/server/service/coverage"
	"github.com/hrygo/shiftcover/store/cache"
)

// warmConcurrency caps the owners warmed at the same time.
const warmConcurrency = 4

// Invalidate removes the owner's entry of category and every entry derived from it.
// extraKey selects one period (or conversation); without it every entry of the owner
// in category is removed. Missing entries are ignored.
func (a *Accessor) Invalidate(category cache.Category, ownerID string, extraKey ...string) {
	extra := ""
	if len(extraKey) > 0 {
		extra = extraKey[0]
	}

	a.remove(category, ownerID, extra)
	for _, dependent := range dependents[category] {
		// A template period does not identify the overviews built on it,
		// since range periods resolve to the template of their first month.
		a.remove(dependent, ownerID, "")
	}
	slog.Debug("cache invalidated", "category", category, "owner", ownerID, "extra", extra)
}

func (a *Accessor) remove(category cache.Category, ownerID, extra string) {
	if extra != "" {
		a.cache.Remove(cache.Key(category, ownerID, extra))
		return
	}
	key := cache.Key(category, ownerID)
	a.cache.Remove(key)
	a.cache.ClearByPrefix(key + cache.KeySeparator)
}

// ClearAll removes every entry of every known category and returns how many were removed.
func (a *Accessor) ClearAll() int {
	count := 0
	for _, category := range cache.Categories {
		count += a.cache.ClearByPrefix(category.Prefix())
	}
	slog.Info("cache cleared", "entries", count)
	return count
}

// CacheStats reports the live entries of the cache.
func (a *Accessor) CacheStats() cache.Stats {
	return a.cache.Stats()
}

// Warm loads the roster, the template and the overview of every owner for period.
// Entries already cached are refreshed in the background instead.
func (a *Accessor) Warm(ctx context.Context, ownerIDs []string, period string) error {
	p, err := coverage.ParsePeriod(period)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for _, ownerID := range ownerIDs {
		g.Go(func() error {
			if _, _, err := a.GetOptimizedStaffRoster(gctx, ownerID); err != nil {
				return err
			}
			if _, _, err := a.GetOptimizedTemplate(gctx, ownerID, p.TemplatePeriod()); err != nil {
				return err
			}
			_, _, err := a.GetOptimizedOverview(gctx, ownerID, p.Label)
			return err
		})
	}
	return g.Wait()
}

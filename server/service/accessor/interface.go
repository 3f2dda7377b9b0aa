package accessor

import (
	"context"
	"time"

	"github.com/hrygo/shiftcover/store"
	"github.com/hrygo/shiftcover/store/cache"
)

// Fetcher reads resources from the remote schedule store.
// *store.Store implements it.
type Fetcher interface {
	FetchStaffRoster(ctx context.Context, ownerID string) ([]*store.Staff, error)
	// FetchRequirementTemplate returns nil when the owner has no template for period.
	FetchRequirementTemplate(ctx context.Context, ownerID, period string) (*store.RequirementTemplate, error)
	FetchScheduleSlots(ctx context.Context, ownerID string, r store.DateRange) ([]*store.ScheduleSlot, error)
}

// Cache is the subset of *cache.Store used by the accessor.
type Cache interface {
	Set(key string, payload any, ttl time.Duration)
	GetInto(key string, dst any) bool
	Remove(key string)
	ClearByPrefix(prefix string) int
	Stats() cache.Stats
}

var (
	_ Fetcher = (*store.Store)(nil)
	_ Cache   = (*cache.Store)(nil)
)

package accessor

import (
	"time"

	"github.com/hrygo/shiftcover/internal/profile"
	"github.com/hrygo/shiftcover/server/timezone"
	"github.com/hrygo/shiftcover/store/cache"
)

// Config configures an Accessor.
type Config struct {
	// TTLs maps each category to the lifetime of its entries.
	TTLs map[cache.Category]time.Duration
	// RefreshTimeout bounds each background refresh and each shared fetch.
	RefreshTimeout time.Duration
	// RemoteRPS and RemoteBurst limit calls into the Fetcher. Zero RPS disables limiting.
	RemoteRPS   float64
	RemoteBurst int
	// CoalesceFetches shares one remote call between concurrent fetches of the same key.
	CoalesceFetches bool
	// Location resolves the current month of dashboard summaries.
	Location *time.Location
}

// DefaultConfig returns the default accessor configuration.
func DefaultConfig() Config {
	return Config{
		TTLs: map[cache.Category]time.Duration{
			cache.CategoryStaffList:           24 * time.Hour,
			cache.CategoryRequirementTemplate: 7 * 24 * time.Hour,
			cache.CategoryScheduleOverview:    15 * time.Minute,
			cache.CategoryDashboardSummary:    5 * time.Minute,
			cache.CategoryConversation:        30 * time.Minute,
		},
		RefreshTimeout:  30 * time.Second,
		RemoteRPS:       20,
		RemoteBurst:     40,
		CoalesceFetches: true,
		Location:        time.UTC,
	}
}

// ConfigFromProfile builds the accessor configuration from the server profile.
func ConfigFromProfile(p *profile.Profile) Config {
	cfg := DefaultConfig()
	setTTL := func(category cache.Category, ttl time.Duration) {
		if ttl > 0 {
			cfg.TTLs[category] = ttl
		}
	}
	setTTL(cache.CategoryStaffList, p.StaffListTTL)
	setTTL(cache.CategoryRequirementTemplate, p.RequirementTemplateTTL)
	setTTL(cache.CategoryScheduleOverview, p.ScheduleOverviewTTL)
	setTTL(cache.CategoryDashboardSummary, p.DashboardSummaryTTL)
	setTTL(cache.CategoryConversation, p.ConversationTTL)

	if p.RefreshTimeout > 0 {
		cfg.RefreshTimeout = p.RefreshTimeout
	}
	cfg.RemoteRPS = p.RemoteRPS
	cfg.RemoteBurst = p.RemoteBurst
	cfg.CoalesceFetches = p.CoalesceFetches
	cfg.Location = timezone.LocationOrUTC(p.Timezone)
	return cfg
}

// TTL returns the lifetime of entries in category.
func (c Config) TTL(category cache.Category) time.Duration {
	if ttl, ok := c.TTLs[category]; ok && ttl > 0 {
		return ttl
	}
	return DefaultConfig().TTLs[category]
}

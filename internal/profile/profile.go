package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/shiftcover/server/timezone"
)

// Profile is the configuration to start the shiftcover server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to the remote schedule store
	DSN string
	// Driver is the remote store driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// Timezone is used to resolve "current month" for dashboards
	Timezone string

	// Cache configuration
	CacheDriver          string        // SHIFTCOVER_CACHE_DRIVER (memory|sqlite, default: memory)
	CacheDSN             string        // SHIFTCOVER_CACHE_DSN (default: <data>/shiftcover_cache_<mode>.db)
	CacheQuotaBytes      int64         // SHIFTCOVER_CACHE_QUOTA_BYTES (default: 5 MiB)
	CacheLargeWriteBytes int64         // SHIFTCOVER_CACHE_LARGE_WRITE_BYTES (default: 64 KiB)
	CacheJanitorInterval time.Duration // SHIFTCOVER_CACHE_JANITOR_INTERVAL (default: 0, disabled)

	// Per-category TTLs
	StaffListTTL           time.Duration // SHIFTCOVER_TTL_STAFF_LIST (default: 24h)
	RequirementTemplateTTL time.Duration // SHIFTCOVER_TTL_REQUIREMENT_TEMPLATE (default: 168h)
	ScheduleOverviewTTL    time.Duration // SHIFTCOVER_TTL_SCHEDULE_OVERVIEW (default: 15m)
	DashboardSummaryTTL    time.Duration // SHIFTCOVER_TTL_DASHBOARD_SUMMARY (default: 5m)
	ConversationTTL        time.Duration // SHIFTCOVER_TTL_CONVERSATION (default: 30m)

	// Remote access
	RefreshTimeout  time.Duration // SHIFTCOVER_REFRESH_TIMEOUT (default: 30s)
	RemoteRPS       float64       // SHIFTCOVER_REMOTE_RPS (default: 20)
	RemoteBurst     int           // SHIFTCOVER_REMOTE_BURST (default: 40)
	CoalesceFetches bool          // SHIFTCOVER_COALESCE_FETCHES (default: true)
}

const (
	DefaultCacheQuotaBytes      = 5 * 1024 * 1024
	DefaultCacheLargeWriteBytes = 64 * 1024
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
// Unset or unparsable values fall back to the defaults.
func (p *Profile) FromEnv() {
	getDuration := func(key string, defaultValue time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			slog.Warn("invalid duration in environment, using default", "key", key, "value", raw, "default", defaultValue)
			return defaultValue
		}
		return d
	}
	getInt64 := func(key string, defaultValue int64) int64 {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			slog.Warn("invalid integer in environment, using default", "key", key, "value", raw)
			return defaultValue
		}
		return v
	}
	getFloat := func(key string, defaultValue float64) float64 {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			slog.Warn("invalid number in environment, using default", "key", key, "value", raw)
			return defaultValue
		}
		return v
	}

	p.Timezone = getEnvOrDefault("SHIFTCOVER_TIMEZONE", "UTC")

	p.CacheDriver = getEnvOrDefault("SHIFTCOVER_CACHE_DRIVER", "memory")
	p.CacheDSN = os.Getenv("SHIFTCOVER_CACHE_DSN")
	p.CacheQuotaBytes = getInt64("SHIFTCOVER_CACHE_QUOTA_BYTES", DefaultCacheQuotaBytes)
	p.CacheLargeWriteBytes = getInt64("SHIFTCOVER_CACHE_LARGE_WRITE_BYTES", DefaultCacheLargeWriteBytes)
	p.CacheJanitorInterval = getDuration("SHIFTCOVER_CACHE_JANITOR_INTERVAL", 0)

	p.StaffListTTL = getDuration("SHIFTCOVER_TTL_STAFF_LIST", 24*time.Hour)
	p.RequirementTemplateTTL = getDuration("SHIFTCOVER_TTL_REQUIREMENT_TEMPLATE", 7*24*time.Hour)
	p.ScheduleOverviewTTL = getDuration("SHIFTCOVER_TTL_SCHEDULE_OVERVIEW", 15*time.Minute)
	p.DashboardSummaryTTL = getDuration("SHIFTCOVER_TTL_DASHBOARD_SUMMARY", 5*time.Minute)
	p.ConversationTTL = getDuration("SHIFTCOVER_TTL_CONVERSATION", 30*time.Minute)

	p.RefreshTimeout = getDuration("SHIFTCOVER_REFRESH_TIMEOUT", 30*time.Second)
	p.RemoteRPS = getFloat("SHIFTCOVER_REMOTE_RPS", 20)
	p.RemoteBurst = int(getInt64("SHIFTCOVER_REMOTE_BURST", 40))
	p.CoalesceFetches = getEnvOrDefault("SHIFTCOVER_COALESCE_FETCHES", "true") == "true"
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}
	if p.CacheDriver == "" {
		p.CacheDriver = "memory"
	}
	if p.CacheDriver != "memory" && p.CacheDriver != "sqlite" {
		return errors.Errorf("unsupported cache driver %q: only 'memory' and 'sqlite' are supported", p.CacheDriver)
	}
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if !timezone.IsValidTimezone(p.Timezone) {
		return errors.Errorf("invalid timezone %q", p.Timezone)
	}
	if p.CacheQuotaBytes <= 0 {
		p.CacheQuotaBytes = DefaultCacheQuotaBytes
	}
	if p.CacheLargeWriteBytes <= 0 {
		p.CacheLargeWriteBytes = DefaultCacheLargeWriteBytes
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "shiftcover")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/shiftcover"
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("shiftcover_%s.db", p.Mode))
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}
	if p.CacheDriver == "sqlite" && p.CacheDSN == "" {
		p.CacheDSN = filepath.Join(dataDir, fmt.Sprintf("shiftcover_cache_%s.db", p.Mode))
	}

	return nil
}

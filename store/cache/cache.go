// Package cache provides the TTL cache store used in front of the remote schedule store.
//
// Entries live in a Backend as JSON envelopes {payload, storedAt, ttl} under keys of the
// form category/owner[/period]. Expired entries are never returned: they are removed
// lazily on read, by PurgeExpired, or by the quota Evictor. Entries that fail to decode
// are treated as absent and removed, so callers never see a serialization error.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Config configures a Store.
type Config struct {
	// QuotaBytes is the size limit the evictor protects (default: 5 MiB).
	QuotaBytes int64
	// LargeWriteBytes triggers an eviction pass after any write at least this large.
	// Zero disables write-triggered eviction.
	LargeWriteBytes int64
	// JanitorInterval runs PurgeExpired and an eviction pass periodically after Init.
	// Zero disables the janitor.
	JanitorInterval time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		QuotaBytes:      DefaultQuotaBytes,
		LargeWriteBytes: 64 * 1024,
	}
}

// Stats describes the live entries of a Store.
type Stats struct {
	TotalEntries   int            `json:"totalEntries"`
	TotalSizeBytes int64          `json:"totalSizeBytes"`
	ByCategory     map[string]int `json:"byCategory"`
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the time source. Used by tests to move time forward.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is a namespaced key/value store with per-entry expiry.
type Store struct {
	backend         Backend
	now             func() time.Time
	evictor         *Evictor
	largeWriteBytes int64
	janitorInterval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Store over backend. Call Init before use and Close when done.
func New(backend Backend, cfg Config, opts ...Option) *Store {
	if cfg.QuotaBytes <= 0 {
		cfg.QuotaBytes = DefaultQuotaBytes
	}

	s := &Store{
		backend:         backend,
		now:             time.Now,
		largeWriteBytes: cfg.LargeWriteBytes,
		janitorInterval: cfg.JanitorInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.evictor = newEvictor(s, cfg.QuotaBytes)
	return s
}

// Init runs an initial eviction pass and starts the janitor if configured.
func (s *Store) Init(ctx context.Context) {
	if evicted := s.evictor.AutoCleanupIfNeeded(); evicted > 0 {
		slog.Info("cache quota cleanup on init", "evicted", evicted)
	}

	if s.janitorInterval <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.janitorLoop(ctx)
}

// Close stops the janitor and closes the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	return s.backend.Close()
}

// Evictor returns the quota evictor bound to this store.
func (s *Store) Evictor() *Evictor {
	return s.evictor
}

// Set stores payload under key for ttl.
// Failures are logged and leave the key absent.
func (s *Store) Set(key string, payload any, ttl time.Duration) {
	data, err := encodeEnvelope(payload, s.now(), ttl)
	if err != nil {
		slog.Warn("failed to serialize cache entry", "key", key, "error", err)
		s.Remove(key)
		return
	}

	if err := s.backend.Write(key, data); err != nil {
		slog.Warn("failed to write cache entry", "key", key, "error", err)
		s.Remove(key)
		return
	}

	if s.largeWriteBytes > 0 && int64(len(data)) >= s.largeWriteBytes {
		if evicted := s.evictor.AutoCleanupIfNeeded(); evicted > 0 {
			slog.Info("cache quota cleanup after large write", "key", key, "size", len(data), "evicted", evicted)
		}
	}
}

// Get returns the raw payload stored under key.
// Missing, expired and corrupted entries all report false; the latter two are deleted.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	data, ok, err := s.backend.Read(key)
	if err != nil {
		slog.Warn("failed to read cache entry", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		slog.Warn("removing corrupted cache entry", "key", key, "error", err)
		s.Remove(key)
		return nil, false
	}

	if env.Expired(s.now()) {
		s.Remove(key)
		return nil, false
	}

	return env.Payload, true
}

// GetInto decodes the payload under key into dst.
// A payload that does not decode into dst is treated as corrupted.
func (s *Store) GetInto(key string, dst any) bool {
	payload, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		slog.Warn("removing cache entry with undecodable payload", "key", key, "error", err)
		s.Remove(key)
		return false
	}
	return true
}

// Remove deletes key if present.
func (s *Store) Remove(key string) {
	if err := s.backend.Delete(key); err != nil {
		slog.Warn("failed to delete cache entry", "key", key, "error", err)
	}
}

// ClearByPrefix deletes every key starting with prefix and returns how many were deleted.
func (s *Store) ClearByPrefix(prefix string) int {
	keys, err := s.backend.Keys()
	if err != nil {
		slog.Warn("failed to list cache keys", "prefix", prefix, "error", err)
		return 0
	}

	count := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := s.backend.Delete(key); err != nil {
			slog.Warn("failed to delete cache entry", "key", key, "error", err)
			continue
		}
		count++
	}
	return count
}

// Stats reports the live entries. Expired entries are skipped but not deleted.
func (s *Store) Stats() Stats {
	stats := Stats{ByCategory: make(map[string]int)}

	now := s.now()
	s.scan(func(key string, data []byte, env *Envelope) {
		if env == nil || env.Expired(now) {
			return
		}
		stats.TotalEntries++
		stats.TotalSizeBytes += int64(len(data))
		stats.ByCategory[CategoryOf(key)]++
	})
	return stats
}

// PurgeExpired deletes expired and corrupted entries and returns how many were deleted.
func (s *Store) PurgeExpired() int {
	var stale []string

	now := s.now()
	s.scan(func(key string, _ []byte, env *Envelope) {
		if env == nil || env.Expired(now) {
			stale = append(stale, key)
		}
	})

	for _, key := range stale {
		s.Remove(key)
	}
	return len(stale)
}

// scan visits every stored entry. env is nil when the entry does not decode.
func (s *Store) scan(visit func(key string, data []byte, env *Envelope)) {
	keys, err := s.backend.Keys()
	if err != nil {
		slog.Warn("failed to list cache keys", "error", err)
		return
	}

	for _, key := range keys {
		data, ok, err := s.backend.Read(key)
		if err != nil {
			slog.Warn("failed to read cache entry", "key", key, "error", err)
			continue
		}
		if !ok {
			// Deleted since Keys was taken.
			continue
		}
		env, err := decodeEnvelope(data)
		if err != nil {
			env = nil
		}
		visit(key, data, env)
	}
}

// janitorLoop periodically removes expired entries and enforces the quota.
func (s *Store) janitorLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged := s.PurgeExpired()
			evicted := s.evictor.AutoCleanupIfNeeded()
			if purged > 0 || evicted > 0 {
				slog.Debug("cache janitor pass", "purged", purged, "evicted", evicted)
			}
		}
	}
}

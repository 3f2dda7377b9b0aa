package cache

import (
	"log/slog"
	"sort"
	"sync"
)

const (
	// DefaultQuotaBytes is the default cache size limit.
	DefaultQuotaBytes = 5 * 1024 * 1024
	// QuotaThreshold is the fraction of the quota above which a sweep runs.
	QuotaThreshold = 0.8
	// EvictionDivisor selects the swept share: floor(n / EvictionDivisor) entries.
	EvictionDivisor = 3
)

// Evictor keeps a Store below its size quota by dropping the oldest writes.
//
// Age is write recency (storedAt), not read recency: reading an entry does not
// protect it. Entries that fail to decode get storedAt 0 and therefore go first.
// Entries with equal storedAt are ordered by key.
type Evictor struct {
	store      *Store
	quotaBytes int64

	// Serializes sweeps; concurrent Set calls are not blocked.
	mu sync.Mutex
}

type evictionCandidate struct {
	key      string
	storedAt int64
}

func newEvictor(store *Store, quotaBytes int64) *Evictor {
	return &Evictor{store: store, quotaBytes: quotaBytes}
}

// QuotaBytes returns the configured size limit.
func (e *Evictor) QuotaBytes() int64 {
	return e.quotaBytes
}

// Threshold returns the size above which AutoCleanupIfNeeded evicts.
func (e *Evictor) Threshold() int64 {
	return int64(float64(e.quotaBytes) * QuotaThreshold)
}

// AutoCleanupIfNeeded evicts the oldest third of all entries when the live size
// exceeds the threshold. It returns the number of deleted entries.
func (e *Evictor) AutoCleanupIfNeeded() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := e.store.Stats()
	if stats.TotalSizeBytes <= e.Threshold() {
		return 0
	}

	candidates := e.snapshot()
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].storedAt != candidates[j].storedAt {
			return candidates[i].storedAt < candidates[j].storedAt
		}
		return candidates[i].key < candidates[j].key
	})

	n := len(candidates) / EvictionDivisor
	for _, c := range candidates[:n] {
		e.store.Remove(c.key)
	}

	slog.Info("cache quota exceeded, evicted oldest entries",
		"size_bytes", stats.TotalSizeBytes,
		"threshold_bytes", e.Threshold(),
		"entries", len(candidates),
		"evicted", n)
	return n
}

// snapshot collects every stored entry, including expired ones.
func (e *Evictor) snapshot() []evictionCandidate {
	var candidates []evictionCandidate
	e.store.scan(func(key string, _ []byte, env *Envelope) {
		c := evictionCandidate{key: key}
		if env != nil {
			c.storedAt = env.StoredAt
		}
		candidates = append(candidates, c)
	})
	return candidates
}

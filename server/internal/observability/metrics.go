package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts cache-aside outcomes per cache category.
type Metrics struct {
	mu         sync.Mutex
	categories map[string]*CategoryMetrics
}

// CategoryMetrics holds the counters of one category.
type CategoryMetrics struct {
	hits            atomic.Int64
	misses          atomic.Int64
	fetches         atomic.Int64
	fetchFailures   atomic.Int64
	refreshFailures atomic.Int64
	fetchDuration   atomic.Int64 // milliseconds
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{categories: make(map[string]*CategoryMetrics)}
}

// RecordHit records a cache hit.
func (m *Metrics) RecordHit(category string) {
	m.get(category).hits.Add(1)
}

// RecordMiss records a cache miss.
func (m *Metrics) RecordMiss(category string) {
	m.get(category).misses.Add(1)
}

// RecordFetch records a remote fetch and its outcome.
func (m *Metrics) RecordFetch(category string, duration time.Duration, err error) {
	cm := m.get(category)
	cm.fetches.Add(1)
	cm.fetchDuration.Add(duration.Milliseconds())
	if err != nil {
		cm.fetchFailures.Add(1)
	}
}

// RecordRefreshFailure records a background refresh that did not update the cache.
func (m *Metrics) RecordRefreshFailure(category string) {
	m.get(category).refreshFailures.Add(1)
}

func (m *Metrics) get(category string) *CategoryMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	cm, ok := m.categories[category]
	if !ok {
		cm = &CategoryMetrics{}
		m.categories[category] = cm
	}
	return cm
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.mu.Lock()
	m.categories = make(map[string]*CategoryMetrics)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the counters, sorted by category.
func (m *Metrics) Snapshot() []CategorySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshots := make([]CategorySnapshot, 0, len(m.categories))
	for category, cm := range m.categories {
		s := CategorySnapshot{
			Category:        category,
			Hits:            cm.hits.Load(),
			Misses:          cm.misses.Load(),
			Fetches:         cm.fetches.Load(),
			FetchFailures:   cm.fetchFailures.Load(),
			RefreshFailures: cm.refreshFailures.Load(),
		}
		if s.Fetches > 0 {
			s.AverageFetchMs = cm.fetchDuration.Load() / s.Fetches
		}
		snapshots = append(snapshots, s)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Category < snapshots[j].Category
	})
	return snapshots
}

// CategorySnapshot is the state of one category's counters.
type CategorySnapshot struct {
	Category        string `json:"category"`
	Hits            int64  `json:"hits"`
	Misses          int64  `json:"misses"`
	Fetches         int64  `json:"fetches"`
	FetchFailures   int64  `json:"fetchFailures"`
	RefreshFailures int64  `json:"refreshFailures"`
	AverageFetchMs  int64  `json:"averageFetchMs"`
}

// HitRate returns hits as a percentage of lookups (0-100).
func (s CategorySnapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

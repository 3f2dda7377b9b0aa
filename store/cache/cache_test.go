package cache

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, cfg Config) (*Store, *MemoryBackend, *fakeClock) {
	t.Helper()
	backend := NewMemoryBackend()
	clock := newFakeClock()
	s := New(backend, cfg, WithClock(clock.Now))
	s.Init(context.Background())
	t.Cleanup(func() { s.Close() })
	return s, backend, clock
}

type roster struct {
	Names []string `json:"names"`
}

func TestStore_SetAndGet(t *testing.T) {
	s, _, _ := newTestStore(t, Config{})

	t.Run("RoundTrip", func(t *testing.T) {
		s.Set("staff-list/o1", roster{Names: []string{"ann", "bo"}}, time.Minute)

		var got roster
		require.True(t, s.GetInto("staff-list/o1", &got))
		assert.Equal(t, []string{"ann", "bo"}, got.Names)
	})

	t.Run("RawPayload", func(t *testing.T) {
		s.Set("conversation/o1", map[string]int{"unread": 3}, time.Millisecond)

		payload, ok := s.Get("conversation/o1")
		require.True(t, ok)
		assert.JSONEq(t, `{"unread":3}`, string(payload))
	})

	t.Run("Missing", func(t *testing.T) {
		payload, ok := s.Get("staff-list/nobody")
		assert.False(t, ok)
		assert.Nil(t, payload)
	})

	t.Run("Overwrite", func(t *testing.T) {
		s.Set("staff-list/o2", roster{Names: []string{"old"}}, time.Minute)
		s.Set("staff-list/o2", roster{Names: []string{"new"}}, time.Minute)

		var got roster
		require.True(t, s.GetInto("staff-list/o2", &got))
		assert.Equal(t, []string{"new"}, got.Names)
	})
}

func TestStore_Expiry(t *testing.T) {
	s, backend, clock := newTestStore(t, Config{})

	s.Set("dashboard-summary/o1", 42, 5*time.Minute)
	s.Set("staff-list/o1", 7, time.Hour)

	clock.Advance(5 * time.Minute)
	_, ok := s.Get("dashboard-summary/o1")
	assert.True(t, ok, "entry exactly at its ttl is still fresh")

	clock.Advance(time.Millisecond)
	stats := s.Stats()
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, map[string]int{"staff-list": 1}, stats.ByCategory)
	assert.Equal(t, 2, backend.Len(), "stats does not purge")

	_, ok = s.Get("dashboard-summary/o1")
	assert.False(t, ok)
	assert.Equal(t, 1, backend.Len(), "expired entry is deleted on read")
}

func TestStore_SelfHealing(t *testing.T) {
	s, backend, _ := newTestStore(t, Config{})

	tests := []struct {
		name string
		data string
	}{
		{"NotJSON", "{{{"},
		{"NoPayload", `{"storedAt":1,"ttl":1000}`},
		{"NegativeTTL", `{"payload":1,"storedAt":1,"ttl":-5}`},
		{"WrongShape", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "staff-list/" + strings.ToLower(tt.name)
			require.NoError(t, backend.Write(key, []byte(tt.data)))

			_, ok := s.Get(key)
			assert.False(t, ok)

			_, exists, err := backend.Read(key)
			require.NoError(t, err)
			assert.False(t, exists, "corrupted entry is removed")
		})
	}

	t.Run("UndecodablePayload", func(t *testing.T) {
		s.Set("staff-list/typed", "not a roster", time.Minute)

		var got roster
		assert.False(t, s.GetInto("staff-list/typed", &got))
		_, ok := s.Get("staff-list/typed")
		assert.False(t, ok)
	})
}

func TestStore_SerializationFailureIsNoop(t *testing.T) {
	s, _, _ := newTestStore(t, Config{})

	s.Set("schedule-overview/o1/2026-10", map[string]int{"total": 1}, time.Minute)
	s.Set("schedule-overview/o1/2026-10", math.Inf(1), time.Minute)

	_, ok := s.Get("schedule-overview/o1/2026-10")
	assert.False(t, ok, "failed write leaves the key absent")

	s.Set("schedule-overview/o1/2026-11", make(chan int), time.Minute)
	_, ok = s.Get("schedule-overview/o1/2026-11")
	assert.False(t, ok)
}

func TestStore_RemoveAndClearByPrefix(t *testing.T) {
	s, _, _ := newTestStore(t, Config{})

	s.Set("staff-list/o1", 1, time.Hour)
	s.Set("staff-list/o2", 2, time.Hour)
	s.Set("staff-x", 3, time.Hour)
	s.Set("requirement-template/o1/2026-10", 4, time.Hour)
	s.Set("dashboard-summary/o1", 5, time.Hour)

	s.Remove("dashboard-summary/o1")
	s.Remove("dashboard-summary/o1")
	_, ok := s.Get("dashboard-summary/o1")
	assert.False(t, ok)

	count := s.ClearByPrefix("staff-")
	assert.Equal(t, 3, count)

	for _, key := range []string{"staff-list/o1", "staff-list/o2", "staff-x"} {
		_, ok := s.Get(key)
		assert.False(t, ok, key)
	}
	_, ok = s.Get("requirement-template/o1/2026-10")
	assert.True(t, ok)

	assert.Equal(t, 0, s.ClearByPrefix("conversation/"))
}

func TestStore_Stats(t *testing.T) {
	s, backend, _ := newTestStore(t, Config{})

	s.Set(Key(CategoryStaffList, "o1"), []string{"a"}, time.Hour)
	s.Set(Key(CategoryStaffList, "o2"), []string{"b"}, time.Hour)
	s.Set(Key(CategoryScheduleOverview, "o1", "2026-10"), map[string]int{"t": 1}, time.Hour)
	require.NoError(t, backend.Write("staff-list/broken", []byte("nope")))

	var want int64
	for _, key := range []string{"staff-list/o1", "staff-list/o2", "schedule-overview/o1/2026-10"} {
		data, ok, err := backend.Read(key)
		require.NoError(t, err)
		require.True(t, ok)
		want += int64(len(data))
	}

	stats := s.Stats()
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, want, stats.TotalSizeBytes)
	assert.Equal(t, map[string]int{"staff-list": 2, "schedule-overview": 1}, stats.ByCategory)
}

func TestStore_PurgeExpired(t *testing.T) {
	s, backend, clock := newTestStore(t, Config{})

	s.Set("dashboard-summary/o1", 1, time.Minute)
	s.Set("staff-list/o1", 2, time.Hour)
	require.NoError(t, backend.Write("conversation/o1", []byte("garbage")))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, s.PurgeExpired())
	assert.Equal(t, 1, backend.Len())
}

func TestStore_EnvelopeLayout(t *testing.T) {
	s, backend, clock := newTestStore(t, Config{})

	s.Set("staff-list/o1", []int{1, 2}, 90*time.Second)

	data, ok, err := backend.Read("staff-list/o1")
	require.NoError(t, err)
	require.True(t, ok)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.JSONEq(t, `[1,2]`, string(env.Payload))
	assert.Equal(t, clock.Now().UnixMilli(), env.StoredAt)
	assert.Equal(t, int64(90000), env.TTL)
	assert.True(t, clock.Now().Add(90*time.Second+time.Millisecond).Equal(env.ExpiresAt()))
}

func TestStore_Janitor(t *testing.T) {
	backend := NewMemoryBackend()
	clock := newFakeClock()
	s := New(backend, Config{JanitorInterval: 10 * time.Millisecond}, WithClock(clock.Now))
	s.Init(context.Background())
	defer s.Close()

	s.Set("dashboard-summary/o1", 1, time.Minute)
	clock.Advance(time.Hour)

	assert.Eventually(t, func() bool {
		return backend.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "staff-list/o1", Key(CategoryStaffList, "o1"))
	assert.Equal(t, "schedule-overview/o1/2026-10", Key(CategoryScheduleOverview, "o1", "2026-10"))
	assert.Equal(t, "dashboard-summary/o1", Key(CategoryDashboardSummary, "o1", ""))

	assert.Equal(t, "schedule-overview", CategoryOf("schedule-overview/o1/2026-10"))
	assert.Equal(t, "orphan", CategoryOf("orphan"))

	assert.True(t, CategoryConversation.IsKnown())
	assert.False(t, Category("memo").IsKnown())
	assert.Equal(t, "staff-list/", CategoryStaffList.Prefix())
}

func TestMemoryBackend_ConcurrentAccess(t *testing.T) {
	s, _, _ := newTestStore(t, Config{})
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s.Set(Key(CategoryStaffList, string(rune('a'+n%26))), n, time.Minute)
		}(i)
		go func(n int) {
			defer wg.Done()
			s.Get(Key(CategoryStaffList, string(rune('a'+n%26))))
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 26, s.Stats().TotalEntries)
}

package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictor_RemovesOldestThird(t *testing.T) {
	s, backend, clock := newTestStore(t, Config{QuotaBytes: 100})

	// Insertion order differs from key order so the sweep must use storedAt.
	keys := []string{"i", "h", "g", "f", "e", "d", "c", "b", "a"}
	for _, k := range keys {
		s.Set(Key(CategoryStaffList, k), k, time.Hour)
		clock.Advance(time.Second)
	}
	require.Greater(t, s.Stats().TotalSizeBytes, s.Evictor().Threshold())

	// Reading does not protect an entry.
	_, ok := s.Get(Key(CategoryStaffList, "i"))
	require.True(t, ok)

	evicted := s.Evictor().AutoCleanupIfNeeded()
	assert.Equal(t, 3, evicted)
	assert.Equal(t, 6, backend.Len())

	for _, k := range keys[:3] {
		_, ok := s.Get(Key(CategoryStaffList, k))
		assert.False(t, ok, "oldest entry %s evicted", k)
	}
	for _, k := range keys[3:] {
		_, ok := s.Get(Key(CategoryStaffList, k))
		assert.True(t, ok, "newer entry %s kept", k)
	}
}

func TestEvictor_BelowThreshold(t *testing.T) {
	s, backend, _ := newTestStore(t, Config{})

	for _, k := range []string{"a", "b", "c"} {
		s.Set(Key(CategoryStaffList, k), k, time.Hour)
	}

	assert.Equal(t, int64(DefaultQuotaBytes), s.Evictor().QuotaBytes())
	assert.Equal(t, 0, s.Evictor().AutoCleanupIfNeeded())
	assert.Equal(t, 3, backend.Len())
}

func TestEvictor_CorruptedEntriesGoFirst(t *testing.T) {
	s, backend, clock := newTestStore(t, Config{QuotaBytes: 100})

	for _, k := range []string{"a", "b", "c", "d"} {
		s.Set(Key(CategoryScheduleOverview, k), k, time.Hour)
		clock.Advance(time.Second)
	}
	require.NoError(t, backend.Write("conversation/zz", []byte("corrupt")))
	require.NoError(t, backend.Write("conversation/yy", []byte("corrupt")))

	evicted := s.Evictor().AutoCleanupIfNeeded()
	assert.Equal(t, 2, evicted)

	for _, key := range []string{"conversation/yy", "conversation/zz"} {
		_, exists, err := backend.Read(key)
		require.NoError(t, err)
		assert.False(t, exists, key)
	}
	assert.Equal(t, 4, s.Stats().TotalEntries)
}

func TestEvictor_TiesBrokenByKey(t *testing.T) {
	s, backend, _ := newTestStore(t, Config{QuotaBytes: 100})

	// Same storedAt for all entries.
	for _, k := range []string{"f", "e", "d", "c", "b", "a"} {
		s.Set(Key(CategoryStaffList, k), k, time.Hour)
	}

	assert.Equal(t, 2, s.Evictor().AutoCleanupIfNeeded())
	keys, err := backend.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"staff-list/c", "staff-list/d", "staff-list/e", "staff-list/f"}, keys)
}

func TestEvictor_TriggeredByLargeWrite(t *testing.T) {
	s, backend, clock := newTestStore(t, Config{QuotaBytes: 200, LargeWriteBytes: 150})

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		s.Set(Key(CategoryStaffList, k), k, time.Hour)
		clock.Advance(time.Second)
	}
	assert.Equal(t, 5, backend.Len(), "small writes never sweep")

	s.Set(Key(CategoryScheduleOverview, "big"), strings.Repeat("x", 200), time.Hour)

	assert.Equal(t, 4, backend.Len())
	for _, k := range []string{"a", "b"} {
		_, ok := s.Get(Key(CategoryStaffList, k))
		assert.False(t, ok, k)
	}
	_, ok := s.Get(Key(CategoryScheduleOverview, "big"))
	assert.True(t, ok)
}

func TestEvictor_RunsOnInit(t *testing.T) {
	backend := NewMemoryBackend()
	clock := newFakeClock()

	seed := New(backend, Config{}, WithClock(clock.Now))
	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		seed.Set(Key(CategoryStaffList, k), k, time.Hour)
		clock.Advance(time.Second)
	}

	s := New(backend, Config{QuotaBytes: 100}, WithClock(clock.Now))
	s.Init(context.Background())
	defer s.Close()

	assert.Equal(t, 4, backend.Len())
}

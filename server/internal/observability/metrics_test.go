package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.RecordHit("staff-list")
	m.RecordHit("staff-list")
	m.RecordHit("staff-list")
	m.RecordMiss("staff-list")
	m.RecordFetch("staff-list", 20*time.Millisecond, nil)
	m.RecordFetch("staff-list", 40*time.Millisecond, errors.New("down"))
	m.RecordRefreshFailure("dashboard-summary")

	snapshot := m.Snapshot()
	require.Len(t, snapshot, 2)

	assert.Equal(t, "dashboard-summary", snapshot[0].Category)
	assert.Equal(t, int64(1), snapshot[0].RefreshFailures)
	assert.Equal(t, 0.0, snapshot[0].HitRate())

	staff := snapshot[1]
	assert.Equal(t, int64(3), staff.Hits)
	assert.Equal(t, int64(1), staff.Misses)
	assert.Equal(t, int64(2), staff.Fetches)
	assert.Equal(t, int64(1), staff.FetchFailures)
	assert.Equal(t, int64(30), staff.AverageFetchMs)
	assert.Equal(t, 75.0, staff.HitRate())

	m.Reset()
	assert.Empty(t, m.Snapshot())
}

func TestRequestContext(t *testing.T) {
	rc := NewRequestContext(nil, "refresh", "clinic-1")

	assert.Len(t, rc.RequestID, 36)
	assert.Equal(t, "clinic-1", rc.OwnerID)
	assert.NotNil(t, rc.Logger)

	ctx := WithRequestContext(t.Context(), rc)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, rc, got)

	_, ok = FromContext(t.Context())
	assert.False(t, ok)
}

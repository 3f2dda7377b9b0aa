package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/shiftcover/internal/profile"
	teststore "github.com/hrygo/shiftcover/store/test"
)

func TestNewServer(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := &profile.Profile{
		Mode:        "dev",
		Data:        dir,
		CacheDriver: "sqlite",
		CacheDSN:    filepath.Join(dir, "cache.db"),
	}

	s, err := NewServer(ctx, p, teststore.NewTestingStore(ctx, t))
	require.NoError(t, err)
	defer s.Shutdown(ctx)

	t.Run("Healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("RosterIsCachedInSQLite", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/owners/o1/staff", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, s.Cache.Stats().ByCategory["staff-list"])
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

		snapshot := s.Metrics.Snapshot()
		require.Len(t, snapshot, 1)
		assert.Equal(t, "staff-list", snapshot[0].Category)
		assert.Equal(t, int64(1), snapshot[0].Misses)
	})
}

func TestNewCacheStore_Memory(t *testing.T) {
	c, err := NewCacheStore(context.Background(), &profile.Profile{CacheDriver: "memory"})
	require.NoError(t, err)
	defer c.Close()

	c.Set("staff-list/o1", []string{"ann"}, time.Hour)
	assert.Equal(t, 1, c.Stats().TotalEntries)
}

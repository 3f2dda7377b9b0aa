package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/shiftcover/server/internal/errors"
	"github.com/hrygo/shiftcover/server/internal/observability"
	"github.com/hrygo/shiftcover/store/cache"
)

// CacheStatsResponse reports the cache content and the cache-aside counters.
type CacheStatsResponse struct {
	Cache   cache.Stats                      `json:"cache"`
	Metrics []observability.CategorySnapshot `json:"metrics"`
}

// GetCacheStats returns the cache statistics.
// GET /api/v1/cache/stats
func (s *APIV1Service) GetCacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, CacheStatsResponse{
		Cache:   s.Accessor.CacheStats(),
		Metrics: s.Accessor.Metrics().Snapshot(),
	})
}

// ClearCache removes every cached resource.
// DELETE /api/v1/cache
func (s *APIV1Service) ClearCache(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{"cleared": s.Accessor.ClearAll()})
}

// InvalidateCache drops one owner's cached category and its dependents.
// DELETE /api/v1/owners/:owner/cache/:category?extra=
func (s *APIV1Service) InvalidateCache(c echo.Context) error {
	category := cache.Category(c.Param("category"))
	if !category.IsKnown() {
		return writeError(c, apperrors.InvalidArgument("unknown cache category "+string(category)))
	}
	s.Accessor.Invalidate(category, c.Param("owner"), c.QueryParam("extra"))
	return c.NoContent(http.StatusNoContent)
}

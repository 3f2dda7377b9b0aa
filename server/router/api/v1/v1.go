package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/shiftcover/internal/profile"
	apimiddleware "github.com/hrygo/shiftcover/server/middleware"
	"github.com/hrygo/shiftcover/server/service/accessor"
	"github.com/hrygo/shiftcover/server/service/schedule"
)

// APIV1Service serves the JSON API under /api/v1.
type APIV1Service struct {
	Profile         *profile.Profile
	Accessor        *accessor.Accessor
	ScheduleService schedule.Service

	rateLimiter *apimiddleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, acc *accessor.Accessor, scheduleService schedule.Service) *APIV1Service {
	return &APIV1Service{
		Profile:         profile,
		Accessor:        acc,
		ScheduleService: scheduleService,
		// 10 requests per second per client, with burst of 20
		rateLimiter: apimiddleware.NewRateLimiter(10, 20),
	}
}

// RateLimiter returns the per-client limiter, pruned periodically by the server.
func (s *APIV1Service) RateLimiter() *apimiddleware.RateLimiter {
	return s.rateLimiter
}

// RegisterRoutes registers the API handlers with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	api := echoServer.Group("/api/v1")
	api.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	api.Use(apimiddleware.RequestContext(slog.Default()))
	api.Use(s.rateLimiter.Middleware())

	owners := api.Group("/owners/:owner")
	owners.GET("/staff", s.ListStaff)
	owners.POST("/staff", s.CreateStaff)
	owners.GET("/templates/:period", s.GetRequirementTemplate)
	owners.PUT("/templates/:period", s.UpsertRequirementTemplate)
	owners.POST("/slots", s.CreateSlot)
	owners.PUT("/slots/:slot/assignment", s.AssignSlot)
	owners.GET("/overview/:period", s.GetOverview)
	owners.GET("/dashboard", s.GetDashboard)
	owners.DELETE("/cache/:category", s.InvalidateCache)

	api.GET("/cache/stats", s.GetCacheStats)
	api.DELETE("/cache", s.ClearCache)
}

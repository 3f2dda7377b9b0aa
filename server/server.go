package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/net/netutil"

	"github.com/hrygo/shiftcover/internal/profile"
	"github.com/hrygo/shiftcover/server/internal/observability"
	apiv1 "github.com/hrygo/shiftcover/server/router/api/v1"
	"github.com/hrygo/shiftcover/server/service/accessor"
	"github.com/hrygo/shiftcover/server/service/schedule"
	"github.com/hrygo/shiftcover/store"
	"github.com/hrygo/shiftcover/store/cache"
)

const (
	rateLimiterPruneInterval = 5 * time.Minute
	// maxConnections bounds the concurrently served connections.
	maxConnections = 512
)

type Server struct {
	Profile  *profile.Profile
	Store    *store.Store
	Cache    *cache.Store
	Accessor *accessor.Accessor
	Metrics  *observability.Metrics

	echoServer  *echo.Echo
	apiV1       *apiv1.APIV1Service
	cancelPrune context.CancelFunc
}

// NewCacheStore opens the configured cache backend and starts the store.
func NewCacheStore(ctx context.Context, profile *profile.Profile) (*cache.Store, error) {
	var backend cache.Backend
	switch profile.CacheDriver {
	case "sqlite":
		sqliteBackend, err := cache.NewSQLiteBackend(profile.CacheDSN)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open cache backend")
		}
		backend = sqliteBackend
	default:
		backend = cache.NewMemoryBackend()
	}

	c := cache.New(backend, cache.Config{
		QuotaBytes:      profile.CacheQuotaBytes,
		LargeWriteBytes: profile.CacheLargeWriteBytes,
		JanitorInterval: profile.CacheJanitorInterval,
	})
	c.Init(ctx)
	return c, nil
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	c, err := NewCacheStore(ctx, profile)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Profile: profile,
		Store:   store,
		Cache:   c,
		Metrics: observability.NewMetrics(),
	}

	echoServer := echo.New()
	echoServer.Debug = true
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	s.echoServer = echoServer

	// Healthz endpoint.
	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	s.Accessor = accessor.New(c, store, accessor.ConfigFromProfile(profile),
		accessor.WithLogger(slog.Default().With("component", "accessor")),
		accessor.WithMetrics(s.Metrics),
	)
	scheduleService := schedule.NewService(store, s.Accessor)

	s.apiV1 = apiv1.NewAPIV1Service(profile, s.Accessor, scheduleService)
	s.apiV1.RegisterRoutes(echoServer)

	return s, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	listener = netutil.LimitListener(listener, maxConnections)

	pruneCtx, cancel := context.WithCancel(ctx)
	s.cancelPrune = cancel
	go s.pruneRateLimiter(pruneCtx)

	go func() {
		s.echoServer.Listener = listener
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if s.cancelPrune != nil {
		s.cancelPrune()
	}

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	// Let background refreshes finish before the cache and the database go away.
	s.Accessor.Close()

	if err := s.Cache.Close(); err != nil {
		slog.Error("failed to close cache", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("server stopped properly")
}

func (s *Server) pruneRateLimiter(ctx context.Context) {
	ticker := time.NewTicker(rateLimiterPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.apiV1.RateLimiter().Prune()
		}
	}
}

package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"libretto/internal/cache"
	"libretto/internal/log"
	"libretto/internal/services"
	"libretto/internal/stats"
)

type Server struct {
	http.Server
	svc        *services.TransactionService
	statistics *stats.Statistics
	overview   *stats.Overview
	logger     *log.Logger

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Overview snapshots are cached per filter+period; mutations evict the
	// affected periods.
	overviewCache *cache.LRUCache[overviewResponse]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// Options carries the tunables NewServer needs beyond its collaborators.
type Options struct {
	Addr      string
	CacheSize int
	CacheTTL  time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options, svc *services.TransactionService, statistics *stats.Statistics, overview *stats.Overview, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:           svc,
		statistics:    statistics,
		overview:      overview,
		logger:        logger.WithComponent(log.ComponentHTTP),
		rateLimiter:   newRateLimiter(),
		metrics:       &securityMetrics{},
		overviewCache: cache.NewLRUCache[overviewResponse](opts.CacheSize, opts.CacheTTL),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/overview", s.withMiddleware(s.handleOverview))
	mux.HandleFunc("GET /api/stats", s.withMiddleware(s.handleStats))
	mux.HandleFunc("POST /api/stats/selector", s.withMiddleware(s.handleStatsSelector))
	mux.HandleFunc("GET /api/stats/stream", s.withMiddleware(s.handleStatsStream))

	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

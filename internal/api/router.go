package api

import (
	"io"
	"net/http"
	"time"

	"boxer-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the tick loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetSnapshot returns the latest lock-free immutable snapshot
	GetSnapshot() *game.Snapshot
	// SubmitIntent queues an intent for the next tick; false if the queue is full
	SubmitIntent(in game.Intent) bool
	// Balance returns the tuning the simulation runs with
	Balance() game.Balance
	// RecentEvents returns up to n logged events, oldest first
	RecentEvents(n int) []game.LogRecord
	// GetEventLogStats returns event log counters
	GetEventLogStats() map[string]interface{}
}

// FrameRenderer draws a snapshot as a PNG image.
type FrameRenderer interface {
	EncodePNG(w io.Writer, snap *game.Snapshot) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    LimitConfig: &api.LimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        RequestBurst:      1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the combat engine (required)
	Engine EngineInterface

	// Renderer draws /api/frame.png. If nil the endpoint returns 404.
	Renderer FrameRenderer

	// Limiter is an optional pre-configured client limiter. Share it with
	// the websocket hub so both transports draw on one intent budget.
	// If nil, a new one will be created using LimitConfig.
	Limiter *ClientLimiter

	// LimitConfig is optional configuration for the limiter.
	// Only used if Limiter is nil. If both are nil, uses DefaultLimitConfig.
	LimitConfig *LimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, localhost on any port is allowed.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine   EngineInterface
	renderer FrameRenderer
	limiter  *ClientLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function starts no goroutines and opens no listeners,
// apart from the rate limiter's cleanup loop when it has to create one.
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	limiter := cfg.Limiter
	if limiter == nil {
		limitCfg := DefaultLimitConfig
		if cfg.LimitConfig != nil {
			limitCfg = *cfg.LimitConfig
		}
		limiter = NewClientLimiter(limitCfg)
	}
	r.Use(limiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	h := &routerHandlers{
		engine:   cfg.Engine,
		renderer: cfg.Renderer,
		limiter:  limiter,
	}

	r.Route("/api", func(r chi.Router) {
		// Combat state
		r.Get("/state", h.handleGetState)
		r.Get("/frame.png", h.handleGetFrame)
		r.Get("/events", h.handleGetEvents)
		r.Get("/stats", h.handleGetStats)

		// Commands
		r.Post("/intent", h.handlePostIntent)

		// Shop and tuning
		r.Get("/shop", h.handleGetShop)
		r.Get("/balance", h.handleGetBalance)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// metricsMiddleware records latency per route pattern. The pattern, not the
// raw path, is used as the label so cardinality stays bounded.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

package api

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"boxer-arena/internal/config"
	"boxer-arena/internal/game"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine  EngineInterface
	router  *chi.Mux
	wsHub   *WebSocketHub
	limiter *ClientLimiter

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates the API server from server configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine EngineInterface, renderer FrameRenderer, cfg config.ServerConfig) *Server {
	limiter := NewClientLimiter(LimitConfig{
		RequestsPerSecond: cfg.RateLimit,
		RequestBurst:      cfg.RateBurst,
		IntentsPerSecond:  cfg.IntentRate,
		IntentBurst:       cfg.IntentBurst,
	})
	s := &Server{
		engine:  engine,
		wsHub:   NewWebSocketHub(engine, cfg.AllowedOrigins, limiter),
		limiter: limiter,
	}

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Renderer:    renderer,
		Limiter:     s.limiter,
		CORSOrigins: cfg.AllowedOrigins,
	})

	// The websocket route needs the hub instance, so it can't be part of
	// the generic NewRouter factory.
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// EventSink returns the sink that pushes combat events to websocket clients.
// Register it with the engine before Start.
func (s *Server) EventSink() game.EventSink {
	return s.wsHub.EventSink()
}

// Limiter returns the client limiter shared by HTTP and websocket traffic.
func (s *Server) Limiter() *ClientLimiter {
	return s.limiter
}

// Start begins the HTTP server AND starts background workers.
// It blocks until the server stops; after Stop it returns http.ErrServerClosed.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🥊 State: http://localhost%s/api/state", addr)

	return srv.ListenAndServe()
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of the listener and background workers.
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	s.limiter.Stop()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

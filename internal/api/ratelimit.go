package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// LimitConfig sets the per-client budgets. Every HTTP call spends a request
// token; intents spend an intent token on top, and POST /api/intent and
// websocket messages from the same client draw on the same intent budget.
type LimitConfig struct {
	RequestsPerSecond float64
	RequestBurst      int
	IntentsPerSecond  float64 // Shared by HTTP and websocket intents
	IntentBurst       int
	SocketsPerClient  int           // Concurrent websocket connections
	IdleTTL           time.Duration // Clients unseen this long are forgotten
}

// DefaultLimitConfig returns production-safe defaults
var DefaultLimitConfig = LimitConfig{
	RequestsPerSecond: 20,
	RequestBurst:      40,
	IntentsPerSecond:  30, // Two fists mashing at 60 TPS still fit
	IntentBurst:       30,
	SocketsPerClient:  5,
	IdleTTL:           10 * time.Minute,
}

// withDefaults fills zero fields from DefaultLimitConfig
func (c LimitConfig) withDefaults() LimitConfig {
	d := DefaultLimitConfig
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.RequestBurst <= 0 {
		c.RequestBurst = d.RequestBurst
	}
	if c.IntentsPerSecond <= 0 {
		c.IntentsPerSecond = d.IntentsPerSecond
	}
	if c.IntentBurst <= 0 {
		c.IntentBurst = d.IntentBurst
	}
	if c.SocketsPerClient <= 0 {
		c.SocketsPerClient = d.SocketsPerClient
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = d.IdleTTL
	}
	return c
}

// clientBudget is one client's share. Guarded by ClientLimiter.mu, apart
// from the limiters which are safe on their own.
type clientBudget struct {
	requests *rate.Limiter
	intents  *rate.Limiter
	sockets  int
	lastSeen time.Time
}

// LimiterStats is a point-in-time view for metrics
type LimiterStats struct {
	Clients          int
	Sockets          int
	RequestsRejected uint64
	IntentsThrottled uint64
	SocketsRejected  uint64
}

// ClientLimiter keeps request, intent and socket budgets per client IP
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBudget
	cfg     LimitConfig

	stopChan chan struct{}
	stopOnce sync.Once

	requestsRejected uint64 // atomic
	intentsThrottled uint64 // atomic
	socketsRejected  uint64 // atomic
}

// NewClientLimiter starts a limiter and its idle sweep
func NewClientLimiter(cfg LimitConfig) *ClientLimiter {
	l := &ClientLimiter{
		clients:  make(map[string]*clientBudget),
		cfg:      cfg.withDefaults(),
		stopChan: make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Stop ends the idle sweep
func (l *ClientLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
}

// Config returns the effective budgets
func (l *ClientLimiter) Config() LimitConfig {
	return l.cfg
}

// budget returns the client's entry, creating it on first sight. Caller holds mu.
func (l *ClientLimiter) budget(ip string) *clientBudget {
	b, ok := l.clients[ip]
	if !ok {
		b = &clientBudget{
			requests: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.RequestBurst),
			intents:  rate.NewLimiter(rate.Limit(l.cfg.IntentsPerSecond), l.cfg.IntentBurst),
		}
		l.clients[ip] = b
	}
	b.lastSeen = time.Now()
	return b
}

func (l *ClientLimiter) sweepLoop() {
	ticker := time.NewTicker(l.cfg.IdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

// sweep forgets idle clients. Clients holding sockets are kept.
func (l *ClientLimiter) sweep(now time.Time) {
	cutoff := now.Add(-l.cfg.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, b := range l.clients {
		if b.sockets == 0 && b.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// AllowRequest spends one HTTP request token
func (l *ClientLimiter) AllowRequest(ip string) bool {
	l.mu.Lock()
	lim := l.budget(ip).requests
	l.mu.Unlock()

	if lim.Allow() {
		return true
	}
	atomic.AddUint64(&l.requestsRejected, 1)
	return false
}

// AllowIntent spends one intent token, whichever transport carried it
func (l *ClientLimiter) AllowIntent(ip string) bool {
	l.mu.Lock()
	lim := l.budget(ip).intents
	l.mu.Unlock()

	if lim.Allow() {
		return true
	}
	atomic.AddUint64(&l.intentsThrottled, 1)
	return false
}

// AcquireSocket reserves a websocket slot for the client
func (l *ClientLimiter) AcquireSocket(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.budget(ip)
	if b.sockets >= l.cfg.SocketsPerClient {
		atomic.AddUint64(&l.socketsRejected, 1)
		return false
	}
	b.sockets++
	return true
}

// ReleaseSocket returns a slot taken by AcquireSocket
func (l *ClientLimiter) ReleaseSocket(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.clients[ip]; ok && b.sockets > 0 {
		b.sockets--
		b.lastSeen = time.Now()
	}
}

// Middleware rejects clients over their request budget
func (l *ClientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.AllowRequest(GetClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stats returns counters and the live client and socket totals
func (l *ClientLimiter) Stats() LimiterStats {
	l.mu.Lock()
	st := LimiterStats{Clients: len(l.clients)}
	for _, b := range l.clients {
		st.Sockets += b.sockets
	}
	l.mu.Unlock()

	st.RequestsRejected = atomic.LoadUint64(&l.requestsRejected)
	st.IntentsThrottled = atomic.LoadUint64(&l.intentsThrottled)
	st.SocketsRejected = atomic.LoadUint64(&l.socketsRejected)
	return st
}

// GetClientIP extracts the client IP from an HTTP request.
// X-Forwarded-For can be spoofed unless a trusted proxy sets it.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// IsAllowedOrigin checks an Origin header against the allowed list.
// Localhost and 127.0.0.1 are always allowed on any port.
func IsAllowedOrigin(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
		return true
	}
	for _, a := range allowed {
		if origin == a {
			return true
		}
	}
	return false
}

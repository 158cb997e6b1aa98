package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"sync"
	"time"

	"boxer-arena/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality: labels are event type names, route
// patterns and fixed reason strings only.
var (
	// Engine metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "combat_tick_duration_seconds",
		Help:    "Time spent in a combat tick",
		Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	scoreGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combat_score",
		Help: "Current score",
	})

	coinsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combat_coins",
		Help: "Coins in the wallet",
	})

	enemiesKilledGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combat_enemies_killed",
		Help: "Enemies defeated this session",
	})

	bossRoundGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combat_boss_round",
		Help: "1 while the current enemy is a boss",
	})

	playerHealthGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combat_player_health",
		Help: "Player health",
	})

	comboGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combat_combo",
		Help: "Current combo count",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "combat_events_total",
		Help: "Combat events by type",
	}, []string{"type"})

	intentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "combat_intents_total",
		Help: "Intents received over HTTP and websocket",
	}, []string{"result"}) // Bounded: "accepted", "dropped", "invalid", "throttled"

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

var (
	registerEventLogOnce sync.Once
	registerLimiterOnce  sync.Once
)

// limiterCollector reads ClientLimiter stats at scrape time
type limiterCollector struct {
	limiter *ClientLimiter

	httpRejected    *prometheus.Desc
	intentThrottled *prometheus.Desc
	wsRejected      *prometheus.Desc
	clients         *prometheus.Desc
}

func newLimiterCollector(l *ClientLimiter) *limiterCollector {
	return &limiterCollector{
		limiter:         l,
		httpRejected:    prometheus.NewDesc("combat_http_rejected_total", "HTTP requests over the per-client budget", nil, nil),
		intentThrottled: prometheus.NewDesc("combat_intents_throttled_total", "Intents over the per-client budget, HTTP and websocket", nil, nil),
		wsRejected:      prometheus.NewDesc("combat_ws_rejected_total", "Websocket connections over the per-client cap", nil, nil),
		clients:         prometheus.NewDesc("combat_rate_limited_clients", "Clients the limiter is tracking", nil, nil),
	}
}

func (c *limiterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.httpRejected
	ch <- c.intentThrottled
	ch <- c.wsRejected
	ch <- c.clients
}

func (c *limiterCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.limiter.Stats()
	ch <- prometheus.MustNewConstMetric(c.httpRejected, prometheus.CounterValue, float64(st.RequestsRejected))
	ch <- prometheus.MustNewConstMetric(c.intentThrottled, prometheus.CounterValue, float64(st.IntentsThrottled))
	ch <- prometheus.MustNewConstMetric(c.wsRejected, prometheus.CounterValue, float64(st.SocketsRejected))
	ch <- prometheus.MustNewConstMetric(c.clients, prometheus.GaugeValue, float64(st.Clients))
}

// RegisterLimiterMetrics exposes the server's limiter counters. Only the
// first call registers.
func RegisterLimiterMetrics(l *ClientLimiter) {
	registerLimiterOnce.Do(func() {
		prometheus.MustRegister(newLimiterCollector(l))
	})
}

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // MUST be localhost in production
}

// DebugServerConfig builds the debug server config for a port; 0 disables.
func DebugServerConfig(port int) ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    port > 0,
		ListenAddr: net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
	}
}

// StartDebugServer starts the internal observability server
// CRITICAL: This MUST bind to localhost only to prevent pprof-based DoS
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	host, port, err := net.SplitHostPort(cfg.ListenAddr)
	if err != nil {
		return err
	}
	if host != "127.0.0.1" && host != "localhost" {
		// Only allow external binding if explicitly enabled via env
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost for security")
			cfg.ListenAddr = net.JoinHostPort("127.0.0.1", port)
		}
	}

	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

// RecordTick is a game.TickObserver that feeds the engine gauges.
func RecordTick(d time.Duration, snap *game.Snapshot, events []game.Event) {
	tickDuration.Observe(d.Seconds())

	if snap != nil {
		scoreGauge.Set(float64(snap.Score))
		coinsGauge.Set(float64(snap.Coins))
		enemiesKilledGauge.Set(float64(snap.EnemiesKilled))
		playerHealthGauge.Set(float64(snap.Player.Health))
		comboGauge.Set(float64(snap.Combo))
		if snap.BossRound {
			bossRoundGauge.Set(1)
		} else {
			bossRoundGauge.Set(0)
		}
	}

	for _, ev := range events {
		eventsTotal.WithLabelValues(ev.Type.String()).Inc()
	}
}

// RegisterEventLogMetrics exposes the engine's event log counters. Only the
// first call registers.
func RegisterEventLogMetrics(engine EngineInterface) {
	registerEventLogOnce.Do(func() {
		promauto.NewCounterFunc(prometheus.CounterOpts{
			Name: "event_log_total",
			Help: "Total events logged",
		}, func() float64 {
			return statValue(engine.GetEventLogStats(), "total")
		})

		promauto.NewCounterFunc(prometheus.CounterOpts{
			Name: "event_log_dropped_total",
			Help: "Events dropped due to rate limiting or buffer overwrite",
		}, func() float64 {
			return statValue(engine.GetEventLogStats(), "dropped")
		})
	})
}

func statValue(stats map[string]interface{}, key string) float64 {
	switch v := stats[key].(type) {
	case uint64:
		return float64(v)
	case int:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

// RecordIntent counts an intent by outcome
func RecordIntent(result string) {
	intentsTotal.WithLabelValues(result).Inc()
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

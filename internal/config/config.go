// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for process settings. Combat tuning
// lives in game.Balance and is loaded by LoadBalance.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the fixed-rate driver settings.
type SimConfig struct {
	TickRate        int    // Combat ticks per second
	IntentQueueSize int    // Intents buffered between ticks
	BalancePath     string // Optional YAML balance override
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:        60,
		IntentQueueSize: 64,
	}
}

// SimFromEnv returns simulation configuration with environment variable overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if tps := getEnvInt("SIM_TPS", 0); tps > 0 {
		cfg.TickRate = tps
	}
	if q := getEnvInt("INTENT_QUEUE", 0); q > 0 {
		cfg.IntentQueueSize = q
	}
	if p := os.Getenv("BALANCE_FILE"); p != "" {
		cfg.BalancePath = p
	}

	return cfg
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds cue playback settings.
type AudioConfig struct {
	SampleRate int     // Audio sample rate in Hz
	Volume     float64 // Master volume (0.0 to 1.0)
	Enabled    bool    // Whether cues are played at all
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Volume:     0.3,
		Enabled:    true,
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("AUDIO_VOLUME", -1); v >= 0 {
		if v > 1 {
			v = 1
		}
		cfg.Volume = v
	}
	if sr := getEnvInt("AUDIO_SAMPLE_RATE", 0); sr > 0 {
		cfg.SampleRate = sr
	}
	if os.Getenv("AUDIO_ENABLED") == "false" {
		cfg.Enabled = false
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	DebugPort      int      // Localhost-only metrics/pprof server, 0 disables
	AllowedOrigins []string // CORS and websocket origins
	RateLimit      float64  // HTTP requests per second per IP
	RateBurst      int
	IntentRate     float64  // Intents per second per IP, HTTP and websocket combined
	IntentBurst    int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:      3000,
		DebugPort: 6060,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
		RateLimit:   20,
		RateBurst:   40,
		IntentRate:  30,
		IntentBurst: 30,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("DEBUG_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p >= 0 {
			cfg.DebugPort = p
		}
	}
	if r := getEnvFloat("RATE_LIMIT", 0); r > 0 {
		cfg.RateLimit = r
	}
	if b := getEnvInt("RATE_BURST", 0); b > 0 {
		cfg.RateBurst = b
	}
	if r := getEnvFloat("INTENT_RATE", 0); r > 0 {
		cfg.IntentRate = r
	}
	if b := getEnvInt("INTENT_BURST", 0); b > 0 {
		cfg.IntentBurst = b
	}

	return cfg
}

// =============================================================================
// EVENT LOG CONFIGURATION
// =============================================================================

// EventLogConfig controls the JSONL event log.
type EventLogConfig struct {
	Path string // Empty keeps events in memory only
}

// EventLogFromEnv returns the event log configuration.
func EventLogFromEnv() EventLogConfig {
	return EventLogConfig{Path: os.Getenv("EVENT_LOG_PATH")}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim      SimConfig
	Audio    AudioConfig
	Server   ServerConfig
	EventLog EventLogConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:      SimFromEnv(),
		Audio:    AudioFromEnv(),
		Server:   ServerFromEnv(),
		EventLog: EventLogFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

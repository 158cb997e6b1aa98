package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"boxer-arena/internal/api"
	"boxer-arena/internal/audio"
	"boxer-arena/internal/config"
	"boxer-arena/internal/game"
	"boxer-arena/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🥊 ================================")
	log.Println("🥊  BOXER ARENA - COMBAT ENGINE")
	log.Println("🥊 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	simCfg := appConfig.Sim
	serverCfg := appConfig.Server

	balance, err := config.LoadBalance(simCfg.BalancePath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if simCfg.BalancePath != "" {
		log.Printf("⚖️ Balance: %s", simCfg.BalancePath)
	}
	log.Printf("🎮 Config: %d TPS, intent queue %d", simCfg.TickRate, simCfg.IntentQueueSize)

	engine := game.NewEngine(game.EngineConfig{
		TickRate:        simCfg.TickRate,
		IntentQueueSize: simCfg.IntentQueueSize,
		Balance:         balance,
	})

	// Start event log
	if err := engine.StartEventLog(appConfig.EventLog.Path); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if appConfig.EventLog.Path != "" {
		log.Printf("📝 Event log: %s", appConfig.EventLog.Path)
	}

	// Metrics
	engine.SetTickObserver(api.RecordTick)
	api.RegisterEventLogMetrics(engine)
	if err := api.StartDebugServer(api.DebugServerConfig(serverCfg.DebugPort)); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	// Audio cues degrade to silence when there is no device
	var player *audio.Player
	if appConfig.Audio.Enabled {
		player = audio.NewPlayer(appConfig.Audio)
		if err := player.Initialize(); err != nil {
			log.Printf("⚠️ Audio device unavailable, cues muted: %v", err)
			player = nil
		} else {
			engine.AddSink(player.Sink())
		}
	} else {
		log.Println("🔇 Audio cues disabled")
	}

	hud := render.NewHUD(render.DefaultHUDConfig())
	server := api.NewServer(engine, hud, serverCfg)
	engine.AddSink(server.EventSink())
	api.RegisterLimiterMetrics(server.Limiter())

	engine.Start()

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for a signal or a quit intent
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! POST {\"intent\":\"start\"} to /api/intent. Press Ctrl+C to stop.")
	select {
	case <-quit:
	case <-engine.Quit():
		log.Println("🏁 Session quit")
	}

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	engine.Stop()
	engine.StopEventLog()
	if player != nil {
		player.Close()
	}
	log.Println("👋 Goodbye!")
}

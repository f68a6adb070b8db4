// Command deliberation runs the real-time multi-agent debate server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"dev.helix.deliberation/internal/config"
	"dev.helix.deliberation/internal/events"
	"dev.helix.deliberation/internal/generator"
	"dev.helix.deliberation/internal/handlers"
	"dev.helix.deliberation/internal/llm"
	"dev.helix.deliberation/internal/llm/providers/ollama"
	"dev.helix.deliberation/internal/router"
	"dev.helix.deliberation/internal/scheduler"
	"dev.helix.deliberation/internal/store"
	"dev.helix.deliberation/internal/ws"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	cfg := config.Load()

	// Probe the backend once at startup. On failure the server still runs,
	// degraded permanently to deterministic fallback responses.
	var provider llm.Provider
	backend := ollama.New(cfg.LLM.OllamaBaseURL, cfg.LLM.OllamaModel, cfg.LLM.Timeout)
	if err := backend.HealthCheck(); err != nil {
		log.WithError(err).Warn("LLM backend unavailable, falling back to basic response generation")
	} else {
		provider = backend
		log.WithFields(logrus.Fields{
			"base_url": cfg.LLM.OllamaBaseURL,
			"model":    cfg.LLM.OllamaModel,
		}).Info("LLM backend initialized")
	}

	bus := events.NewBus(nil)
	st := store.New()
	gen := generator.New(provider, log)

	sched := scheduler.New(st, gen, bus, cfg.Debate, log)
	sched.Start()

	hub := ws.NewHub(bus, nil, log)
	go hub.Run()

	debates := handlers.NewDebateHandler(st, bus, log)
	r := router.New(cfg, debates, hub, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Start(cfg.Addr())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Fatal("Server failed")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}

	sched.Stop()
	hub.Stop()
	bus.Close()
	log.Info("Server stopped")
}

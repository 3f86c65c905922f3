package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/codepals/collab/internal/adapters/http"
	"github.com/codepals/collab/internal/adapters/ws"
	"github.com/codepals/collab/internal/ai"
	"github.com/codepals/collab/internal/app"
	"github.com/codepals/collab/internal/config"
	"github.com/codepals/collab/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	directory := core.NewDirectory()
	registry := app.NewRegistry()

	var policy app.Policy = app.DisconnectPolicy{}
	if cfg.Backpressure == "drop" {
		policy = app.DropPolicy{}
	}
	eventRouter := app.NewRouter(registry, directory, policy)

	limiter := ws.NewEventRateLimiter(cfg.EventRate.Limit, cfg.EventRate.Interval)
	wsCtl := ws.NewController(eventRouter, cfg.ReadLimit, cfg.SendBuffer, cfg.PingPeriod, limiter)

	var provider ai.Provider
	switch cfg.AI.Provider {
	case "anthropic":
		provider = ai.NewAnthropicProvider(cfg.AI.Model)
	default:
		provider = ai.NewOpenAIProvider(cfg.AI.Model)
	}
	aiClient := ai.NewClient(provider)

	r := router.SetupRouter(ctx, cfg, wsCtl, directory, aiClient)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("CodePals collaboration server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

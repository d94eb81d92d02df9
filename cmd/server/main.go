package main

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/pixelbattle/pixel-battle-backend/internal/config"
	"github.com/pixelbattle/pixel-battle-backend/internal/httpapi"
	"github.com/pixelbattle/pixel-battle-backend/internal/hub"
	"github.com/pixelbattle/pixel-battle-backend/internal/place"
	"github.com/pixelbattle/pixel-battle-backend/internal/stats"
	"github.com/pixelbattle/pixel-battle-backend/internal/store"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}

	ctx := context.Background()
	clock := clockwork.NewRealClock()

	h := hub.NewHub(ctx, log)
	svc := place.NewService(st, h, clock, cfg.Cooldown, log)

	agg := stats.New(st, h, clock, cfg.StatsInterval, log)
	go agg.Run(ctx)

	// Build the router *with* the hub and services injected
	handler := httpapi.SetupRoutes(svc, st, h, cfg.PublicDir, log)

	log.Info("listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

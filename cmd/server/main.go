package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"travelog/internal/api"
	"travelog/internal/config"
	"travelog/internal/engine"
)

func main() {
	configPath := pflag.String("config", "", "path to YAML config file")
	addr := pflag.String("addr", "", "listen address (overrides config)")
	dataFile := pflag.String("data", "", "path to data archive (overrides config)")
	pflag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}

	refTime := resolveReferenceTime(cfg, log)
	store := engine.NewStore(refTime)

	// The whole dataset must be in place before the listener opens; a
	// reader must never observe a partial load.
	stats, err := engine.LoadArchive(cfg.DataFile, store, log)
	if err != nil {
		log.Fatal("bulk load failed", zap.Error(err))
	}
	api.SetStoreSizes(stats.Users, stats.Locations, stats.Visits)

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = api.JSONSerializer{}
	e.Use(middleware.Recover())
	e.Use(api.Metrics())

	h := api.NewHandler(store, log)
	h.RegisterRoutes(e)

	go func() {
		log.Info("serving", zap.String("addr", cfg.Addr))
		if err := e.Start(cfg.Addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

// resolveReferenceTime picks the timestamp ages are computed against:
// the configured value, else the archive's generation timestamp, else
// process start time.
func resolveReferenceTime(cfg *config.Config, log *zap.Logger) time.Time {
	if cfg.ReferenceTime != 0 {
		return time.Unix(cfg.ReferenceTime, 0).UTC()
	}
	if ts, ok := engine.GeneratedAt(cfg.DataFile); ok {
		log.Info("reference time from archive", zap.Time("generated_at", ts))
		return ts
	}
	return time.Now().UTC()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	instagram "github.com/RavensCloud/instagram-gofun"
	"github.com/RavensCloud/instagram-gofun/internal/api"
	"github.com/RavensCloud/instagram-gofun/internal/api/handler"
	"github.com/RavensCloud/instagram-gofun/internal/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("reelserver %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting reelserver",
		"version", Version,
		"build_time", BuildTime,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Retrieval engine. The browser inside launches lazily on the first
	// request that needs the fallback path.
	scraper := instagram.New().
		WithProfileDelay(cfg.Scraper.ProfileDelay).
		WithMediaDelay(cfg.Scraper.MediaDelay)
	if cfg.Scraper.Proxy != "" {
		if err := scraper.SetProxy(cfg.Scraper.Proxy); err != nil {
			logger.Error("failed to set proxy", "error", err)
			os.Exit(1)
		}
	}

	reelsHandler := handler.NewReelsHandler(scraper, logger)
	healthHandler := handler.NewHealthHandler(Version)

	router := api.NewRouter(reelsHandler, healthHandler, cfg.Server.MaxInFlight, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Tear down the shared browser after in-flight retrievals drain.
	if err := scraper.Close(); err != nil {
		logger.Error("browser shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

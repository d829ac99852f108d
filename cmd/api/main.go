package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/logging"
	"github.com/erendikmenn/erenailab-blog/internal/server"
	"github.com/erendikmenn/erenailab-blog/internal/version"
)

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// slog is not configured yet
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.InitLogger(cfg.Log.Level, cfg.Log.Format)
	v := version.Get()
	slog.Info("Application starting", "version", v.Version, "commit", v.Commit, "build_time", v.BuildTime)
	cfg.LogSummary(logger)

	gin.SetMode(cfg.Server.Mode)

	db, err := database.New(cfg.Database, cfg.Admin)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	srv, err := server.New(ctx, cfg, db)
	cancel()
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Server stopped")
}

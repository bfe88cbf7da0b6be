// Command demoshop runs the demo shop as a standalone HTTP server, backed by
// SQLite on disk or in memory. The browser harness embeds the same shop via
// internal/shopweb; this binary exists for manual poking and for pointing the
// harness at a separately managed instance through BASE_URL.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kuitang/shopflow/internal/config"
	"github.com/kuitang/shopflow/internal/obs"
	"github.com/kuitang/shopflow/internal/shop"
	"github.com/kuitang/shopflow/internal/shopweb"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		obs.Pkg("demoshop").Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	obs.Init()
	log := obs.Pkg("demoshop")

	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	store, err := shop.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	server, err := shopweb.New(store, cfg.RateLimit)
	if err != nil {
		return err
	}
	defer server.Close()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr, "database", databaseLabel(cfg.DatabasePath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case sig := <-shutdown:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return httpServer.Close()
	}

	log.Info("server stopped")
	return nil
}

func databaseLabel(path string) string {
	if path == "" {
		return "in-memory"
	}
	return path
}

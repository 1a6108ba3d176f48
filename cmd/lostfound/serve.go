package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/erazemk/lostfound/internal/api"
	"github.com/erazemk/lostfound/internal/store"
)

var serveCommand = command{
	summary: "run the HTTP API",
	flags: func(fs *pflag.FlagSet) {
		fs.StringP("addr", "a", "", "listen address (default from config, :8080)")
	},
	run: runServe,
}

func runServe(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	addr, _ := fs.GetString("addr")
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	// JWT secret is generated on first run and kept in storage.
	jwtSecret, err := store.GetJWTSecret(ctx, a.adapter)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	images, err := a.images(ctx)
	if err != nil {
		return err
	}

	handler := api.NewRouter(api.Deps{
		Engine:         a.engine,
		JWTSecret:      jwtSecret,
		Tokens:         store.NewTokenList(a.adapter),
		Images:         images,
		Metrics:        a.metrics,
		TokenExpiry:    a.cfg.Server.TokenExpiry,
		MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", addr, "storage", a.cfg.Storage.Driver, "images", a.cfg.Images.Driver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing storage")
	return nil
}

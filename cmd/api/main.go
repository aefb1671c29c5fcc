package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/medwise/medwise-backend/internal/adapters/http"
	"github.com/medwise/medwise-backend/internal/bootstrap"
	"github.com/medwise/medwise-backend/internal/config"
	"github.com/medwise/medwise-backend/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.RoleAPI)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Images:     app.Upload,
		ImageReads: app.Images,
		Drugs:      app.Drugs,
		Accounts:   app.Accounts,
		Readings:   app.Readings,
		LabReports: app.LabReports,
		Ready:      app.Ready,
	}, app.HTTPMetrics).Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("api_listening", "addr", server.Addr, "auth_mode", cfg.AuthMode, "dispatch_mode", cfg.DispatchMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("api_server_failed", "error", err)
	}

	// Analyses started by requests keep running after the listener stops.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.AnalysisShutdownGrace)
	defer cancel()
	if err := app.Shutdown(drainCtx); err != nil {
		slog.Warn("api_shutdown_incomplete", "error", err)
	}
	slog.Info("api_stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"

	"github.com/microsoft/AzureSearch-MRC/internal/adapter/mrc_http"
	"github.com/microsoft/AzureSearch-MRC/internal/di"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/config"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/logger"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/otel"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	shutdownOTel, err := otel.InitProvider(context.Background(), otelCfg)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			slog.Error("otel shutdown failed", "error", err)
		}
	}()

	// 3. Initialize Logger
	log := logger.NewWithOTel(otelCfg.Enabled)
	slog.SetDefault(log)

	// 4. Wire components
	components, err := di.NewApplicationComponents(cfg, log)
	if err != nil {
		return fmt.Errorf("wire components: %w", err)
	}
	defer components.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.SearchTimeout)
	err = components.Index.Ping(pingCtx)
	cancelPing()
	if err != nil {
		return fmt.Errorf("search backend %s unreachable: %w", components.Index.Name(), err)
	}

	validator, err := mrc_http.NewOpenAPIValidator()
	if err != nil {
		return err
	}

	// 5. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
	}
	e.Use(middleware.Recover())
	e.Use(mrc_http.RequestIDMiddleware())
	e.Use(mrc_http.AccessLogMiddleware(logger.NewContextLogger(log)))

	opts := mrc_http.RouteOptions{Validator: validator}
	if cfg.RateLimitRPS > 0 {
		limiter := mrc_http.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), max(cfg.RateLimitBurst, 1))
		defer limiter.Stop()
		opts.RateLimiter = limiter
	}
	mrc_http.RegisterRoutes(e, components.Handler, opts)

	// 6. Start Server
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("server_starting",
			"addr", addr,
			"search_backend", components.Index.Name(),
			"reader_backend", cfg.ReaderBackend,
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server_stopped")
	return nil
}

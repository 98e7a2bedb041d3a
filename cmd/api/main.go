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

	"github.com/jaekwang-park/serverless-todo/internal/app"
	"github.com/jaekwang-park/serverless-todo/internal/awsclient"
	"github.com/jaekwang-park/serverless-todo/internal/config"
	todohttp "github.com/jaekwang-park/serverless-todo/internal/http"
)

const serviceName = "serverless-todo"

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"auth_dev_mode", cfg.Auth.DevMode,
		"store", cfg.Store.Backend,
		"tracing", cfg.Tracing.Enabled,
		"log_level", cfg.LogLevel,
	)

	awsCfg, err := awsclient.Load(ctx, cfg.AWS.Region, cfg.Tracing.Enabled)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := a.Handler
	if cfg.Tracing.Enabled {
		handler = todohttp.WithTracing(serviceName, handler)
	}
	srv := todohttp.NewServer(cfg.ServerPort, logger, handler)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}

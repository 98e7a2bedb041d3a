// Command lambda serves the todo API behind API Gateway's Lambda proxy
// integration.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/jaekwang-park/serverless-todo/internal/app"
	"github.com/jaekwang-park/serverless-todo/internal/awsclient"
	"github.com/jaekwang-park/serverless-todo/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	adapter, err := newAdapter(context.Background())
	if err != nil {
		logger.Error("cold start failed", "error", err)
		os.Exit(1)
	}

	lambda.Start(adapter.ProxyWithContext)
}

// newAdapter runs once per cold start; the resulting handler serves every
// invocation of the execution environment.
func newAdapter(ctx context.Context) (*httpadapter.HandlerAdapter, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	// Lambda opens the X-Ray segment itself; only SDK calls are instrumented.
	awsCfg, err := awsclient.Load(ctx, cfg.AWS.Region, cfg.Tracing.Enabled)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("lambda initialised", "env", cfg.AppEnv, "store", cfg.Store.Backend)
	return httpadapter.New(a.Handler), nil
}

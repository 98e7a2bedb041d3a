// Package app wires configuration into a ready-to-serve HTTP handler. Both
// the long-running server and the Lambda entry point build through here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/jaekwang-park/serverless-todo/internal/attachment"
	"github.com/jaekwang-park/serverless-todo/internal/awsclient"
	"github.com/jaekwang-park/serverless-todo/internal/config"
	todohttp "github.com/jaekwang-park/serverless-todo/internal/http"
	"github.com/jaekwang-park/serverless-todo/internal/metrics"
	"github.com/jaekwang-park/serverless-todo/internal/middleware"
	"github.com/jaekwang-park/serverless-todo/internal/repository"
	"github.com/jaekwang-park/serverless-todo/internal/service"
)

const metricsNamespace = "todo"

type App struct {
	Handler http.Handler
	db      *sql.DB
}

// Close releases the database pool, if one was opened.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// New builds every component named by cfg. awsCfg is used for DynamoDB and
// S3; callers load it with awsclient.Load.
func New(ctx context.Context, cfg config.Config, awsCfg aws.Config, logger *slog.Logger) (*App, error) {
	a := &App{}

	store, err := a.newStore(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}

	signer := attachment.NewS3SignerFromClient(
		awsclient.NewS3(awsCfg),
		cfg.Attachments.Bucket,
		cfg.Attachments.Host(),
		time.Duration(cfg.Attachments.URLExpiration)*time.Second,
	)

	collector := metrics.NewCollector(metricsNamespace)
	access := repository.NewTodosAccess(store, signer, logger)
	todoSvc := service.NewTodoService(metrics.InstrumentRepository(access, collector))

	authCfg := middleware.AuthConfig{DevMode: cfg.Auth.DevMode}
	if !cfg.Auth.DevMode {
		authCfg.JWKSClient = middleware.NewJWKSClient(cfg.Auth.KeySetURL())
		authCfg.Issuer = cfg.Auth.Issuer
		authCfg.Audience = cfg.Auth.Audience
	}
	auth, err := middleware.NewAuth(authCfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}

	a.Handler = todohttp.NewRouter(todohttp.RouterConfig{
		Todos:          todoSvc,
		Logger:         logger,
		Auth:           auth,
		Metrics:        collector,
		AllowedOrigins: cfg.CORS.Origins(),
	})
	return a, nil
}

func (a *App) newStore(ctx context.Context, cfg config.Config, awsCfg aws.Config, logger *slog.Logger) (repository.TodoStore, error) {
	switch cfg.Store.Backend {
	case config.BackendDynamoDB:
		client := awsclient.NewDynamoDB(awsCfg, cfg.AWS.DynamoDBEndpoint)
		logger.Info("using dynamodb store",
			"table", cfg.Todos.Table,
			"index", cfg.Todos.Index,
			"endpoint", cfg.AWS.DynamoDBEndpoint,
		)
		return repository.NewDynamoTodoStore(client, cfg.Todos.Table, cfg.Todos.Index), nil

	case config.BackendPostgres:
		db, err := repository.NewDB(cfg.DB.DSN())
		if err != nil {
			return nil, err
		}
		store := repository.NewPostgresTodoStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		logger.Info("using postgres store", "host", cfg.DB.Host, "database", cfg.DB.Name)
		return store, nil

	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryTodoStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jaekwang-park/serverless-todo/internal/http/handler"
	"github.com/jaekwang-park/serverless-todo/internal/metrics"
	"github.com/jaekwang-park/serverless-todo/internal/middleware"
)

type RouterConfig struct {
	Todos  handler.TodoService
	Logger *slog.Logger
	// Auth guards every /todos route.
	Auth *middleware.Auth
	// Metrics is optional; when set, requests are measured and /metrics is served.
	Metrics        *metrics.Collector
	AllowedOrigins []string
}

// NewRouter builds the full handler chain shared by the HTTP server and the
// Lambda entry point.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.DevUserHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Get("/health", handler.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	todos := handler.NewTodoHandler(cfg.Todos, cfg.Logger)
	r.Route("/todos", func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)
		// Inner recovery sees the authenticated request, so panics log user_id.
		r.Use(middleware.Recovery(cfg.Logger))
		r.Get("/", todos.List)
		r.Post("/", todos.Create)
		r.Patch("/{todoId}", todos.Update)
		r.Delete("/{todoId}", todos.Delete)
		r.Post("/{todoId}/attachment", todos.AddAttachment)
	})

	return r
}

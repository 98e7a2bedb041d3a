package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jaekwang-park/serverless-todo/internal/model"
	"github.com/jaekwang-park/serverless-todo/internal/repository"
)

const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// InstrumentedRepository counts and times every call to the wrapped
// repository. Results and errors pass through untouched.
type InstrumentedRepository struct {
	next      repository.TodoRepository
	collector *Collector
}

func InstrumentRepository(next repository.TodoRepository, c *Collector) *InstrumentedRepository {
	return &InstrumentedRepository{next: next, collector: c}
}

func (r *InstrumentedRepository) observe(op string, start time.Time, err error) {
	outcome := outcomeOK
	switch {
	case errors.Is(err, repository.ErrNotFound):
		outcome = outcomeNotFound
	case err != nil:
		outcome = outcomeError
	}
	r.collector.StoreOperations.WithLabelValues(op, outcome).Inc()
	r.collector.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (r *InstrumentedRepository) ListTodos(ctx context.Context, userID string) ([]model.TodoItem, error) {
	start := time.Now()
	items, err := r.next.ListTodos(ctx, userID)
	r.observe("list", start, err)
	return items, err
}

func (r *InstrumentedRepository) CreateTodo(ctx context.Context, item model.TodoItem) (model.TodoItem, error) {
	start := time.Now()
	created, err := r.next.CreateTodo(ctx, item)
	r.observe("create", start, err)
	return created, err
}

func (r *InstrumentedRepository) DeleteTodo(ctx context.Context, userID, todoID string) error {
	start := time.Now()
	err := r.next.DeleteTodo(ctx, userID, todoID)
	r.observe("delete", start, err)
	return err
}

func (r *InstrumentedRepository) UpdateTodo(ctx context.Context, todoID, userID, name, dueDate string, done bool) error {
	start := time.Now()
	err := r.next.UpdateTodo(ctx, todoID, userID, name, dueDate, done)
	r.observe("update", start, err)
	return err
}

func (r *InstrumentedRepository) AddAttachment(ctx context.Context, todoID, userID, imageID string) (string, error) {
	start := time.Now()
	url, err := r.next.AddAttachment(ctx, todoID, userID, imageID)
	r.observe("add_attachment", start, err)
	return url, err
}

var _ repository.TodoRepository = (*InstrumentedRepository)(nil)

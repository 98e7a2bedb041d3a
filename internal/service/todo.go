package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/serverless-todo/internal/model"
	"github.com/jaekwang-park/serverless-todo/internal/repository"
)

// TodoService assigns ids and timestamps and hands everything else to the
// repository. Errors from the repository are returned unchanged.
type TodoService struct {
	repo  repository.TodoRepository
	now   func() time.Time
	newID func() string
}

type Option func(*TodoService)

// WithClock overrides the source of createdAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) { s.now = now }
}

// WithIDGenerator overrides the source of todo and image ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *TodoService) { s.newID = newID }
}

func NewTodoService(repo repository.TodoRepository, opts ...Option) *TodoService {
	s := &TodoService{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TodoService) GetTodos(ctx context.Context, userID string) ([]model.TodoItem, error) {
	return s.repo.ListTodos(ctx, userID)
}

func (s *TodoService) CreateTodo(ctx context.Context, req model.CreateTodoRequest, userID string) (model.TodoItem, error) {
	item := model.TodoItem{
		UserID:    userID,
		TodoID:    s.newID(),
		Name:      req.Name,
		CreatedAt: model.FormatTimestamp(s.now()),
		DueDate:   req.DueDate,
		Done:      false,
	}
	return s.repo.CreateTodo(ctx, item)
}

func (s *TodoService) DeleteTodo(ctx context.Context, todoID, userID string) error {
	return s.repo.DeleteTodo(ctx, userID, todoID)
}

func (s *TodoService) UpdateTodo(ctx context.Context, todoID string, req model.UpdateTodoRequest, userID string) error {
	var done bool
	if req.Done != nil {
		done = *req.Done
	}
	return s.repo.UpdateTodo(ctx, todoID, userID, req.Name, req.DueDate, done)
}

// AddAttachment returns a presigned upload URL for a freshly named image.
func (s *TodoService) AddAttachment(ctx context.Context, todoID, userID string) (string, error) {
	return s.repo.AddAttachment(ctx, todoID, userID, s.newID())
}

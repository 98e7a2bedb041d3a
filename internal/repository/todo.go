package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaekwang-park/serverless-todo/internal/model"
)

// TodoRepository is the persistence surface used by the service layer.
type TodoRepository interface {
	ListTodos(ctx context.Context, userID string) ([]model.TodoItem, error)
	CreateTodo(ctx context.Context, item model.TodoItem) (model.TodoItem, error)
	DeleteTodo(ctx context.Context, userID, todoID string) error
	UpdateTodo(ctx context.Context, todoID, userID, name, dueDate string, done bool) error
	AddAttachment(ctx context.Context, todoID, userID, imageID string) (string, error)
}

// TodoStore is a document store holding TodoItems under the composite key
// (userId, todoId). Implementations return ErrNotFound from Update and
// SetAttachmentURL when the key is absent, and wrap every other failure
// in ErrStoreUnavailable.
type TodoStore interface {
	// List returns all items of userID, newest createdAt first.
	List(ctx context.Context, userID string) ([]model.TodoItem, error)
	Put(ctx context.Context, item model.TodoItem) error
	Delete(ctx context.Context, userID, todoID string) error
	Update(ctx context.Context, userID, todoID string, upd model.TodoUpdate) error
	SetAttachmentURL(ctx context.Context, userID, todoID, url string) error
}

// AttachmentSigner mints upload links for attachment objects.
type AttachmentSigner interface {
	// PresignUpload returns a time limited URL allowing one PUT of key.
	PresignUpload(ctx context.Context, key string) (string, error)
	// ObjectURL returns the public URL key is served from once uploaded.
	ObjectURL(key string) string
}

// TodosAccess implements TodoRepository on top of a TodoStore and an
// AttachmentSigner. Errors from either are returned unchanged.
type TodosAccess struct {
	store  TodoStore
	signer AttachmentSigner
	logger *slog.Logger
}

func NewTodosAccess(store TodoStore, signer AttachmentSigner, logger *slog.Logger) *TodosAccess {
	return &TodosAccess{
		store:  store,
		signer: signer,
		logger: logger.With("component", "todos_access"),
	}
}

func (a *TodosAccess) ListTodos(ctx context.Context, userID string) ([]model.TodoItem, error) {
	a.logger.InfoContext(ctx, "loading todos", "user_id", userID)

	items, err := a.store.List(ctx, userID)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to load todos", "user_id", userID, "error", err)
		return nil, err
	}

	a.logger.InfoContext(ctx, "loaded todos", "user_id", userID, "count", len(items))
	return items, nil
}

func (a *TodosAccess) CreateTodo(ctx context.Context, item model.TodoItem) (model.TodoItem, error) {
	a.logger.InfoContext(ctx, "creating todo", "user_id", item.UserID, "todo_id", item.TodoID, "item", item)

	if err := a.store.Put(ctx, item); err != nil {
		a.logger.ErrorContext(ctx, "failed to create todo", "user_id", item.UserID, "todo_id", item.TodoID, "error", err)
		return model.TodoItem{}, err
	}

	a.logger.InfoContext(ctx, "todo created", "user_id", item.UserID, "todo_id", item.TodoID)
	return item, nil
}

func (a *TodosAccess) DeleteTodo(ctx context.Context, userID, todoID string) error {
	a.logger.InfoContext(ctx, "deleting todo", "user_id", userID, "todo_id", todoID)

	if err := a.store.Delete(ctx, userID, todoID); err != nil {
		a.logger.ErrorContext(ctx, "failed to delete todo", "user_id", userID, "todo_id", todoID, "error", err)
		return err
	}

	a.logger.InfoContext(ctx, "todo deleted", "user_id", userID, "todo_id", todoID)
	return nil
}

func (a *TodosAccess) UpdateTodo(ctx context.Context, todoID, userID, name, dueDate string, done bool) error {
	a.logger.InfoContext(ctx, "updating todo",
		"user_id", userID,
		"todo_id", todoID,
		"name", name,
		"due_date", dueDate,
		"done", done,
	)

	upd := model.TodoUpdate{Name: name, DueDate: dueDate, Done: done}
	if err := a.store.Update(ctx, userID, todoID, upd); err != nil {
		a.logger.ErrorContext(ctx, "failed to update todo", "user_id", userID, "todo_id", todoID, "error", err)
		return err
	}

	a.logger.InfoContext(ctx, "todo updated", "user_id", userID, "todo_id", todoID)
	return nil
}

// AddAttachment signs an upload link for imageID and records the object's
// public URL on the item. The URL is stored before anything is uploaded.
func (a *TodosAccess) AddAttachment(ctx context.Context, todoID, userID, imageID string) (string, error) {
	a.logger.InfoContext(ctx, "adding attachment", "user_id", userID, "todo_id", todoID, "image_id", imageID)

	uploadURL, err := a.signer.PresignUpload(ctx, imageID)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to sign upload url", "user_id", userID, "todo_id", todoID, "error", err)
		return "", fmt.Errorf("%w: presign upload: %w", ErrStoreUnavailable, err)
	}

	attachmentURL := a.signer.ObjectURL(imageID)
	if err := a.store.SetAttachmentURL(ctx, userID, todoID, attachmentURL); err != nil {
		a.logger.ErrorContext(ctx, "failed to attach url", "user_id", userID, "todo_id", todoID, "error", err)
		return "", err
	}

	a.logger.InfoContext(ctx, "attachment added",
		"user_id", userID,
		"todo_id", todoID,
		"attachment_url", attachmentURL,
		"upload_url", uploadURL,
	)
	return uploadURL, nil
}

// ensure compile-time interface compliance
var _ TodoRepository = (*TodosAccess)(nil)

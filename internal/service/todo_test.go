package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaekwang-park/serverless-todo/internal/model"
	"github.com/jaekwang-park/serverless-todo/internal/repository"
	"github.com/jaekwang-park/serverless-todo/internal/service"
)

type stubSigner struct{}

func (stubSigner) PresignUpload(_ context.Context, key string) (string, error) {
	return "https://todo-images.s3.amazonaws.com/" + key + "?X-Amz-Signature=sig", nil
}

func (stubSigner) ObjectURL(key string) string {
	return "https://todo-images.s3.amazonaws.com/" + key
}

func newService(t *testing.T, opts ...service.Option) *service.TodoService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	access := repository.NewTodosAccess(repository.NewMemoryTodoStore(), stubSigner{}, logger)
	return service.NewTodoService(access, opts...)
}

// recordingRepo captures the arguments the service passes down.
type recordingRepo struct {
	err error

	created   []model.TodoItem
	deleted   [][2]string
	updated   []string
	imageIDs  []string
	listCalls []string
}

func (r *recordingRepo) ListTodos(_ context.Context, userID string) ([]model.TodoItem, error) {
	r.listCalls = append(r.listCalls, userID)
	return []model.TodoItem{}, r.err
}

func (r *recordingRepo) CreateTodo(_ context.Context, item model.TodoItem) (model.TodoItem, error) {
	r.created = append(r.created, item)
	if r.err != nil {
		return model.TodoItem{}, r.err
	}
	return item, nil
}

func (r *recordingRepo) DeleteTodo(_ context.Context, userID, todoID string) error {
	r.deleted = append(r.deleted, [2]string{userID, todoID})
	return r.err
}

func (r *recordingRepo) UpdateTodo(_ context.Context, todoID, userID, name, dueDate string, done bool) error {
	r.updated = append(r.updated, fmt.Sprintf("%s|%s|%s|%s|%t", todoID, userID, name, dueDate, done))
	return r.err
}

func (r *recordingRepo) AddAttachment(_ context.Context, todoID, userID, imageID string) (string, error) {
	r.imageIDs = append(r.imageIDs, imageID)
	if r.err != nil {
		return "", r.err
	}
	return "https://signed/" + imageID, nil
}

func TestCreateTodo(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	before := time.Now().UTC().Truncate(time.Millisecond)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		item, err := svc.CreateTodo(ctx, model.CreateTodoRequest{Name: "Buy milk", DueDate: "2024-01-01"}, "u1")
		require.NoError(t, err)

		assert.NotEmpty(t, item.TodoID)
		assert.False(t, seen[item.TodoID], "duplicate todo id %s", item.TodoID)
		seen[item.TodoID] = true

		assert.Equal(t, "u1", item.UserID)
		assert.Equal(t, "Buy milk", item.Name)
		assert.Equal(t, "2024-01-01", item.DueDate)
		assert.False(t, item.Done)
		assert.Empty(t, item.AttachmentURL)

		created, err := model.ParseTimestamp(item.CreatedAt)
		require.NoError(t, err)
		assert.False(t, created.Before(before), "createdAt %s before test start", item.CreatedAt)
		assert.False(t, created.After(time.Now()), "createdAt %s in the future", item.CreatedAt)
	}
}

func TestCreateTodo_InjectedClockAndIDs(t *testing.T) {
	repo := &recordingRepo{}
	fixed := time.Date(2024, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("KST", 9*60*60))
	svc := service.NewTodoService(repo,
		service.WithClock(func() time.Time { return fixed }),
		service.WithIDGenerator(func() string { return "todo-1" }),
	)

	item, err := svc.CreateTodo(context.Background(), model.CreateTodoRequest{Name: "n", DueDate: "d"}, "u1")
	require.NoError(t, err)

	want := model.TodoItem{
		UserID:    "u1",
		TodoID:    "todo-1",
		Name:      "n",
		CreatedAt: "2024-03-03T20:06:07.890Z",
		DueDate:   "d",
	}
	assert.Equal(t, want, item)
	assert.Equal(t, []model.TodoItem{want}, repo.created)
}

func TestGetTodos_Empty(t *testing.T) {
	svc := newService(t)

	items, err := svc.GetTodos(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGetTodos_NewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc := newService(t, service.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := svc.CreateTodo(ctx, model.CreateTodoRequest{Name: name, DueDate: "2024-02-01"}, "u1")
		require.NoError(t, err)
	}

	items, err := svc.GetTodos(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "third", items[0].Name)
	assert.Equal(t, "first", items[2].Name)
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].CreatedAt, items[i].CreatedAt)
	}
}

func TestDeleteTodo_Missing(t *testing.T) {
	svc := newService(t)

	assert.NoError(t, svc.DeleteTodo(context.Background(), "missing", "u1"))
}

func TestDeleteTodo_ArgumentOrder(t *testing.T) {
	repo := &recordingRepo{}
	svc := service.NewTodoService(repo)

	require.NoError(t, svc.DeleteTodo(context.Background(), "t1", "u1"))
	assert.Equal(t, [][2]string{{"u1", "t1"}}, repo.deleted)
}

func TestUpdateTodo_Destructures(t *testing.T) {
	done := true
	tests := []struct {
		name string
		req  model.UpdateTodoRequest
		want string
	}{
		{"done set", model.UpdateTodoRequest{Name: "n", DueDate: "d", Done: &done}, "t1|u1|n|d|true"},
		{"done nil", model.UpdateTodoRequest{Name: "n", DueDate: "d"}, "t1|u1|n|d|false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &recordingRepo{}
			svc := service.NewTodoService(repo)

			require.NoError(t, svc.UpdateTodo(context.Background(), "t1", tt.req, "u1"))
			assert.Equal(t, []string{tt.want}, repo.updated)
		})
	}
}

func TestUpdateTodo_KeepsCreatedAt(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	item, err := svc.CreateTodo(ctx, model.CreateTodoRequest{Name: "Buy milk", DueDate: "2024-01-01"}, "u1")
	require.NoError(t, err)

	done := true
	err = svc.UpdateTodo(ctx, item.TodoID, model.UpdateTodoRequest{Name: "Buy bread", DueDate: "2024-01-05", Done: &done}, "u1")
	require.NoError(t, err)

	items, err := svc.GetTodos(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Buy bread", items[0].Name)
	assert.Equal(t, "2024-01-05", items[0].DueDate)
	assert.True(t, items[0].Done)
	assert.Equal(t, item.CreatedAt, items[0].CreatedAt)
}

func TestUpdateTodo_Missing(t *testing.T) {
	svc := newService(t)
	done := false

	err := svc.UpdateTodo(context.Background(), "missing", model.UpdateTodoRequest{Name: "n", DueDate: "d", Done: &done}, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAddAttachment(t *testing.T) {
	svc := newService(t, service.WithIDGenerator(sequence("todo-1", "img-1")))
	ctx := context.Background()

	item, err := svc.CreateTodo(ctx, model.CreateTodoRequest{Name: "Buy milk", DueDate: "2024-01-01"}, "u1")
	require.NoError(t, err)

	uploadURL, err := svc.AddAttachment(ctx, item.TodoID, "u1")
	require.NoError(t, err)

	items, err := svc.GetTodos(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://todo-images.s3.amazonaws.com/img-1", items[0].AttachmentURL)
	assert.NotEqual(t, items[0].AttachmentURL, uploadURL)
}

func TestAddAttachment_FreshImageIDs(t *testing.T) {
	repo := &recordingRepo{}
	svc := service.NewTodoService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.AddAttachment(ctx, "t1", "u1")
		require.NoError(t, err)
	}
	require.Len(t, repo.imageIDs, 3)
	assert.NotEqual(t, repo.imageIDs[0], repo.imageIDs[1])
	assert.NotEqual(t, repo.imageIDs[1], repo.imageIDs[2])
}

func TestErrorsPropagateUnchanged(t *testing.T) {
	cause := fmt.Errorf("%w: dynamodb put: boom", repository.ErrStoreUnavailable)
	repo := &recordingRepo{err: cause}
	svc := service.NewTodoService(repo)
	ctx := context.Background()
	done := true

	_, err := svc.GetTodos(ctx, "u1")
	assert.Same(t, cause, err)
	_, err = svc.CreateTodo(ctx, model.CreateTodoRequest{Name: "n", DueDate: "d"}, "u1")
	assert.Same(t, cause, err)
	assert.Same(t, cause, svc.DeleteTodo(ctx, "t1", "u1"))
	assert.Same(t, cause, svc.UpdateTodo(ctx, "t1", model.UpdateTodoRequest{Name: "n", DueDate: "d", Done: &done}, "u1"))
	_, err = svc.AddAttachment(ctx, "t1", "u1")
	assert.True(t, errors.Is(err, repository.ErrStoreUnavailable))
}

func TestScenario_CreateUpdateGet(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	item, err := svc.CreateTodo(ctx, model.CreateTodoRequest{Name: "Buy milk", DueDate: "2024-01-01"}, "u1")
	require.NoError(t, err)
	assert.False(t, item.Done)

	done := true
	err = svc.UpdateTodo(ctx, item.TodoID, model.UpdateTodoRequest{Name: "Buy milk", DueDate: "2024-01-01", Done: &done}, "u1")
	require.NoError(t, err)

	items, err := svc.GetTodos(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Done)
	assert.Equal(t, item.TodoID, items[0].TodoID)
}

func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

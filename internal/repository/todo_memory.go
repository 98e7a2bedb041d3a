package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jaekwang-park/serverless-todo/internal/model"
)

// MemoryTodoStore is a process-local TodoStore for local development and
// tests. Contents are lost on restart.
type MemoryTodoStore struct {
	mu    sync.RWMutex
	items map[todoKey]model.TodoItem
}

func NewMemoryTodoStore() *MemoryTodoStore {
	return &MemoryTodoStore{items: make(map[todoKey]model.TodoItem)}
}

func (s *MemoryTodoStore) List(_ context.Context, userID string) ([]model.TodoItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []model.TodoItem{}
	for k, item := range s.items {
		if k.UserID == userID {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	return items, nil
}

func (s *MemoryTodoStore) Put(_ context.Context, item model.TodoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[todoKey{UserID: item.UserID, TodoID: item.TodoID}] = item
	return nil
}

func (s *MemoryTodoStore) Delete(_ context.Context, userID, todoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, todoKey{UserID: userID, TodoID: todoID})
	return nil
}

func (s *MemoryTodoStore) Update(_ context.Context, userID, todoID string, upd model.TodoUpdate) error {
	return s.modify(userID, todoID, func(item *model.TodoItem) {
		item.Name = upd.Name
		item.DueDate = upd.DueDate
		item.Done = upd.Done
	})
}

func (s *MemoryTodoStore) SetAttachmentURL(_ context.Context, userID, todoID, url string) error {
	return s.modify(userID, todoID, func(item *model.TodoItem) {
		item.AttachmentURL = url
	})
}

func (s *MemoryTodoStore) modify(userID, todoID string, fn func(*model.TodoItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := todoKey{UserID: userID, TodoID: todoID}
	item, ok := s.items[k]
	if !ok {
		return ErrNotFound
	}
	fn(&item)
	s.items[k] = item
	return nil
}

var _ TodoStore = (*MemoryTodoStore)(nil)

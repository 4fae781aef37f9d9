package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avelencia/todo-chat/internal/apperrors"
	"github.com/avelencia/todo-chat/internal/models"
)

// MemoryStore is the in-memory TodoService used for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	todos  map[int64]*models.Todo
	nextID int64
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		todos:  make(map[int64]*models.Todo),
		nextID: 1,
		now:    time.Now,
	}
}

var _ TodoService = (*MemoryStore)(nil)

func (s *MemoryStore) CreateTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := *todo
	stored.ID = s.nextID
	s.nextID++
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.todos[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *MemoryStore) GetTodo(ctx context.Context, userID, id int64) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owned(userID, id)
}

func (s *MemoryStore) UpdateTodo(ctx context.Context, userID, id int64, fields map[string]any) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(userID, id); err != nil {
		return nil, err
	}

	stored := s.todos[id]
	applyFields(stored, fields)
	stored.UpdatedAt = s.now()

	out := *stored
	return &out, nil
}

// CompleteTodo is idempotent: completing an already-completed todo succeeds.
func (s *MemoryStore) CompleteTodo(ctx context.Context, userID, id int64) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(userID, id); err != nil {
		return nil, err
	}

	stored := s.todos[id]
	stored.Completed = true
	stored.UpdatedAt = s.now()

	out := *stored
	return &out, nil
}

func (s *MemoryStore) DeleteTodo(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	delete(s.todos, id)
	return nil
}

func (s *MemoryStore) ListTodos(ctx context.Context, userID int64) ([]*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Todo, 0)
	for _, todo := range s.todos {
		if todo.UserID != userID {
			continue
		}
		copied := *todo
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// owned returns the todo only when it exists and belongs to userID; anything
// else is reported as not found, never as "owned by someone else".
func (s *MemoryStore) owned(userID, id int64) (*models.Todo, error) {
	todo, exists := s.todos[id]
	if !exists || todo.UserID != userID {
		return nil, &apperrors.NotFoundError{Resource: "todo", ID: id}
	}
	out := *todo
	return &out, nil
}

func applyFields(todo *models.Todo, fields map[string]any) {
	for name, value := range fields {
		switch name {
		case "title":
			if v, ok := value.(string); ok {
				todo.Title = v
			}
		case "description":
			if v, ok := value.(string); ok {
				todo.Description = v
			}
		case "completed":
			if v, ok := value.(bool); ok {
				todo.Completed = v
			}
		case "priority":
			if v, ok := value.(string); ok {
				todo.Priority = v
			}
		case "category":
			if v, ok := value.(string); ok {
				todo.Category = v
			}
		case "due_date":
			if v, ok := value.(time.Time); ok {
				due := v
				todo.DueDate = &due
			}
		}
	}
}

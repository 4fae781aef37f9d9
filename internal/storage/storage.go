package storage

import (
	"context"

	"github.com/avelencia/todo-chat/internal/models"
)

// TodoService is the stable contract the pipeline depends on for todo CRUD.
// Implementations enforce ownership: operations on a todo that exists but
// belongs to another user report it as not found.
type TodoService interface {
	CreateTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error)
	GetTodo(ctx context.Context, userID, id int64) (*models.Todo, error)
	UpdateTodo(ctx context.Context, userID, id int64, fields map[string]any) (*models.Todo, error)
	CompleteTodo(ctx context.Context, userID, id int64) (*models.Todo, error)
	DeleteTodo(ctx context.Context, userID, id int64) error
	ListTodos(ctx context.Context, userID int64) ([]*models.Todo, error)
	Close() error
}

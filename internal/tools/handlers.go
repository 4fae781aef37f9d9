package tools

import (
	"context"
	"strings"
	"time"

	"github.com/avelencia/todo-chat/internal/apperrors"
	"github.com/avelencia/todo-chat/internal/models"
	"github.com/avelencia/todo-chat/internal/validator"
)

func idSchema() *validator.Field {
	return &validator.Field{
		Type:     validator.TypeNumber,
		Required: true,
		Min:      validator.Float64Ptr(1),
	}
}

func requireID(params map[string]any) (int64, error) {
	id, ok := validator.AsID(params["todo_id"])
	if !ok {
		return 0, &apperrors.ValidationError{Field: "todo_id", Reason: "The task number must be a positive whole number."}
	}
	return id, nil
}

func (r *Registry) createTool() *Tool {
	return &Tool{
		Name:        "create",
		Description: "Create a new todo item",
		Schema: validator.Schema{
			"title":       {Type: validator.TypeString, Required: true, MinLength: 1, MaxLength: 200},
			"description": {Type: validator.TypeString, MaxLength: 1000},
			"due_date":    {Type: validator.TypeDate},
			"priority":    {Type: validator.TypeEnum, Enum: []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}},
			"category":    {Type: validator.TypeString, MaxLength: 100},
			"completed":   {Type: validator.TypeBoolean},
		},
		Run: func(ctx context.Context, userID int64, params map[string]any) (any, error) {
			todo := &models.Todo{
				UserID:   userID,
				Title:    params["title"].(string),
				Priority: models.PriorityMedium,
			}
			if v, ok := params["description"].(string); ok {
				todo.Description = v
			}
			if v, ok := params["priority"].(string); ok {
				todo.Priority = v
			}
			if v, ok := params["category"].(string); ok {
				todo.Category = v
			}
			if v, ok := params["completed"].(bool); ok {
				todo.Completed = v
			}
			if v, ok := params["due_date"].(time.Time); ok {
				todo.DueDate = &v
			}
			return r.todos.CreateTodo(ctx, todo)
		},
	}
}

func (r *Registry) updateTool() *Tool {
	return &Tool{
		Name:        "update",
		Description: "Update fields of an existing todo item",
		Schema: validator.Schema{
			"todo_id":     idSchema(),
			"title":       {Type: validator.TypeString, MinLength: 1, MaxLength: 200},
			"description": {Type: validator.TypeString, MaxLength: 1000},
			"due_date":    {Type: validator.TypeDate},
			"priority":    {Type: validator.TypeEnum, Enum: []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}},
			"category":    {Type: validator.TypeString, MaxLength: 100},
			"completed":   {Type: validator.TypeBoolean},
		},
		Check: func(params map[string]any) error {
			if _, err := requireID(params); err != nil {
				return err
			}
			if len(updateFields(params)) == 0 {
				return &apperrors.ValidationError{Reason: "There is nothing to update. Tell me what should change, for example the title or the due date."}
			}
			return nil
		},
		Run: func(ctx context.Context, userID int64, params map[string]any) (any, error) {
			id, err := requireID(params)
			if err != nil {
				return nil, err
			}
			return r.todos.UpdateTodo(ctx, userID, id, updateFields(params))
		},
	}
}

func updateFields(params map[string]any) map[string]any {
	fields := make(map[string]any)
	for name, value := range params {
		if name == "todo_id" {
			continue
		}
		fields[name] = value
	}
	return fields
}

func (r *Registry) completeTool() *Tool {
	return &Tool{
		Name:        "complete",
		Description: "Mark a todo item as completed",
		Schema: validator.Schema{
			"todo_id": idSchema(),
		},
		Check: func(params map[string]any) error {
			_, err := requireID(params)
			return err
		},
		Run: func(ctx context.Context, userID int64, params map[string]any) (any, error) {
			id, err := requireID(params)
			if err != nil {
				return nil, err
			}
			// Idempotent: completing an already-completed item succeeds.
			return r.todos.CompleteTodo(ctx, userID, id)
		},
	}
}

func (r *Registry) deleteTool() *Tool {
	return &Tool{
		Name:        "delete",
		Description: "Delete a todo item",
		Schema: validator.Schema{
			"todo_id": idSchema(),
		},
		Check: func(params map[string]any) error {
			_, err := requireID(params)
			return err
		},
		Run: func(ctx context.Context, userID int64, params map[string]any) (any, error) {
			id, err := requireID(params)
			if err != nil {
				return nil, err
			}
			if err := r.todos.DeleteTodo(ctx, userID, id); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": id}, nil
		},
	}
}

// ListPayload is the list tool's result: one filtered page plus the
// pre-pagination total.
type ListPayload struct {
	Todos []*models.Todo `json:"todos"`
	Total int            `json:"total"`
}

func (r *Registry) listTool() *Tool {
	return &Tool{
		Name:        "list",
		Description: "List todo items with optional filters and pagination",
		Schema: validator.Schema{
			"completed": {Type: validator.TypeBoolean},
			"priority":  {Type: validator.TypeEnum, Enum: []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}},
			"category":  {Type: validator.TypeString, MaxLength: 100},
			"due":       {Type: validator.TypeString, MaxLength: 10},
			"limit":     {Type: validator.TypeNumber, Min: validator.Float64Ptr(1), Max: validator.Float64Ptr(100)},
			"offset":    {Type: validator.TypeNumber, Min: validator.Float64Ptr(0)},
		},
		Run: func(ctx context.Context, userID int64, params map[string]any) (any, error) {
			todos, err := r.todos.ListTodos(ctx, userID)
			if err != nil {
				return nil, err
			}

			filtered := filterTodos(todos, params)
			total := len(filtered)

			if v, ok := params["offset"].(float64); ok {
				offset := int(v)
				if offset > len(filtered) {
					offset = len(filtered)
				}
				filtered = filtered[offset:]
			}
			if v, ok := params["limit"].(float64); ok {
				limit := int(v)
				if limit < len(filtered) {
					filtered = filtered[:limit]
				}
			}

			return &ListPayload{Todos: filtered, Total: total}, nil
		},
	}
}

// filterTodos applies the client-side filters: completion state, priority,
// category substring and due-date prefix.
func filterTodos(todos []*models.Todo, params map[string]any) []*models.Todo {
	out := make([]*models.Todo, 0, len(todos))
	for _, todo := range todos {
		if v, ok := params["completed"].(bool); ok && todo.Completed != v {
			continue
		}
		if v, ok := params["priority"].(string); ok && todo.Priority != v {
			continue
		}
		if v, ok := params["category"].(string); ok &&
			!strings.Contains(strings.ToLower(todo.Category), strings.ToLower(v)) {
			continue
		}
		if v, ok := params["due"].(string); ok {
			if todo.DueDate == nil || !strings.HasPrefix(todo.DueDate.Format("2006-01-02"), v) {
				continue
			}
		}
		out = append(out, todo)
	}
	return out
}

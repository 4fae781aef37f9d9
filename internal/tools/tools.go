// Package tools holds the fixed registry of the five todo operations the
// pipeline can invoke. Dispatch re-validates parameters and auth per tool,
// calls the backend exactly once per delivery attempt, and normalizes every
// outcome into one uniform result shape.
package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/apperrors"
	"github.com/avelencia/todo-chat/internal/auth"
	"github.com/avelencia/todo-chat/internal/models"
	"github.com/avelencia/todo-chat/internal/resilience"
	"github.com/avelencia/todo-chat/internal/storage"
	"github.com/avelencia/todo-chat/internal/validator"
)

// Handler performs one backend call for a tool.
type Handler func(ctx context.Context, userID int64, params map[string]any) (any, error)

// Tool is one named, schema-described operation.
type Tool struct {
	Name        string
	Description string
	Schema      validator.Schema
	// Check runs tool-specific preconditions after schema validation and
	// before any delivery attempt, so invalid actions are never queued.
	Check func(params map[string]any) error
	Run   Handler
}

// Registry is the fixed set of tools plus the collaborators every dispatch
// needs: the auth gate, the todo backend, and the resilience layer.
type Registry struct {
	tools  map[string]*Tool
	gate   *auth.Gate
	todos  storage.TodoService
	exec   *resilience.Executor
	queue  *resilience.Queue
	logger *zap.Logger
}

func NewRegistry(gate *auth.Gate, todos storage.TodoService, exec *resilience.Executor, queue *resilience.Queue, logger *zap.Logger) *Registry {
	r := &Registry{
		tools:  make(map[string]*Tool),
		gate:   gate,
		todos:  todos,
		exec:   exec,
		queue:  queue,
		logger: logger,
	}
	for _, tool := range []*Tool{
		r.createTool(),
		r.updateTool(),
		r.completeTool(),
		r.deleteTool(),
		r.listTool(),
	} {
		r.tools[tool.Name] = tool
	}
	return r
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Dispatch runs one tool invocation end to end: schema validation, auth,
// preconditions, then delivery through the resilience layer. It never lets a
// raw error escape; every outcome is a ToolResult.
func (r *Registry) Dispatch(ctx context.Context, ac *models.AuthContext, name string, raw map[string]any) models.ToolResult {
	tool, ok := r.tools[name]
	if !ok {
		r.logger.Error("unknown tool requested", zap.String("tool", name))
		return failure(&apperrors.PermanentError{Reason: "I don't know how to do that yet."})
	}

	vres := validator.Validate(raw, tool.Schema)
	if !vres.Valid {
		return models.ToolResult{Success: false, Error: vres.Messages()}
	}
	params := vres.Sanitized

	authRes := r.gate.Authorize(ac, name, idParam(params))
	if !authRes.Valid {
		return failure(authRes.Err)
	}

	if tool.Check != nil {
		if err := tool.Check(params); err != nil {
			return failure(err)
		}
	}

	if !r.queue.Online() {
		return r.enqueue(tool.Name, authRes.UserID, params)
	}

	var payload any
	err := r.exec.Do(ctx, tool.Name, func(ctx context.Context) error {
		p, runErr := tool.Run(ctx, authRes.UserID, params)
		if runErr != nil {
			return runErr
		}
		payload = p
		return nil
	})
	if err != nil {
		if resilience.Retryable(err) {
			// The synchronous retry budget is spent; hand the action to
			// the offline queue instead of discarding it.
			return r.enqueue(tool.Name, authRes.UserID, params)
		}
		r.logger.Warn("tool failed",
			zap.String("tool", tool.Name),
			zap.Int64("user_id", authRes.UserID),
			zap.Error(err))
		return failure(err)
	}

	return models.ToolResult{Success: true, Payload: payload}
}

// Replay performs a single delivery attempt for a queued action. The queue's
// executor owns the retry budget around it.
func (r *Registry) Replay(ctx context.Context, action *resilience.QueuedAction) error {
	tool, ok := r.tools[action.Tool]
	if !ok {
		return &apperrors.PermanentError{Reason: fmt.Sprintf("unknown tool %q", action.Tool)}
	}
	_, err := tool.Run(ctx, action.UserID, action.Params)
	return err
}

func (r *Registry) enqueue(tool string, userID int64, params map[string]any) models.ToolResult {
	action := r.queue.Enqueue(tool, userID, params)
	return models.ToolResult{
		Queued:  true,
		Payload: map[string]any{"action_id": action.ID},
	}
}

func failure(err error) models.ToolResult {
	return models.ToolResult{Success: false, Error: apperrors.Humanize(err)}
}

// idParam extracts the target resource id for the auth check, when present.
func idParam(params map[string]any) int64 {
	if id, ok := validator.AsID(params["todo_id"]); ok {
		return id
	}
	return 0
}

// Package assistant is the conversational command pipeline: it turns one
// user message into a classified intent, validates and authorizes the
// extracted parameters, invokes at most one tool, and produces the reply.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/apperrors"
	"github.com/avelencia/todo-chat/internal/classifier"
	"github.com/avelencia/todo-chat/internal/models"
	"github.com/avelencia/todo-chat/internal/session"
	"github.com/avelencia/todo-chat/internal/tools"
)

// Reply is what the consuming UI renders for one user message.
type Reply struct {
	SessionID string                  `json:"session_id,omitempty"`
	Text      string                  `json:"text"`
	Intent    models.IntentType       `json:"intent,omitempty"`
	ToolCalls []models.ToolInvocation `json:"tool_calls,omitempty"`
}

// Assistant wires the pipeline stages together. All collaborators are
// injected so tests can supply fakes for the backend and the clock.
type Assistant struct {
	classifier    classifier.Classifier
	registry      *tools.Registry
	sessions      *session.Manager
	maxMessageLen int
	logger        *zap.Logger
	now           func() time.Time
}

func New(clf classifier.Classifier, registry *tools.Registry, sessions *session.Manager, maxMessageLen int, logger *zap.Logger) *Assistant {
	if maxMessageLen <= 0 {
		maxMessageLen = 1000
	}
	return &Assistant{
		classifier:    clf,
		registry:      registry,
		sessions:      sessions,
		maxMessageLen: maxMessageLen,
		logger:        logger,
		now:           time.Now,
	}
}

const welcomeText = `Hi! I'm your todo assistant.
Tell me things like "add buy milk tomorrow", "show my tasks" or "mark task 2 as done".`

const helpText = `Here's what I understand:
- add <something>, optionally with a due date: "add call mom tomorrow at 5pm"
- show my tasks, or only the open / completed ones
- mark task <number> as done
- change task <number>, for example "change task 2 to water the plants"
- delete task <number>`

// SendMessage runs the full pipeline for one user message. Whitespace-only
// input is a no-op: nothing is stored and an empty reply comes back.
func (a *Assistant) SendMessage(ctx context.Context, sessionID string, authCtx models.AuthContext, text string) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return &Reply{Intent: models.IntentUnknown}, nil
	}
	if authCtx.UserID <= 0 {
		return &Reply{
			Text:   apperrors.Humanize(&apperrors.AuthError{Reason: "missing or invalid user identifier"}),
			Intent: models.IntentUnknown,
		}, nil
	}

	text = truncate(text, a.maxMessageLen)

	sess, err := a.sessions.GetOrCreate(sessionID, authCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	log := a.logger.With(
		zap.String("session_id", sess.ID),
		zap.Int64("user_id", authCtx.UserID))

	history, err := a.sessions.History(sess.ID, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	convCtx := classifier.Context{LastTodoID: lastReferencedTodo(history)}

	intent := a.classifier.Classify(ctx, text, convCtx)
	log.Info("message classified",
		zap.String("intent", string(intent.Type)),
		zap.Float64("confidence", intent.Confidence),
		zap.Bool("requires_clarification", intent.RequiresClarification))

	userMsg := &models.Message{
		ID:         uuid.New().String(),
		SessionID:  sess.ID,
		Sender:     models.SenderUser,
		Content:    text,
		Timestamp:  a.now(),
		Intent:     intent.Type,
		Parameters: intent.Parameters,
	}
	if err := a.sessions.Append(userMsg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	reply := &Reply{SessionID: sess.ID, Intent: intent.Type}

	switch {
	case intent.Type == models.IntentGreeting:
		reply.Text = welcomeText
	case intent.Type == models.IntentHelp:
		reply.Text = helpText
	case intent.Type == models.IntentUnknown:
		reply.Text = `I didn't catch that. Try "add buy milk" or "show my tasks", or say "help".`
	case intent.RequiresClarification:
		reply.Text = clarificationText(intent)
	default:
		result := a.registry.Dispatch(ctx, &authCtx, string(intent.Type), intent.Parameters)
		reply.ToolCalls = []models.ToolInvocation{{
			Tool:       string(intent.Type),
			Parameters: intent.Parameters,
			UserID:     authCtx.UserID,
			Result:     result,
		}}
		reply.Text = renderResult(intent.Type, result)
	}

	assistantMsg := &models.Message{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Sender:    models.SenderAssistant,
		Content:   reply.Text,
		Timestamp: a.now(),
		Intent:    intent.Type,
	}
	if err := a.sessions.Append(assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store reply: %w", err)
	}

	return reply, nil
}

// Timeline returns a live session with its messages in arrival order.
func (a *Assistant) Timeline(sessionID string, limit int) (*models.ConversationSession, []*models.Message, error) {
	sess, err := a.sessions.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := a.sessions.History(sessionID, limit)
	if err != nil {
		return nil, nil, err
	}
	return sess, msgs, nil
}

func clarificationText(intent models.Intent) string {
	var b strings.Builder
	b.WriteString(intent.Clarification)
	if len(intent.Suggestions) > 0 {
		b.WriteString("\nFor example: ")
		for i, s := range intent.Suggestions {
			if i > 0 {
				b.WriteString(" or ")
			}
			b.WriteString(`"` + s + `"`)
		}
		b.WriteString(".")
	}
	return b.String()
}

func renderResult(intent models.IntentType, result models.ToolResult) string {
	if result.Queued {
		return "I can't reach the todo service right now. I've saved that action and will retry as soon as I'm back online."
	}
	if !result.Success {
		return result.Error
	}

	switch intent {
	case models.IntentCreate:
		todo, ok := result.Payload.(*models.Todo)
		if !ok {
			return "Done!"
		}
		text := fmt.Sprintf("Added %q as task %d.", todo.Title, todo.ID)
		if todo.DueDate != nil {
			text += fmt.Sprintf(" It's due %s.", todo.DueDate.Format("Mon, Jan 2 at 3:04 PM"))
		}
		return text
	case models.IntentUpdate:
		if todo, ok := result.Payload.(*models.Todo); ok {
			return fmt.Sprintf("Updated task %d.", todo.ID)
		}
		return "Updated."
	case models.IntentComplete:
		if todo, ok := result.Payload.(*models.Todo); ok {
			return fmt.Sprintf("Marked task %d as done. Nice work!", todo.ID)
		}
		return "Marked as done."
	case models.IntentDelete:
		if payload, ok := result.Payload.(map[string]any); ok {
			if id, ok := payload["deleted"].(int64); ok {
				return fmt.Sprintf("Deleted task %d.", id)
			}
		}
		return "Deleted."
	case models.IntentList:
		return renderList(result.Payload)
	}
	return "Done!"
}

func renderList(payload any) string {
	list, ok := payload.(*tools.ListPayload)
	if !ok {
		return "Here are your tasks."
	}
	if list.Total == 0 {
		return "You have no matching tasks."
	}

	var b strings.Builder
	for i, todo := range list.Todos {
		if i > 0 {
			b.WriteString("\n")
		}
		box := "[ ]"
		if todo.Completed {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("%d. %s %s", todo.ID, box, todo.Title))
		var notes []string
		if todo.Priority != "" && todo.Priority != models.PriorityMedium {
			notes = append(notes, todo.Priority+" priority")
		}
		if todo.DueDate != nil {
			notes = append(notes, "due "+todo.DueDate.Format("Jan 2"))
		}
		if len(notes) > 0 {
			b.WriteString(" (" + strings.Join(notes, ", ") + ")")
		}
	}
	if len(list.Todos) < list.Total {
		b.WriteString(fmt.Sprintf("\nShowing %d of %d tasks.", len(list.Todos), list.Total))
	}
	return b.String()
}

// lastReferencedTodo walks the history backwards for the most recent task id
// so pronouns like "it" can resolve against it.
func lastReferencedTodo(history []*models.Message) int64 {
	for i := len(history) - 1; i >= 0; i-- {
		params := history[i].Parameters
		if params == nil {
			continue
		}
		switch v := params["todo_id"].(type) {
		case float64:
			if v > 0 {
				return int64(v)
			}
		case int64:
			if v > 0 {
				return v
			}
		}
	}
	return 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

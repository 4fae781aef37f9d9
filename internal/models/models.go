package models

import "time"

// IntentType is the classified purpose of a user message.
type IntentType string

const (
	IntentCreate   IntentType = "create"
	IntentUpdate   IntentType = "update"
	IntentComplete IntentType = "complete"
	IntentDelete   IntentType = "delete"
	IntentList     IntentType = "list"
	IntentHelp     IntentType = "help"
	IntentGreeting IntentType = "greeting"
	IntentUnknown  IntentType = "unknown"
)

// IsAction reports whether the intent maps to one of the five todo tools.
func (t IntentType) IsAction() bool {
	switch t {
	case IntentCreate, IntentUpdate, IntentComplete, IntentDelete, IntentList:
		return true
	}
	return false
}

// Intent is the classifier's output for one user message. It is ephemeral:
// only the chosen type and parameters are attached to the stored Message.
type Intent struct {
	Type                  IntentType     `json:"type"`
	Confidence            float64        `json:"confidence"`
	Parameters            map[string]any `json:"parameters,omitempty"`
	RequiresClarification bool           `json:"requires_clarification"`
	Clarification         string         `json:"clarification,omitempty"`
	Suggestions           []string       `json:"suggestions,omitempty"`
}

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ConversationSession represents one chat lifespan bound to a user.
// Active transitions true->false only; an inactive session is never
// reactivated, only superseded by a new one.
type ConversationSession struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	Active       bool      `json:"active"`
}

// Message is one turn in a session. Immutable once created, append-only.
type Message struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Sender     Sender         `json:"sender"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Intent     IntentType     `json:"intent,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Priority levels for a todo.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Todo mirrors the CRUD backend's record shape.
type Todo struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AuthContext is the caller-supplied identity bundle. The pipeline validates
// it but never issues or refreshes it.
type AuthContext struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token,omitempty"`
}

// ToolResult is the uniform success/failure shape every tool normalizes to.
// Queued means the action could not be delivered and was handed to the
// offline queue for later replay.
type ToolResult struct {
	Success bool   `json:"success"`
	Queued  bool   `json:"queued,omitempty"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ToolInvocation records one executed (or attempted) tool call.
type ToolInvocation struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters,omitempty"`
	UserID     int64          `json:"user_id"`
	Result     ToolResult     `json:"result"`
}

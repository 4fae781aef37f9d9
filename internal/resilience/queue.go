package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActionState tracks a queued action's lifecycle: pending -> sent | failed.
type ActionState string

const (
	StatePending ActionState = "pending"
	StateSent    ActionState = "sent"
	StateFailed  ActionState = "failed"
)

// QueuedAction is a tool invocation that could not be delivered and is held
// for later replay. Held in process memory only.
type QueuedAction struct {
	ID         string         `json:"id"`
	Tool       string         `json:"tool"`
	UserID     int64          `json:"user_id"`
	Params     map[string]any `json:"params,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
	RetryCount int            `json:"retry_count"`
	State      ActionState    `json:"state"`
	LastError  string         `json:"last_error,omitempty"`
}

// ReplayFunc performs one delivery attempt for a queued action.
type ReplayFunc func(ctx context.Context, action *QueuedAction) error

// FailedFunc surfaces an action whose replay budget is exhausted. Failed
// actions are reported, never silently dropped.
type FailedFunc func(action *QueuedAction)

// Queue buffers unsent actions while the backend is unreachable and replays
// them oldest-first on reconnect. It is the only owner of its state; no other
// component mutates it.
type Queue struct {
	mu      sync.Mutex
	pending []*QueuedAction
	failed  []*QueuedAction
	online  bool

	exec     *Executor
	replay   ReplayFunc
	onFailed FailedFunc
	logger   *zap.Logger
	now      func() time.Time
}

func NewQueue(exec *Executor, logger *zap.Logger) *Queue {
	return &Queue{
		online: true,
		exec:   exec,
		logger: logger,
		now:    time.Now,
	}
}

// Bind wires the replay and failure-surfacing callbacks. Called once during
// startup, after the tool registry exists.
func (q *Queue) Bind(replay ReplayFunc, onFailed FailedFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.replay = replay
	q.onFailed = onFailed
}

// Online reports current connectivity as last told to the queue.
func (q *Queue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

// SetOnline flips connectivity. Going offline makes Dispatch enqueue instead
// of attempting delivery; the caller triggers Drain after going online.
func (q *Queue) SetOnline(online bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.online = online
}

// Enqueue buffers an action for later replay.
func (q *Queue) Enqueue(tool string, userID int64, params map[string]any) *QueuedAction {
	action := &QueuedAction{
		ID:         uuid.New().String(),
		Tool:       tool,
		UserID:     userID,
		Params:     params,
		EnqueuedAt: q.now(),
		State:      StatePending,
	}

	q.mu.Lock()
	q.pending = append(q.pending, action)
	q.mu.Unlock()

	q.logger.Info("action queued for replay",
		zap.String("action_id", action.ID),
		zap.String("tool", tool),
		zap.Int64("user_id", userID))
	return action
}

// Pending returns the number of buffered actions.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Failed returns the actions whose replay budget was exhausted.
func (q *Queue) Failed() []*QueuedAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*QueuedAction, len(q.failed))
	copy(out, q.failed)
	return out
}

// Drain replays buffered actions oldest-first. Each action is retried
// independently through the executor; one still failing after its budget is
// marked failed and surfaced through the callback. Draining an empty queue
// is a no-op. Retries for one action never run concurrently: the drain is
// strictly sequential.
func (q *Queue) Drain(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 || q.replay == nil {
			q.mu.Unlock()
			return
		}
		action := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		err := q.exec.Do(ctx, "replay "+action.Tool, func(ctx context.Context) error {
			action.RetryCount++
			return q.replay(ctx, action)
		})
		if err == nil {
			action.State = StateSent
			q.logger.Info("queued action replayed",
				zap.String("action_id", action.ID),
				zap.String("tool", action.Tool))
			continue
		}

		action.State = StateFailed
		action.LastError = err.Error()

		q.mu.Lock()
		q.failed = append(q.failed, action)
		onFailed := q.onFailed
		q.mu.Unlock()

		q.logger.Error("queued action failed permanently",
			zap.String("action_id", action.ID),
			zap.String("tool", action.Tool),
			zap.Error(err))
		if onFailed != nil {
			onFailed(action)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

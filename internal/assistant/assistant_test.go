package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/apperrors"
	"github.com/avelencia/todo-chat/internal/auth"
	"github.com/avelencia/todo-chat/internal/classifier"
	"github.com/avelencia/todo-chat/internal/models"
	"github.com/avelencia/todo-chat/internal/resilience"
	"github.com/avelencia/todo-chat/internal/session"
	"github.com/avelencia/todo-chat/internal/storage"
	"github.com/avelencia/todo-chat/internal/tools"
)

type assistantFixture struct {
	assistant *Assistant
	store     storage.TodoService
	queue     *resilience.Queue
}

// newAssistantFixture wires the whole pipeline against the given backend with
// a millisecond retry budget.
func newAssistantFixture(todos storage.TodoService) *assistantFixture {
	logger := zap.NewNop()

	clf := classifier.NewKeywordClassifier(classifier.DefaultOptions(), logger)
	exec := resilience.NewExecutor(resilience.RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		Multiplier:     2.0,
		MaxBackoff:     4 * time.Millisecond,
		AttemptTimeout: time.Second,
	}, logger)
	queue := resilience.NewQueue(exec, logger)
	registry := tools.NewRegistry(auth.NewGate(logger), todos, exec, queue, logger)
	queue.Bind(registry.Replay, nil)

	sessions := session.NewManager(
		session.NewMemorySessionStore(),
		session.NewMemoryMessageStore(),
		session.DefaultManagerConfig(),
		logger,
	)

	return &assistantFixture{
		assistant: New(clf, registry, sessions, 1000, logger),
		store:     todos,
		queue:     queue,
	}
}

func (f *assistantFixture) send(t *testing.T, sessionID, text string) *Reply {
	t.Helper()
	reply, err := f.assistant.SendMessage(context.Background(),
		sessionID, models.AuthContext{UserID: 1}, text)
	require.NoError(t, err)
	return reply
}

// failingStore returns a transient error for the first failUntil create calls.
type failingStore struct {
	*storage.MemoryStore
	failUntil int
	calls     int
}

func (s *failingStore) CreateTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	s.calls++
	if s.calls <= s.failUntil {
		return nil, &apperrors.StatusError{Code: 503}
	}
	return s.MemoryStore.CreateTodo(ctx, todo)
}

func TestSendMessageCreatesTodoFromFreeText(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	reply := f.send(t, "", "Add a task to buy milk tomorrow at 6pm")

	assert.Equal(t, models.IntentCreate, reply.Intent)
	assert.NotEmpty(t, reply.SessionID)
	assert.Contains(t, reply.Text, `Added "buy milk" as task 1.`)
	require.Len(t, reply.ToolCalls, 1)
	assert.True(t, reply.ToolCalls[0].Result.Success)

	todos, err := f.store.ListTodos(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "buy milk", todos[0].Title)
	require.NotNil(t, todos[0].DueDate)
	assert.True(t, todos[0].DueDate.After(time.Now()))
}

func TestSendMessageGreetingAndHelp(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	greeting := f.send(t, "", "hello")
	assert.Equal(t, models.IntentGreeting, greeting.Intent)
	assert.Contains(t, greeting.Text, "todo assistant")
	assert.Empty(t, greeting.ToolCalls)

	help := f.send(t, greeting.SessionID, "help")
	assert.Equal(t, models.IntentHelp, help.Intent)
	assert.Contains(t, help.Text, "mark task")
}

func TestSendMessageUnknownInput(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	reply := f.send(t, "", "blargh florp")

	assert.Equal(t, models.IntentUnknown, reply.Intent)
	assert.Contains(t, reply.Text, "didn't catch that")
}

func TestSendMessageWhitespaceIsNoOp(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	reply, err := f.assistant.SendMessage(context.Background(),
		"", models.AuthContext{UserID: 1}, "   \t\n")
	require.NoError(t, err)

	assert.Empty(t, reply.Text)
	assert.Empty(t, reply.SessionID)
	assert.Equal(t, models.IntentUnknown, reply.Intent)
}

func TestSendMessageRequiresIdentity(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	reply, err := f.assistant.SendMessage(context.Background(),
		"", models.AuthContext{}, "add buy milk")
	require.NoError(t, err)

	assert.Contains(t, reply.Text, "couldn't verify who you are")

	todos, err := f.store.ListTodos(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestSendMessageAmbiguityAsksInsteadOfActing(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	reply := f.send(t, "", "add buy milk and delete task 2")

	assert.Contains(t, reply.Text, "one thing at a time")
	assert.Contains(t, reply.Text, `For example: "add buy milk" or "delete task 2".`)
	assert.Empty(t, reply.ToolCalls)

	todos, err := f.store.ListTodos(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, todos, "nothing may run until the user clarifies")
}

func TestSendMessagePronounResolvesAcrossTurns(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	first := f.send(t, "", "add buy milk")
	require.Contains(t, first.Text, `Added "buy milk" as task 1.`)

	second := f.send(t, first.SessionID, "mark task 1 as done")
	require.Contains(t, second.Text, "Marked task 1 as done.")

	third := f.send(t, first.SessionID, "delete it")
	assert.Equal(t, models.IntentDelete, third.Intent)
	assert.Contains(t, third.Text, "Deleted task 1.")

	todos, err := f.store.ListTodos(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestSendMessagePronounWithoutContextAsks(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	reply := f.send(t, "", "delete it")

	assert.Contains(t, reply.Text, "Which task are you referring to?")
	assert.Empty(t, reply.ToolCalls)
}

func TestSendMessageQueuesWhileOffline(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())
	f.queue.SetOnline(false)

	reply := f.send(t, "", "add buy milk")

	assert.Contains(t, reply.Text, "saved that action")
	require.Len(t, reply.ToolCalls, 1)
	assert.True(t, reply.ToolCalls[0].Result.Queued)
	assert.Equal(t, 1, f.queue.Pending())

	f.queue.SetOnline(true)
	f.queue.Drain(context.Background())

	todos, err := f.store.ListTodos(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "buy milk", todos[0].Title)
}

func TestSendMessageRetriesTransientFailures(t *testing.T) {
	store := &failingStore{MemoryStore: storage.NewMemoryStore(), failUntil: 3}
	f := newAssistantFixture(store)

	reply := f.send(t, "", "add buy milk")

	// Three transient failures are absorbed by the retry budget; the user
	// only ever sees the final success.
	assert.Contains(t, reply.Text, `Added "buy milk" as task 1.`)
	assert.Equal(t, 4, store.calls)
}

func TestSendMessageListRendering(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	first := f.send(t, "", "add buy milk")
	f.send(t, first.SessionID, "add pay rent")
	f.send(t, first.SessionID, "mark task 1 as done")

	reply := f.send(t, first.SessionID, "show open tasks")

	assert.Equal(t, models.IntentList, reply.Intent)
	assert.Contains(t, reply.Text, "2. [ ] pay rent")
	assert.NotContains(t, reply.Text, "buy milk")
}

func TestSendMessageEmptyList(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	reply := f.send(t, "", "show my tasks")

	assert.Contains(t, reply.Text, "no matching tasks")
}

func TestSendMessageTruncatesLongInput(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())
	f.assistant.maxMessageLen = 12

	reply := f.send(t, "", "add buy milk plus a very long tail that gets cut")

	assert.Contains(t, reply.Text, `Added "buy milk" as task 1.`)
}

func TestTimeline(t *testing.T) {
	f := newAssistantFixture(storage.NewMemoryStore())

	reply := f.send(t, "", "add buy milk")

	sess, msgs, err := f.assistant.Timeline(reply.SessionID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.UserID)

	require.Len(t, msgs, 2)
	assert.Equal(t, models.SenderUser, msgs[0].Sender)
	assert.Equal(t, "add buy milk", msgs[0].Content)
	assert.Equal(t, models.SenderAssistant, msgs[1].Sender)
	assert.Equal(t, reply.Text, msgs[1].Content)

	_, _, err = f.assistant.Timeline("nope", 0)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelencia/todo-chat/internal/models"
)

func TestExtractCreateTitleAndDueDate(t *testing.T) {
	c := testClassifier()

	intent := c.Classify(context.Background(), "Add a task to buy milk tomorrow at 6pm", Context{})

	require.Equal(t, models.IntentCreate, intent.Type)
	assert.Equal(t, "buy milk", intent.Parameters["title"])

	due, ok := intent.Parameters["due_date"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC), due)
}

func TestExtractCreatePriority(t *testing.T) {
	c := testClassifier()

	intent := c.Classify(context.Background(), "add pay rent with high priority", Context{})

	require.Equal(t, models.IntentCreate, intent.Type)
	assert.Equal(t, "pay rent", intent.Parameters["title"])
	assert.Equal(t, models.PriorityHigh, intent.Parameters["priority"])
}

func TestExtractCreateCategory(t *testing.T) {
	c := testClassifier()

	intent := c.Classify(context.Background(), "add buy socks in the shopping category", Context{})

	require.Equal(t, models.IntentCreate, intent.Type)
	assert.Equal(t, "buy socks", intent.Parameters["title"])
	assert.Equal(t, "shopping", intent.Parameters["category"])
}

func TestExtractCreateBareTitle(t *testing.T) {
	c := testClassifier()

	intent := c.Classify(context.Background(), "remind me to water the plants", Context{})

	require.Equal(t, models.IntentCreate, intent.Type)
	assert.Equal(t, "water the plants", intent.Parameters["title"])
	assert.NotContains(t, intent.Parameters, "due_date")
}

func TestExtractUpdateRename(t *testing.T) {
	c := testClassifier()

	intent := c.Classify(context.Background(), "rename task 2 to water the plants", Context{})

	require.Equal(t, models.IntentUpdate, intent.Type)
	assert.Equal(t, float64(2), intent.Parameters["todo_id"])
	assert.Equal(t, "water the plants", intent.Parameters["title"])
}

func TestExtractUpdateReschedule(t *testing.T) {
	c := testClassifier()

	intent := c.Classify(context.Background(), "postpone task 2 to tomorrow", Context{})

	require.Equal(t, models.IntentUpdate, intent.Type)
	assert.Equal(t, float64(2), intent.Parameters["todo_id"])

	due, ok := intent.Parameters["due_date"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 3, 23, 59, 0, 0, time.UTC), due)
	assert.NotContains(t, intent.Parameters, "title")
}

func TestExtractIDForms(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"complete task 7", 7},
		{"complete #7", 7},
		{"complete todo 7", 7},
		{"delete 7", 7},
	}

	c := testClassifier()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			intent := c.Classify(context.Background(), tt.text, Context{})
			assert.Equal(t, tt.want, intent.Parameters["todo_id"])
		})
	}
}

func TestExtractListFilters(t *testing.T) {
	c := testClassifier()

	done := c.Classify(context.Background(), "show my completed tasks", Context{})
	require.Equal(t, models.IntentList, done.Type)
	assert.Equal(t, true, done.Parameters["completed"])

	open := c.Classify(context.Background(), "show open tasks", Context{})
	require.Equal(t, models.IntentList, open.Type)
	assert.Equal(t, false, open.Parameters["completed"])

	plain := c.Classify(context.Background(), "show my tasks", Context{})
	require.Equal(t, models.IntentList, plain.Type)
	assert.Empty(t, plain.Parameters)
}

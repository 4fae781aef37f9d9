package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDueDate(t *testing.T) {
	// Monday morning.
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		text string
		want time.Time
	}{
		{"today", time.Date(2026, time.March, 2, 23, 59, 0, 0, time.UTC)},
		{"tonight", time.Date(2026, time.March, 2, 20, 0, 0, 0, time.UTC)},
		{"tomorrow", time.Date(2026, time.March, 3, 23, 59, 0, 0, time.UTC)},
		{"tomorrow at 6pm", time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC)},
		{"tomorrow at 9:30am", time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC)},
		{"tomorrow at 12am", time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)},
		{"next week", time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC)},
		{"friday", time.Date(2026, time.March, 6, 23, 59, 0, 0, time.UTC)},
		{"next friday", time.Date(2026, time.March, 13, 23, 59, 0, 0, time.UTC)},
		// Today's weekday means next week's occurrence, never today.
		{"monday", time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC)},
		{"in 3 days", time.Date(2026, time.March, 5, 23, 59, 0, 0, time.UTC)},
		{"in 2 weeks", time.Date(2026, time.March, 16, 23, 59, 0, 0, time.UTC)},
		{"2026-04-01", time.Date(2026, time.April, 1, 23, 59, 0, 0, time.UTC)},
		{"by friday at 9am", time.Date(2026, time.March, 6, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			due, _, _, ok := ParseDueDate(tt.text, now)
			require.True(t, ok)
			assert.Equal(t, tt.want, due)
		})
	}
}

func TestParseDueDateSpan(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	text := "pay rent by friday"
	_, start, end, ok := ParseDueDate(text, now)
	require.True(t, ok)
	assert.Equal(t, "by friday", text[start:end])

	text = "buy milk tomorrow at 6pm and eggs"
	_, start, end, ok = ParseDueDate(text, now)
	require.True(t, ok)
	assert.Equal(t, "tomorrow at 6pm", text[start:end])
}

func TestParseDueDateNoMatch(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	for _, text := range []string{"", "buy milk", "whenever you can", "at 6pm"} {
		_, _, _, ok := ParseDueDate(text, now)
		assert.False(t, ok, "text: %q", text)
	}
}

func TestParseDueDateRejectsImpossibleTimes(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	_, _, _, ok := ParseDueDate("tomorrow at 26", now)
	assert.False(t, ok)
}

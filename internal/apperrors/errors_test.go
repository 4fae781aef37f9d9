package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", &ValidationError{Field: "title", Reason: "The title cannot be empty."},
			"The title cannot be empty."},
		{"auth", &AuthError{Reason: "credential expired"},
			"I couldn't verify who you are. Please sign in again."},
		{"not found", &NotFoundError{Resource: "todo", ID: 7},
			"I couldn't find task 7 in your list."},
		{"transient status", &StatusError{Code: 503},
			"The todo service is having trouble right now. Please try again in a moment."},
		{"client status", &StatusError{Code: 409},
			"The todo service rejected that request."},
		{"permanent", &PermanentError{Reason: "I don't know how to do that yet."},
			"I don't know how to do that yet."},
		{"unclassified", errors.New("boom"),
			"Something went wrong while handling that. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Humanize(tt.err))
		})
	}
}

func TestHumanizeUnwrapsCause(t *testing.T) {
	wrapped := fmt.Errorf("create: retries exhausted after 4 attempts: %w",
		&StatusError{Code: 503})

	assert.Equal(t,
		"The todo service is having trouble right now. Please try again in a moment.",
		Humanize(wrapped))
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "validation: title: is required",
		(&ValidationError{Field: "title", Reason: "is required"}).Error())
	assert.Equal(t, "validation: nothing to change",
		(&ValidationError{Reason: "nothing to change"}).Error())
	assert.Equal(t, "auth: malformed credential",
		(&AuthError{Reason: "malformed credential"}).Error())
	assert.Equal(t, "todo 7 not found",
		(&NotFoundError{Resource: "todo", ID: 7}).Error())
	assert.Equal(t, "backend returned status 503",
		(&StatusError{Code: 503}).Error())
	assert.Equal(t, "backend returned status 503: unavailable",
		(&StatusError{Code: 503, Message: "unavailable"}).Error())
}

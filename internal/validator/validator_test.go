package validator

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiredField(t *testing.T) {
	schema := Schema{
		"title": {Type: TypeString, Required: true, MinLength: 1},
	}

	res := Validate(map[string]any{}, schema)

	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "title", res.Errors[0].Path)
	assert.Contains(t, res.Errors[0].Message, "required")
	assert.Nil(t, res.Sanitized)
}

func TestValidateAccumulatesErrors(t *testing.T) {
	schema := Schema{
		"title":    {Type: TypeString, Required: true},
		"priority": {Type: TypeEnum, Enum: []string{"low", "medium", "high"}},
		"count":    {Type: TypeNumber, Min: Float64Ptr(1)},
	}

	res := Validate(map[string]any{
		"priority": "urgent",
		"count":    0.0,
	}, schema)

	require.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
	assert.Nil(t, res.Sanitized, "sanitized output is all-or-nothing")
}

func TestValidateDropsUnknownFields(t *testing.T) {
	schema := Schema{
		"title": {Type: TypeString, Required: true},
	}

	res := Validate(map[string]any{
		"title":  "buy milk",
		"rogue":  "value",
		"extra2": 42,
	}, schema)

	require.True(t, res.Valid)
	assert.Equal(t, map[string]any{"title": "buy milk"}, res.Sanitized)
}

func TestValidateCoercion(t *testing.T) {
	schema := Schema{
		"count":     {Type: TypeNumber},
		"completed": {Type: TypeBoolean},
		"due":       {Type: TypeDate},
	}

	res := Validate(map[string]any{
		"count":     "5",
		"completed": "yes",
		"due":       "2026-03-02",
	}, schema)

	require.True(t, res.Valid)
	assert.Equal(t, 5.0, res.Sanitized["count"])
	assert.Equal(t, true, res.Sanitized["completed"])
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), res.Sanitized["due"])
}

func TestValidateCoercionFailures(t *testing.T) {
	schema := Schema{
		"count":     {Type: TypeNumber},
		"completed": {Type: TypeBoolean},
		"due":       {Type: TypeDate},
	}

	res := Validate(map[string]any{
		"count":     "several",
		"completed": "perhaps",
		"due":       "someday",
	}, schema)

	require.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
}

func TestValidateNumberBounds(t *testing.T) {
	schema := Schema{
		"limit": {Type: TypeNumber, Min: Float64Ptr(1), Max: Float64Ptr(100)},
	}

	ok := Validate(map[string]any{"limit": 50.0}, schema)
	assert.True(t, ok.Valid)

	low := Validate(map[string]any{"limit": 0.0}, schema)
	assert.False(t, low.Valid)

	high := Validate(map[string]any{"limit": 101.0}, schema)
	assert.False(t, high.Valid)
}

func TestValidateStringSanitizesBeforeBounds(t *testing.T) {
	schema := Schema{
		"title": {Type: TypeString, MinLength: 1, MaxLength: 10},
	}

	// The raw value is far over the limit; the cleaned value is not.
	res := Validate(map[string]any{
		"title": "<script>alert('x')</script>hello",
	}, schema)

	require.True(t, res.Valid)
	assert.Equal(t, "hello", res.Sanitized["title"])
}

func TestValidateStringPattern(t *testing.T) {
	schema := Schema{
		"due": {Type: TypeString, Pattern: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)},
	}

	assert.True(t, Validate(map[string]any{"due": "2026-03-02"}, schema).Valid)
	assert.False(t, Validate(map[string]any{"due": "March 2nd"}, schema).Valid)
}

func TestValidateEnumNormalizes(t *testing.T) {
	schema := Schema{
		"priority": {Type: TypeEnum, Enum: []string{"low", "medium", "high"}},
	}

	res := Validate(map[string]any{"priority": "  HIGH "}, schema)

	require.True(t, res.Valid)
	assert.Equal(t, "high", res.Sanitized["priority"])
}

func TestValidateNestedPaths(t *testing.T) {
	schema := Schema{
		"tags": {Type: TypeArray, Items: &Field{Type: TypeString, MinLength: 2}},
		"meta": {Type: TypeObject, Props: Schema{
			"name": {Type: TypeString, Required: true},
		}},
	}

	res := Validate(map[string]any{
		"tags": []any{"ok", "x"},
		"meta": map[string]any{},
	}, schema)

	require.False(t, res.Valid)
	paths := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "tags[1]")
	assert.Contains(t, paths, "meta.name")
}

func TestResultMessages(t *testing.T) {
	res := Result{Errors: []FieldError{
		{Path: "title", Message: "is required"},
		{Path: "limit", Message: "must be at least 1"},
	}}

	assert.Equal(t, "title: is required; limit: must be at least 1", res.Messages())
}

func TestAsID(t *testing.T) {
	id, ok := AsID(3.0)
	require.True(t, ok)
	assert.Equal(t, int64(3), id)

	for _, v := range []any{0.0, -1.0, 2.5, "3", nil} {
		_, ok := AsID(v)
		assert.False(t, ok, "value: %v", v)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<script>alert(1)</script>hi", "hi"},
		{`<img src=x onerror="alert(1)">`, "<img src=x >"},
		{"click javascript:alert(1)", "click alert(1)"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "input: %q", tt.in)
	}
}

// Package validator schema-checks and sanitizes raw tool arguments. Errors
// accumulate per field instead of failing fast, and sanitized output is
// all-or-nothing: it is only produced when no field has an error.
package validator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldType enumerates the supported schema field types.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
	TypeDate    FieldType = "date"
	TypeEnum    FieldType = "enum"
)

// Field declares the constraints for one schema field.
type Field struct {
	Type      FieldType
	Required  bool
	MinLength int
	MaxLength int
	Min       *float64
	Max       *float64
	Pattern   *regexp.Regexp
	Enum      []string
	Items     *Field // element schema for TypeArray
	Props     Schema // sub-schema for TypeObject
}

// Schema maps field names to their declarations.
type Schema map[string]*Field

// FieldError is one validation failure, labeled with a dotted/bracketed path
// so nested errors stay traceable.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Result is the outcome of validating one parameter set.
type Result struct {
	Valid     bool
	Errors    []FieldError
	Sanitized map[string]any
}

// Messages joins all field errors into one human-readable line.
func (r Result) Messages() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, "; ")
}

// Validate checks params against schema. Fields absent from the schema are
// dropped from the sanitized output rather than rejected.
func Validate(params map[string]any, schema Schema) Result {
	var errs []FieldError
	sanitized := make(map[string]any, len(schema))

	for name, field := range schema {
		value, present := params[name]
		if !present || value == nil {
			if field.Required {
				errs = append(errs, FieldError{Path: name, Message: "is required"})
			}
			continue
		}

		clean, fieldErrs := validateValue(name, value, field)
		if len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			continue
		}
		sanitized[name] = clean
	}

	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}
	return Result{Valid: true, Sanitized: sanitized}
}

func validateValue(path string, value any, field *Field) (any, []FieldError) {
	switch field.Type {
	case TypeString:
		return validateString(path, value, field)
	case TypeNumber:
		return validateNumber(path, value, field)
	case TypeBoolean:
		return validateBoolean(path, value)
	case TypeDate:
		return validateDate(path, value)
	case TypeEnum:
		return validateEnum(path, value, field)
	case TypeArray:
		return validateArray(path, value, field)
	case TypeObject:
		return validateObject(path, value, field)
	default:
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("unsupported field type %q", field.Type)}}
	}
}

// validateString sanitizes before bounds checks so length limits apply to the
// cleaned value.
func validateString(path string, value any, field *Field) (any, []FieldError) {
	s, ok := value.(string)
	if !ok {
		return nil, []FieldError{{Path: path, Message: "must be a string"}}
	}

	s = Sanitize(s)

	if field.MinLength > 0 && len(s) < field.MinLength {
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("must be at least %d characters", field.MinLength)}}
	}
	if field.MaxLength > 0 && len(s) > field.MaxLength {
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("must be at most %d characters", field.MaxLength)}}
	}
	if field.Pattern != nil && !field.Pattern.MatchString(s) {
		return nil, []FieldError{{Path: path, Message: "has an invalid format"}}
	}
	return s, nil
}

func validateNumber(path string, value any, field *Field) (any, []FieldError) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, []FieldError{{Path: path, Message: "must be a number"}}
		}
		n = parsed
	default:
		return nil, []FieldError{{Path: path, Message: "must be a number"}}
	}

	if field.Min != nil && n < *field.Min {
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("must be at least %v", *field.Min)}}
	}
	if field.Max != nil && n > *field.Max {
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("must be at most %v", *field.Max)}}
	}
	return n, nil
}

func validateBoolean(path string, value any) (any, []FieldError) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("cannot interpret %q as a boolean", v)}}
	default:
		return nil, []FieldError{{Path: path, Message: "must be a boolean"}}
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

func validateDate(path string, value any) (any, []FieldError) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return nil, []FieldError{{Path: path, Message: "must be a date"}}
		}
		return *v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("cannot interpret %q as a date", v)}}
	default:
		return nil, []FieldError{{Path: path, Message: "must be a date"}}
	}
}

func validateEnum(path string, value any, field *Field) (any, []FieldError) {
	s, ok := value.(string)
	if !ok {
		return nil, []FieldError{{Path: path, Message: "must be a string"}}
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, allowed := range field.Enum {
		if s == allowed {
			return s, nil
		}
	}
	return nil, []FieldError{{Path: path, Message: fmt.Sprintf("must be one of %s", strings.Join(field.Enum, ", "))}}
}

func validateArray(path string, value any, field *Field) (any, []FieldError) {
	items, ok := value.([]any)
	if !ok {
		return nil, []FieldError{{Path: path, Message: "must be an array"}}
	}

	var errs []FieldError
	clean := make([]any, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if field.Items == nil {
			clean = append(clean, item)
			continue
		}
		c, itemErrs := validateValue(itemPath, item, field.Items)
		if len(itemErrs) > 0 {
			errs = append(errs, itemErrs...)
			continue
		}
		clean = append(clean, c)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return clean, nil
}

func validateObject(path string, value any, field *Field) (any, []FieldError) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, []FieldError{{Path: path, Message: "must be an object"}}
	}

	var errs []FieldError
	clean := make(map[string]any, len(field.Props))
	for name, sub := range field.Props {
		subPath := path + "." + name
		v, present := obj[name]
		if !present || v == nil {
			if sub.Required {
				errs = append(errs, FieldError{Path: subPath, Message: "is required"})
			}
			continue
		}
		c, subErrs := validateValue(subPath, v, sub)
		if len(subErrs) > 0 {
			errs = append(errs, subErrs...)
			continue
		}
		clean[name] = c
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return clean, nil
}

// AsID converts a validated number to a positive integer identifier.
func AsID(value any) (int64, bool) {
	n, ok := value.(float64)
	if !ok {
		return 0, false
	}
	if n <= 0 || n != math.Trunc(n) {
		return 0, false
	}
	return int64(n), true
}

// Float64Ptr is a shorthand for declaring Min/Max bounds.
func Float64Ptr(v float64) *float64 { return &v }

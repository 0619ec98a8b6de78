// Package forms evaluates field-level validation rules for form-driven
// views. Every dialog runs its rules locally before any network call.
package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrValidation marks a failed local validation pass.
var ErrValidation = errors.New("validation failed")

// Rule pairs a predicate with the message shown when it fails.
type Rule struct {
	Check   func(value string) bool
	Message string
}

// Field binds a named form value to its rules.
type Field struct {
	Name  string
	Value string
	Rules []Rule
}

// FieldError reports the first failed rule for a field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates per-field failures.
type ValidationError struct {
	Fields []FieldError
}

// Error returns the joined field messages.
func (validationError *ValidationError) Error() string {
	messages := make([]string, 0, len(validationError.Fields))
	for _, fieldError := range validationError.Fields {
		messages = append(messages, fmt.Sprintf("%s: %s", fieldError.Field, fieldError.Message))
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(messages, "; "))
}

// Unwrap lets errors.Is match ErrValidation.
func (validationError *ValidationError) Unwrap() error {
	return ErrValidation
}

// MessageFor returns the failure message for a field, or empty.
func (validationError *ValidationError) MessageFor(fieldName string) string {
	for _, fieldError := range validationError.Fields {
		if fieldError.Field == fieldName {
			return fieldError.Message
		}
	}
	return ""
}

// Validate runs every field's rules in order and collects the first
// failure per field. A nil return means the form may be submitted.
func Validate(fields ...Field) error {
	var failures []FieldError
	for _, field := range fields {
		for _, rule := range field.Rules {
			if rule.Check != nil && !rule.Check(field.Value) {
				failures = append(failures, FieldError{Field: field.Name, Message: rule.Message})
				break
			}
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &ValidationError{Fields: failures}
}

// NonEmpty fails on blank values.
func NonEmpty(message string) Rule {
	return Rule{
		Check: func(value string) bool {
			return strings.TrimSpace(value) != ""
		},
		Message: message,
	}
}

// PositiveNumber fails unless the value parses as a number strictly
// greater than zero.
func PositiveNumber(message string) Rule {
	return Rule{
		Check: func(value string) bool {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			return err == nil && parsed > 0
		},
		Message: message,
	}
}

// Matches fails unless the value equals other exactly.
func Matches(other string, message string) Rule {
	return Rule{
		Check: func(value string) bool {
			return value == other
		},
		Message: message,
	}
}

// Alphanumeric fails on whitespace, punctuation, or an empty value.
func Alphanumeric(message string) Rule {
	return Rule{
		Check: func(value string) bool {
			if value == "" {
				return false
			}
			for _, character := range value {
				isDigit := character >= '0' && character <= '9'
				isLower := character >= 'a' && character <= 'z'
				isUpper := character >= 'A' && character <= 'Z'
				if !isDigit && !isLower && !isUpper {
					return false
				}
			}
			return true
		},
		Message: message,
	}
}

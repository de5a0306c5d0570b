// Package apperr defines the error taxonomy the handlers translate into
// HTTP status codes. Services return these; nothing is retried internally.
package apperr

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries messages keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

// Validation builds a single-field validation error.
func Validation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// PermissionError means the caller is authenticated but not allowed to act
// on this resource (typically a non-owner mutation).
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string {
	if e.Msg == "" {
		return "permission denied"
	}
	return e.Msg
}

func Permission(msg string) *PermissionError {
	return &PermissionError{Msg: msg}
}

// AuthenticationError means credentials are missing or invalid.
type AuthenticationError struct {
	Msg string
}

func (e *AuthenticationError) Error() string {
	if e.Msg == "" {
		return "authentication required"
	}
	return e.Msg
}

func Authentication(msg string) *AuthenticationError {
	return &AuthenticationError{Msg: msg}
}

// NotFoundError means a referenced entity id did not resolve. A filter that
// matches nothing is not a NotFoundError.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return e.Resource + " not found"
}

func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// ConflictError means the request contradicts current state, e.g. publishing
// an already-published post.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	if e.Msg == "" {
		return "conflict"
	}
	return e.Msg
}

func Conflict(msg string) *ConflictError {
	return &ConflictError{Msg: msg}
}

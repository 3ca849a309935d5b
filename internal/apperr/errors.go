// Package apperr holds the error kinds shared by the intake pipeline and its HTTP surface.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrMailNotConfigured = errors.New("mail transport not configured")
)

// ValidationError lists the rejected fields of a submission, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
	Lang   string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Message is the client-facing text, in the submission's language.
func (e *ValidationError) Message() string {
	if e.Lang == "en" {
		return "Missing or invalid required fields"
	}
	return "Champs obligatoires manquants ou invalides"
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Write reports whether the failed operation was storing a submission rather than reading records.
func (e *PersistenceError) Write() bool { return e.Op == "insert" || e.Op == "reconcile" }

type RenderError struct {
	ClientID string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render document %s: %v", e.ClientID, e.Err)
}
func (e *RenderError) Unwrap() error { return e.Err }

type NotificationError struct {
	ClientID string
	Err      error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.ClientID, e.Err)
}
func (e *NotificationError) Unwrap() error { return e.Err }

package audit

import (
	"fmt"
	"time"
)

// Result represents the outcome of an audited action
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultError   Result = "error"
)

// Event represents a single audit log entry. Metadata must never contain raw
// one-time codes or secrets; callers record only redacted facts (method,
// counts, reasons).
type Event struct {
	ID        string         `json:"id" bson:"id"`
	UserID    string         `json:"user_id" bson:"user_id"`
	Action    string         `json:"action" bson:"action"`
	Result    Result         `json:"result" bson:"result"`
	Error     string         `json:"error,omitempty" bson:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
// Used with Log and LogError methods to add metadata, override results, etc.
type EventOption func(*Event)

// WithMetadata adds a metadata entry to the event
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithResult overrides the event result
func WithResult(result Result) EventOption {
	return func(e *Event) {
		e.Result = result
	}
}

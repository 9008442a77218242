package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// Logger records security-relevant operations against a Storage backend.
type Logger struct {
	storage Storage
}

// NewLogger creates a new audit logger
func NewLogger(storage Storage) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	return &Logger{storage: storage}
}

// Log records a successful action for the given user
func (l *Logger) Log(ctx context.Context, userID, action string, opts ...EventOption) error {
	event := Event{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Result:    ResultSuccess,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	return l.storage.Store(ctx, event)
}

// LogError records a failed action for the given user
func (l *Logger) LogError(ctx context.Context, userID, action string, err error, opts ...EventOption) error {
	event := Event{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Result:    ResultFailure,
		CreatedAt: time.Now(),
	}
	if err != nil {
		event.Error = err.Error()
	}

	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	return l.storage.Store(ctx, event)
}

package audit

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/mfakit/pkg/logger"
)

// SlogStorage writes audit events to a structured logger. It is the default
// sink for deployments without a dedicated audit database; log aggregation
// then takes care of retention and search.
type SlogStorage struct {
	log *slog.Logger
}

// NewSlogStorage creates a storage that emits events via log.
func NewSlogStorage(log *slog.Logger) *SlogStorage {
	if log == nil {
		log = slog.Default()
	}
	return &SlogStorage{log: log}
}

// Store implements Storage.
func (s *SlogStorage) Store(ctx context.Context, event Event) error {
	attrs := []any{
		slog.String("audit_id", event.ID),
		logger.UserID(event.UserID),
		logger.Action(event.Action),
		slog.String("result", string(event.Result)),
		slog.Time("created_at", event.CreatedAt),
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", event.Metadata))
	}

	level := slog.LevelInfo
	if event.Result != ResultSuccess {
		level = slog.LevelWarn
	}
	s.log.Log(ctx, level, "audit event", attrs...)
	return nil
}

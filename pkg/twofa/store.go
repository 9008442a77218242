package twofa

import "context"

// Store is the external user-record collaborator. Each call is treated as
// atomic; the engine sequences multi-step commits (confirm enrollment writes
// the record before deleting the pending setup, so crash recovery can treat
// "record enabled + dangling pending" as an already completed enrollment).
//
// Absence is not an error: Get and GetPending return (nil, nil) for unknown
// users so the engine can distinguish "no state" from backend failure.
type Store interface {
	// Get loads the user's security record.
	Get(ctx context.Context, userID string) (*UserSecurityRecord, error)

	// Put persists the user's security record, replacing any previous one.
	Put(ctx context.Context, userID string, record UserSecurityRecord) error

	// GetPending loads the user's pending setup.
	GetPending(ctx context.Context, userID string) (*PendingSetup, error)

	// PutPending persists a pending setup keyed by its UserID.
	PutPending(ctx context.Context, pending PendingSetup) error

	// DeletePending removes the user's pending setup. Deleting a missing
	// pending setup is not an error.
	DeletePending(ctx context.Context, userID string) error
}

package replayguard

import "context"

// Guard records one-time codes that have been accepted so a captured code
// cannot be replayed within the reuse window.
type Guard interface {
	// RecordIfFresh reports whether key has not been accepted within the
	// reuse window, recording it if so. A false result means replay: the
	// original acceptance timestamp is left untouched.
	RecordIfFresh(ctx context.Context, key string) (bool, error)
}

package attempts

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultMaxFailures is the number of failed code submissions tolerated
	// per key before the limiter locks the key out.
	DefaultMaxFailures = 5
	// DefaultCooldown is how long a lockout lasts after the first failure.
	DefaultCooldown = time.Minute
)

// ErrTooManyAttempts indicates the key is locked out.
var ErrTooManyAttempts = errors.New("too many failed attempts")

// Limiter throttles failed one-time-code submissions per key to slow down
// brute-force guessing of the code space.
type Limiter interface {
	// Check returns ErrTooManyAttempts when the key is locked out.
	Check(ctx context.Context, key string) error

	// RecordFailure increments the failure count. It returns
	// ErrTooManyAttempts when the failure crossed the lockout threshold.
	RecordFailure(ctx context.Context, key string) error

	// Reset clears the failure count, typically after a successful
	// verification.
	Reset(ctx context.Context, key string) error
}

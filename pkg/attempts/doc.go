// Package attempts throttles failed one-time-code submissions per key.
//
// A 6-digit code space is small enough that an online attacker who can submit
// codes freely will eventually guess one. The limiter caps how many wrong
// codes a key (typically a user id) may submit within a cooldown window and
// locks the key out once the cap is crossed.
//
// # Architecture
//
//   • MemoryLimiter – mutex-guarded map of failure counters with a background
//     sweep for stale entries; single-process deployments. Release the
//     sweeper with Close.
//
//   • RedisLimiter – INCR with a TTL set on the first failure, for sharing
//     one failure budget across processes.
//
// # Usage
//
//	limiter := attempts.NewMemoryLimiter()
//	defer limiter.Close()
//
//	if err := limiter.Check(ctx, userID); err != nil {
//		// locked out
//	}
//	// ... on wrong code:
//	_ = limiter.RecordFailure(ctx, userID)
//	// ... on success:
//	_ = limiter.Reset(ctx, userID)
//
// # Error Handling
//
// ErrTooManyAttempts signals lockout from both Check and RecordFailure.
// RedisLimiter wraps transport problems with ErrLimiterUnavailable.
package attempts

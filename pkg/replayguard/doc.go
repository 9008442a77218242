// Package replayguard prevents one-time codes from being accepted twice
// within a configurable reuse window.
//
// A time-based code stays mathematically valid for its whole step (plus the
// verifier's drift tolerance), so an attacker who captures a code in transit
// could replay it. The guard closes that gap: once a code is accepted it is
// remembered until the reuse window passes.
//
// # Architecture
//
// The Guard interface has two implementations.
//
//   • MemoryGuard – a mutex-guarded map from key to acceptance time with a
//     ticker-driven background sweep that evicts expired entries to bound
//     memory. Suited to single-process deployments; the sweeper is released
//     with Close.
//
//   • RedisGuard – the same contract on Redis SET NX with a key TTL, for
//     deployments where several processes must share one replay window.
//
// Callers choose the key. Using the bare code string rejects a numerically
// identical code no matter which secret produced it; prefixing with a user id
// tightens the guard to per-user isolation.
//
// # Usage
//
//	guard := replayguard.NewMemoryGuard(
//		replayguard.WithReuseWindow(time.Minute),
//	)
//	defer guard.Close()
//
//	fresh, err := guard.RecordIfFresh(ctx, userID+":"+code)
//	if err != nil || !fresh {
//		// reject as replay
//	}
//
// # Error Handling
//
// MemoryGuard never fails. RedisGuard wraps transport errors with
// ErrGuardUnavailable; callers decide whether to fail closed or open.
package replayguard

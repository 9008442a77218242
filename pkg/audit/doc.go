// Package audit records security-relevant operations (enrollments, code
// verifications, disables) as structured events.
//
// The package follows fire-and-forget semantics: an audit failure must never
// turn into an authentication failure. Callers log events and ignore the
// returned error for the security decision itself.
//
// # Architecture
//
//   • Logger – assigns IDs/timestamps, validates events and hands them to a
//     Storage backend.
//
//   • SlogStorage – emits events through log/slog for deployments that rely
//     on log aggregation.
//
//   • MongoStorage – persists events in a MongoDB collection, with batch
//     inserts for the async path.
//
//   • AsyncStorage – buffered decorator that decouples callers from storage
//     latency; full buffers drop the event rather than block.
//
// # Usage
//
//	storage := audit.NewAsyncStorage(
//		audit.NewMongoStorage(db, "audit_events"), 1000, log)
//	defer storage.Close(ctx)
//
//	logger := audit.NewLogger(storage)
//	_ = logger.Log(ctx, userID, "2fa.login.verify",
//		audit.WithMetadata("method", "totp"))
//
// # Error Handling
//
// Events failing validation return ErrEventValidation. Backend trouble
// surfaces as ErrStorageNotAvailable, a full async buffer as ErrBufferFull.
// Raw one-time codes and secrets must never appear in events.
package audit

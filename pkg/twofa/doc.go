// Package twofa orchestrates TOTP-based second-factor authentication: a
// bounded two-phase enrollment flow, replay-guarded login verification with
// backup-code fallback, and a verified disable path.
//
// # Architecture
//
// The Engine composes the cryptographic core (pkg/totp) with injected
// collaborators:
//
//   • Store – the external user-record collaborator holding
//     UserSecurityRecord and PendingSetup per user. MemoryStore (tests,
//     single node) and MongoStore implementations ship with the package.
//
//   • audit.Logger – fire-and-forget audit sink; its failures never fail a
//     security decision and raw codes are never logged.
//
//   • replayguard.Guard – rejects reuse of an accepted code within the reuse
//     window, keyed per user.
//
//   • attempts.Limiter – locks a user out after repeated wrong codes.
//
// Enrollment walks NoPendingSetup → PendingSetup → {Committed, Expired,
// Abandoned}. BeginEnrollment stores a pending secret with a 10-minute TTL
// and returns the otpauth URI; ConfirmEnrollment verifies a first code,
// commits the record with ten single-use backup codes, and returns those
// codes exactly once. The record is committed before the pending setup is
// deleted, so a crash between the two resolves to "already enabled" rather
// than a re-confirmable dangling setup.
//
// # Usage
//
//	log := logger.New(logger.WithProduction("auth-service"))
//
//	cfg, err := totp.LoadConfig()
//	if err != nil {
//		// missing TOTP_ENCRYPTION_KEY, do not serve
//	}
//
//	engine, err := twofa.New(twofa.NewMemoryStore(),
//		twofa.WithTOTPConfig(cfg),
//		twofa.WithLogger(log),
//	)
//	if err != nil {
//		// crypto self-test failed, do not serve
//	}
//	defer engine.Close()
//
//	setup, _ := engine.BeginEnrollment(ctx, userID, "alice@example.com", "ACME")
//	// show setup.URI as a QR code plus setup.ManualEntryKey
//
//	codes, _ := engine.ConfirmEnrollment(ctx, userID, firstCode)
//	// show codes once, they are not retrievable again
//
//	result, err := engine.VerifyLogin(ctx, userID, submittedCode)
//
// # Error Handling
//
// State preconditions surface as ErrAlreadyEnabled, ErrSetupInProgress,
// ErrSetupNotFound, ErrNotEnabled; ErrSetupExpired is terminal for an
// enrollment attempt; ErrInvalidCode is retryable; ErrReplayDetected is a
// verification failure logged distinctly for monitoring. Store failures
// propagate unchanged.
package twofa

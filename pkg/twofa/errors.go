package twofa

import "errors"

var (
	// ErrAlreadyEnabled indicates 2FA is already committed for the user.
	ErrAlreadyEnabled = errors.New("two-factor authentication already enabled")

	// ErrSetupInProgress indicates an unexpired PendingSetup already exists.
	ErrSetupInProgress = errors.New("two-factor setup already in progress")

	// ErrSetupNotFound indicates no PendingSetup exists for the user.
	ErrSetupNotFound = errors.New("two-factor setup not found")

	// ErrSetupExpired indicates the PendingSetup passed its TTL; the caller
	// must restart enrollment.
	ErrSetupExpired = errors.New("two-factor setup expired")

	// ErrNotEnabled indicates the user has no committed 2FA secret.
	ErrNotEnabled = errors.New("two-factor authentication not enabled")

	// ErrInvalidCode indicates the code matched neither the TOTP window nor a
	// backup code. Recoverable: the caller may retry.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrReplayDetected indicates a previously accepted code was submitted
	// again within the reuse window. Logged distinctly for monitoring.
	ErrReplayDetected = errors.New("verification code replay detected")

	// ErrCryptoUnavailable indicates the HMAC primitive failed its startup
	// self-test. Fatal: the engine refuses to construct.
	ErrCryptoUnavailable = errors.New("crypto self-test failed, refusing to start")

	// ErrUnknownMethod indicates an unrecognized verification method name.
	ErrUnknownMethod = errors.New("unknown verification method")

	// ErrUserIDRequired indicates an empty user id argument.
	ErrUserIDRequired = errors.New("user id is required")
)

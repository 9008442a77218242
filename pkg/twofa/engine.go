package twofa

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/attempts"
	"github.com/dmitrymomot/mfakit/pkg/audit"
	"github.com/dmitrymomot/mfakit/pkg/logger"
	"github.com/dmitrymomot/mfakit/pkg/replayguard"
	"github.com/dmitrymomot/mfakit/pkg/totp"
)

// DefaultSetupTTL is how long a pending enrollment stays confirmable.
const DefaultSetupTTL = 10 * time.Minute

const (
	actionEnrollBegin    = "2fa.enroll.begin"
	actionEnrollConfirm  = "2fa.enroll.confirm"
	actionEnrollAbandon  = "2fa.enroll.abandon"
	actionLoginVerify    = "2fa.login.verify"
	actionDisable        = "2fa.disable"
	actionReplayDetected = "2fa.replay_detected"
)

// Engine orchestrates the two-phase enrollment flow and the login/disable
// verifiers. All collaborators are injected at construction; the engine keeps
// no global state. Construction runs the HMAC self-test and fails with
// ErrCryptoUnavailable if the primitive misbehaves.
//
// The engine is safe for concurrent use across users: per-operation state is
// either pure or keyed by user id, and the shared replay guard / attempt
// limiter synchronize internally.
type Engine struct {
	store   Store
	auditor *audit.Logger
	guard   replayguard.Guard
	limiter attempts.Limiter
	cipher  *totp.SecretCipher
	clock   Clock
	log     *slog.Logger

	setupTTL time.Duration
	skew     int
	skewSet  bool
	issuer   string

	totpCfg *totp.Config

	closers []func()
}

// Option configures the Engine.
type Option func(*Engine)

// WithAuditLogger sets the audit sink. Defaults to a slog-backed sink.
func WithAuditLogger(l *audit.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.auditor = l
		}
	}
}

// WithReplayGuard replaces the owned in-memory guard, e.g. with a Redis-backed
// one. The caller owns the injected guard's lifecycle.
func WithReplayGuard(g replayguard.Guard) Option {
	return func(e *Engine) {
		if g != nil {
			e.guard = g
		}
	}
}

// WithAttemptLimiter replaces the owned in-memory limiter. The caller owns the
// injected limiter's lifecycle.
func WithAttemptLimiter(l attempts.Limiter) Option {
	return func(e *Engine) {
		if l != nil {
			e.limiter = l
		}
	}
}

// WithSecretCipher enables AES-256-GCM encryption of secrets at rest.
func WithSecretCipher(c *totp.SecretCipher) Option {
	return func(e *Engine) {
		e.cipher = c
	}
}

// WithTOTPConfig applies environment-driven settings in one step: the secret
// cipher built from cfg.EncryptionKey, the accepted clock skew, and the
// default issuer used when BeginEnrollment is called without one. Explicit
// WithSecretCipher / WithSkew options take precedence regardless of order.
func WithTOTPConfig(cfg totp.Config) Option {
	return func(e *Engine) {
		e.totpCfg = &cfg
	}
}

// WithClock overrides the clock, letting tests control window arithmetic and
// setup expiry.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the structured logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSetupTTL sets how long a pending enrollment stays confirmable.
func WithSetupTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.setupTTL = ttl
		}
	}
}

// WithSkew sets the accepted clock drift in periods on each side.
func WithSkew(skew int) Option {
	return func(e *Engine) {
		if skew >= 0 {
			e.skew = skew
			e.skewSet = true
		}
	}
}

// New creates an Engine around the given store. When no replay guard or
// attempt limiter is injected, in-memory ones are created and owned by the
// engine; Close releases them.
func New(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		panic("twofa: store cannot be nil")
	}

	if err := totp.SelfTest(); err != nil {
		return nil, errors.Join(ErrCryptoUnavailable, err)
	}

	e := &Engine{
		store:    store,
		clock:    systemClock{},
		log:      slog.Default(),
		setupTTL: DefaultSetupTTL,
		skew:     totp.DefaultSkew,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.totpCfg != nil {
		if e.cipher == nil {
			cipher, err := totp.NewSecretCipherFromConfig(*e.totpCfg)
			if err != nil {
				return nil, err
			}
			e.cipher = cipher
		}
		if !e.skewSet && e.totpCfg.Skew >= 0 {
			e.skew = e.totpCfg.Skew
		}
		if e.issuer == "" {
			e.issuer = e.totpCfg.Issuer
		}
	}

	if e.auditor == nil {
		e.auditor = audit.NewLogger(audit.NewSlogStorage(e.log))
	}
	if e.guard == nil {
		guard := replayguard.NewMemoryGuard()
		e.guard = guard
		e.closers = append(e.closers, guard.Close)
	}
	if e.limiter == nil {
		limiter := attempts.NewMemoryLimiter()
		e.limiter = limiter
		e.closers = append(e.closers, limiter.Close)
	}

	return e, nil
}

// Close releases resources owned by the engine (background sweepers of the
// default guard and limiter). Injected collaborators are left untouched.
func (e *Engine) Close() {
	for _, closeFn := range e.closers {
		closeFn()
	}
}

// BeginEnrollment starts the two-phase enable flow: it generates a fresh
// secret, stores a pending setup with a TTL, and returns the payloads the user
// needs to register the secret. An empty issuer falls back to the default
// configured via WithTOTPConfig. It fails with ErrAlreadyEnabled when 2FA is
// already committed and with ErrSetupInProgress when an unexpired pending
// setup exists.
func (e *Engine) BeginEnrollment(ctx context.Context, userID, accountLabel, issuer string) (*EnrollmentSetup, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if issuer == "" {
		issuer = e.issuer
	}

	record, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record != nil && record.Enabled {
		e.auditFailure(ctx, userID, actionEnrollBegin, ErrAlreadyEnabled)
		return nil, ErrAlreadyEnabled
	}

	pending, err := e.store.GetPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	if pending != nil {
		if !pending.Expired(now) {
			e.auditFailure(ctx, userID, actionEnrollBegin, ErrSetupInProgress)
			return nil, ErrSetupInProgress
		}
		// Stale leftover from an abandoned attempt, replace it
		if err := e.store.DeletePending(ctx, userID); err != nil {
			return nil, err
		}
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return nil, err
	}

	uri, err := totp.GetTOTPURI(totp.TOTPParams{
		Secret:      secret,
		AccountName: accountLabel,
		Issuer:      issuer,
	})
	if err != nil {
		return nil, err
	}

	storedSecret, err := e.seal(secret)
	if err != nil {
		return nil, err
	}

	if err := e.store.PutPending(ctx, PendingSetup{
		UserID:       userID,
		Secret:       storedSecret,
		AccountLabel: accountLabel,
		Issuer:       issuer,
		CreatedAt:    now,
		ExpiresAt:    now.Add(e.setupTTL),
	}); err != nil {
		return nil, err
	}

	e.auditSuccess(ctx, userID, actionEnrollBegin,
		audit.WithMetadata("issuer", issuer),
	)

	return &EnrollmentSetup{
		Secret:         secret,
		URI:            uri,
		ManualEntryKey: formatManualEntry(secret),
	}, nil
}

// ConfirmEnrollment completes the enable flow. On a valid code it issues
// backup codes, commits {secret, enabled, backup codes} to the user record,
// deletes the pending setup, and returns the backup codes exactly once. An
// invalid code keeps the pending setup so the caller can retry until expiry.
func (e *Engine) ConfirmEnrollment(ctx context.Context, userID, code string) ([]string, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	// A record that is already enabled means enrollment completed earlier,
	// possibly with a dangling pending setup left by a crash between commit
	// and delete. Confirm must not run twice.
	record, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record != nil && record.Enabled {
		_ = e.store.DeletePending(ctx, userID)
		e.auditFailure(ctx, userID, actionEnrollConfirm, ErrAlreadyEnabled)
		return nil, ErrAlreadyEnabled
	}

	pending, err := e.store.GetPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		e.auditFailure(ctx, userID, actionEnrollConfirm, ErrSetupNotFound)
		return nil, ErrSetupNotFound
	}

	now := e.clock.Now()
	if pending.Expired(now) {
		if err := e.store.DeletePending(ctx, userID); err != nil {
			return nil, err
		}
		e.auditFailure(ctx, userID, actionEnrollConfirm, ErrSetupExpired)
		return nil, ErrSetupExpired
	}

	if err := e.limiter.Check(ctx, userID); err != nil {
		e.auditFailure(ctx, userID, actionEnrollConfirm, err)
		return nil, err
	}

	secret, err := e.unseal(pending.Secret)
	if err != nil {
		return nil, err
	}

	ok, err := totp.ValidateTOTPAt(secret, code, now, e.skew)
	if err != nil || !ok {
		_ = e.limiter.RecordFailure(ctx, userID)
		e.auditFailure(ctx, userID, actionEnrollConfirm, ErrInvalidCode)
		return nil, ErrInvalidCode
	}

	backupCodes, err := totp.GenerateBackupCodes(totp.DefaultBackupCodeCount, totp.DefaultBackupCodeLength)
	if err != nil {
		return nil, err
	}

	// Commit the record first; DeletePending second. Crash recovery treats
	// "enabled record + dangling pending" as already complete (see above).
	if err := e.store.Put(ctx, userID, UserSecurityRecord{
		Secret:      pending.Secret,
		Enabled:     true,
		BackupCodes: backupCodes,
	}); err != nil {
		return nil, err
	}
	if err := e.store.DeletePending(ctx, userID); err != nil {
		return nil, err
	}

	_ = e.limiter.Reset(ctx, userID)
	e.auditSuccess(ctx, userID, actionEnrollConfirm,
		audit.WithMetadata("backup_codes", len(backupCodes)),
	)

	return backupCodes, nil
}

// AbandonEnrollment discards the user's pending setup without committing
// anything.
func (e *Engine) AbandonEnrollment(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	pending, err := e.store.GetPending(ctx, userID)
	if err != nil {
		return err
	}
	if pending == nil {
		return ErrSetupNotFound
	}

	if err := e.store.DeletePending(ctx, userID); err != nil {
		return err
	}

	e.auditSuccess(ctx, userID, actionEnrollAbandon)
	return nil
}

// VerifyLogin authorizes a login step-up. It tries the TOTP window first
// (replay-guarded), then falls back to consuming a backup code. A consumed
// backup code is removed from the record before success is reported.
func (e *Engine) VerifyLogin(ctx context.Context, userID, code string) (*LoginResult, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	record, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.Enabled {
		e.auditFailure(ctx, userID, actionLoginVerify, ErrNotEnabled)
		return nil, ErrNotEnabled
	}

	if err := e.limiter.Check(ctx, userID); err != nil {
		e.auditFailure(ctx, userID, actionLoginVerify, err)
		return nil, err
	}

	secret, err := e.unseal(record.Secret)
	if err != nil {
		return nil, err
	}

	ok, _ := totp.ValidateTOTPAt(secret, code, e.clock.Now(), e.skew)
	if ok {
		// Record the acceptance only once the decision is final; the TOTP
		// path needs no further external commit after this point.
		fresh, err := e.guard.RecordIfFresh(ctx, userID+":"+code)
		if err != nil {
			return nil, err
		}
		if !fresh {
			_ = e.limiter.RecordFailure(ctx, userID)
			e.auditFailure(ctx, userID, actionReplayDetected, ErrReplayDetected)
			return nil, ErrReplayDetected
		}

		_ = e.limiter.Reset(ctx, userID)
		e.auditSuccess(ctx, userID, actionLoginVerify,
			audit.WithMetadata("method", string(MethodTOTP)),
		)
		return &LoginResult{
			Method:               MethodTOTP,
			RemainingBackupCodes: len(record.BackupCodes),
		}, nil
	}

	if remaining, consumed := consumeBackupCode(record.BackupCodes, code); consumed {
		record.BackupCodes = remaining
		if err := e.store.Put(ctx, userID, *record); err != nil {
			return nil, err
		}

		_ = e.limiter.Reset(ctx, userID)
		e.auditSuccess(ctx, userID, actionLoginVerify,
			audit.WithMetadata("method", string(MethodBackupCode)),
			audit.WithMetadata("remaining_backup_codes", len(remaining)),
		)
		return &LoginResult{
			Method:               MethodBackupCode,
			RemainingBackupCodes: len(remaining),
		}, nil
	}

	_ = e.limiter.RecordFailure(ctx, userID)
	e.auditFailure(ctx, userID, actionLoginVerify, ErrInvalidCode)
	return nil, ErrInvalidCode
}

// Disable turns 2FA off after verifying a current TOTP or backup code, then
// clears the secret, the enabled flag, and the backup-code inventory. The
// replay guard is deliberately not consulted: disabling is a singular action,
// and burning the reuse window here would lock the user out of an immediately
// following login.
func (e *Engine) Disable(ctx context.Context, userID, code, reason string) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	record, err := e.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if record == nil || !record.Enabled {
		e.auditFailure(ctx, userID, actionDisable, ErrNotEnabled)
		return ErrNotEnabled
	}

	if err := e.limiter.Check(ctx, userID); err != nil {
		e.auditFailure(ctx, userID, actionDisable, err)
		return err
	}

	secret, err := e.unseal(record.Secret)
	if err != nil {
		return err
	}

	method := MethodTOTP
	ok, _ := totp.ValidateTOTPAt(secret, code, e.clock.Now(), e.skew)
	if !ok {
		// The record is wiped on success, so the consumed code does not
		// need to be persisted separately.
		if _, consumed := consumeBackupCode(record.BackupCodes, code); !consumed {
			_ = e.limiter.RecordFailure(ctx, userID)
			e.auditFailure(ctx, userID, actionDisable, ErrInvalidCode)
			return ErrInvalidCode
		}
		method = MethodBackupCode
	}

	if err := e.store.Put(ctx, userID, UserSecurityRecord{}); err != nil {
		return err
	}

	_ = e.limiter.Reset(ctx, userID)
	e.auditSuccess(ctx, userID, actionDisable,
		audit.WithMetadata("method", string(method)),
		audit.WithMetadata("reason", reason),
	)
	return nil
}

// CodeRemainingSeconds reports how long the current TOTP code stays valid.
func (e *Engine) CodeRemainingSeconds() int {
	return totp.RemainingSeconds(e.clock.Now())
}

// seal encrypts a secret for storage when a cipher is configured.
func (e *Engine) seal(secret string) (string, error) {
	if e.cipher == nil {
		return secret, nil
	}
	return e.cipher.Encrypt(secret)
}

// unseal reverses seal.
func (e *Engine) unseal(stored string) (string, error) {
	if e.cipher == nil {
		return stored, nil
	}
	return e.cipher.Decrypt(stored)
}

// auditSuccess records an audit event, never letting the sink fail the
// operation.
func (e *Engine) auditSuccess(ctx context.Context, userID, action string, opts ...audit.EventOption) {
	if err := e.auditor.Log(ctx, userID, action, opts...); err != nil {
		e.log.Debug("audit logging failed",
			logger.Action(action),
			logger.Error(err),
		)
	}
}

// auditFailure records a failed operation. The raw code value is never
// included, only the failure class.
func (e *Engine) auditFailure(ctx context.Context, userID, action string, cause error) {
	if err := e.auditor.LogError(ctx, userID, action, cause); err != nil {
		e.log.Debug("audit logging failed",
			logger.Action(action),
			logger.Error(err),
		)
	}
}

// consumeBackupCode returns codes without the matching entry. Comparison is
// constant-time across every stored code regardless of where the match sits.
func consumeBackupCode(codes []string, code string) ([]string, bool) {
	match := -1
	for i, candidate := range codes {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return codes, false
	}

	remaining := make([]string, 0, len(codes)-1)
	remaining = append(remaining, codes[:match]...)
	remaining = append(remaining, codes[match+1:]...)
	return remaining, true
}

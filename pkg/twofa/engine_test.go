package twofa_test

import (
	"context"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/attempts"
	"github.com/dmitrymomot/mfakit/pkg/logger"
	"github.com/dmitrymomot/mfakit/pkg/totp"
	"github.com/dmitrymomot/mfakit/pkg/twofa"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestEngine(t *testing.T, opts ...twofa.Option) (*twofa.Engine, *twofa.MemoryStore, *fakeClock) {
	t.Helper()

	store := twofa.NewMemoryStore()
	clock := newFakeClock(time.Unix(1700000000, 0).UTC())

	engine, err := twofa.New(store, append([]twofa.Option{
		twofa.WithClock(clock),
		twofa.WithLogger(logger.New(logger.WithOutput(io.Discard))),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return engine, store, clock
}

// enroll walks a user through begin+confirm and returns the shared secret and
// the issued backup codes.
func enroll(t *testing.T, engine *twofa.Engine, clock *fakeClock, userID string) (string, []string) {
	t.Helper()
	ctx := context.Background()

	setup, err := engine.BeginEnrollment(ctx, userID, userID+"@example.com", "Acme")
	require.NoError(t, err)

	code, err := totp.GenerateTOTPAt(setup.Secret, clock.Now())
	require.NoError(t, err)

	backupCodes, err := engine.ConfirmEnrollment(ctx, userID, code)
	require.NoError(t, err)

	return setup.Secret, backupCodes
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("panics on nil store", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			_, _ = twofa.New(nil)
		})
	})

	t.Run("passes crypto self-test", func(t *testing.T) {
		t.Parallel()
		engine, err := twofa.New(twofa.NewMemoryStore())
		require.NoError(t, err)
		engine.Close()
	})
}

func TestBeginEnrollment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns secret, URI and manual entry key", func(t *testing.T) {
		t.Parallel()
		engine, _, _ := newTestEngine(t)

		setup, err := engine.BeginEnrollment(ctx, "user-1", "user-1@example.com", "Acme")
		require.NoError(t, err)

		assert.Regexp(t, regexp.MustCompile(`^[A-Z2-7]+$`), setup.Secret)
		assert.True(t, strings.HasPrefix(setup.URI, "otpauth://totp/"))
		assert.Contains(t, setup.URI, "issuer=Acme")

		// Manual entry key is the secret grouped in blocks of four
		assert.Equal(t, setup.Secret, strings.ReplaceAll(setup.ManualEntryKey, " ", ""))
		for _, block := range strings.Fields(setup.ManualEntryKey) {
			assert.LessOrEqual(t, len(block), 4)
		}
	})

	t.Run("requires user id", func(t *testing.T) {
		t.Parallel()
		engine, _, _ := newTestEngine(t)

		_, err := engine.BeginEnrollment(ctx, "", "a@example.com", "Acme")
		assert.ErrorIs(t, err, twofa.ErrUserIDRequired)
	})

	t.Run("rejects second begin while setup pending", func(t *testing.T) {
		t.Parallel()
		engine, _, _ := newTestEngine(t)

		_, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		require.NoError(t, err)

		_, err = engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		assert.ErrorIs(t, err, twofa.ErrSetupInProgress)
	})

	t.Run("replaces expired pending setup", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)

		first, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		require.NoError(t, err)

		clock.Advance(twofa.DefaultSetupTTL + time.Second)

		second, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		require.NoError(t, err)
		assert.NotEqual(t, first.Secret, second.Secret, "restart must issue a fresh secret")
	})

	t.Run("rejects begin when already enabled", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)
		enroll(t, engine, clock, "user-1")

		_, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		assert.ErrorIs(t, err, twofa.ErrAlreadyEnabled)
	})
}

func TestConfirmEnrollment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("commits record and issues backup codes", func(t *testing.T) {
		t.Parallel()
		engine, store, clock := newTestEngine(t)

		setup, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		require.NoError(t, err)

		code, err := totp.GenerateTOTPAt(setup.Secret, clock.Now())
		require.NoError(t, err)

		backupCodes, err := engine.ConfirmEnrollment(ctx, "user-1", code)
		require.NoError(t, err)
		require.Len(t, backupCodes, totp.DefaultBackupCodeCount)
		for _, bc := range backupCodes {
			assert.Regexp(t, regexp.MustCompile(`^\d{8}$`), bc)
		}

		record, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.Enabled)
		assert.Equal(t, setup.Secret, record.Secret)
		assert.Len(t, record.BackupCodes, totp.DefaultBackupCodeCount)

		pending, err := store.GetPending(ctx, "user-1")
		require.NoError(t, err)
		assert.Nil(t, pending, "pending setup should be deleted after confirmation")
	})

	t.Run("fails without pending setup", func(t *testing.T) {
		t.Parallel()
		engine, _, _ := newTestEngine(t)

		_, err := engine.ConfirmEnrollment(ctx, "user-1", "123456")
		assert.ErrorIs(t, err, twofa.ErrSetupNotFound)
	})

	t.Run("invalid code keeps pending setup retryable", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)

		setup, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		require.NoError(t, err)

		_, err = engine.ConfirmEnrollment(ctx, "user-1", "000000")
		assert.ErrorIs(t, err, twofa.ErrInvalidCode)

		// Retry with the right code succeeds
		code, err := totp.GenerateTOTPAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		_, err = engine.ConfirmEnrollment(ctx, "user-1", code)
		assert.NoError(t, err)
	})

	t.Run("expired setup leaves no committed secret", func(t *testing.T) {
		t.Parallel()
		engine, store, clock := newTestEngine(t)

		setup, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		require.NoError(t, err)

		clock.Advance(twofa.DefaultSetupTTL + time.Second)

		code, err := totp.GenerateTOTPAt(setup.Secret, clock.Now())
		require.NoError(t, err)

		_, err = engine.ConfirmEnrollment(ctx, "user-1", code)
		assert.ErrorIs(t, err, twofa.ErrSetupExpired)

		record, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Nil(t, record)

		pending, err := store.GetPending(ctx, "user-1")
		require.NoError(t, err)
		assert.Nil(t, pending)
	})

	t.Run("second confirm fails without reissuing codes", func(t *testing.T) {
		t.Parallel()
		engine, store, clock := newTestEngine(t)
		secret, first := enroll(t, engine, clock, "user-1")

		code, err := totp.GenerateTOTPAt(secret, clock.Now())
		require.NoError(t, err)

		_, err = engine.ConfirmEnrollment(ctx, "user-1", code)
		assert.ErrorIs(t, err, twofa.ErrAlreadyEnabled)

		record, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, first, record.BackupCodes, "backup codes must not change")
	})

	t.Run("locks out after repeated failures", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)

		setup, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		require.NoError(t, err)

		for range attempts.DefaultMaxFailures {
			_, err := engine.ConfirmEnrollment(ctx, "user-1", "000000")
			assert.ErrorIs(t, err, twofa.ErrInvalidCode)
		}

		code, err := totp.GenerateTOTPAt(setup.Secret, clock.Now())
		require.NoError(t, err)

		_, err = engine.ConfirmEnrollment(ctx, "user-1", code)
		assert.ErrorIs(t, err, attempts.ErrTooManyAttempts)
	})
}

func TestAbandonEnrollment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes pending setup", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)

		setup, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "Acme")
		require.NoError(t, err)

		require.NoError(t, engine.AbandonEnrollment(ctx, "user-1"))

		code, err := totp.GenerateTOTPAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		_, err = engine.ConfirmEnrollment(ctx, "user-1", code)
		assert.ErrorIs(t, err, twofa.ErrSetupNotFound)
	})

	t.Run("fails without pending setup", func(t *testing.T) {
		t.Parallel()
		engine, _, _ := newTestEngine(t)

		err := engine.AbandonEnrollment(ctx, "user-1")
		assert.ErrorIs(t, err, twofa.ErrSetupNotFound)
	})
}

func TestVerifyLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("fails when not enrolled", func(t *testing.T) {
		t.Parallel()
		engine, _, _ := newTestEngine(t)

		_, err := engine.VerifyLogin(ctx, "user-1", "123456")
		assert.ErrorIs(t, err, twofa.ErrNotEnabled)
	})

	t.Run("accepts current TOTP code", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)
		secret, _ := enroll(t, engine, clock, "user-1")

		clock.Advance(time.Minute)
		code, err := totp.GenerateTOTPAt(secret, clock.Now())
		require.NoError(t, err)

		result, err := engine.VerifyLogin(ctx, "user-1", code)
		require.NoError(t, err)
		assert.Equal(t, twofa.MethodTOTP, result.Method)
		assert.Equal(t, totp.DefaultBackupCodeCount, result.RemainingBackupCodes)
	})

	t.Run("accepts codes within skew window", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)
		secret, _ := enroll(t, engine, clock, "user-1")

		clock.Advance(time.Minute)

		previous, err := totp.GenerateTOTPAt(secret, clock.Now().Add(-30*time.Second))
		require.NoError(t, err)
		_, err = engine.VerifyLogin(ctx, "user-1", previous)
		assert.NoError(t, err, "previous period code should pass with default skew")

		tooOld, err := totp.GenerateTOTPAt(secret, clock.Now().Add(-90*time.Second))
		require.NoError(t, err)
		_, err = engine.VerifyLogin(ctx, "user-1", tooOld)
		assert.ErrorIs(t, err, twofa.ErrInvalidCode)
	})

	t.Run("rejects replayed TOTP code", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)
		secret, _ := enroll(t, engine, clock, "user-1")

		clock.Advance(time.Minute)
		code, err := totp.GenerateTOTPAt(secret, clock.Now())
		require.NoError(t, err)

		_, err = engine.VerifyLogin(ctx, "user-1", code)
		require.NoError(t, err)

		_, err = engine.VerifyLogin(ctx, "user-1", code)
		assert.ErrorIs(t, err, twofa.ErrReplayDetected)

		// A fresh code from the next period is accepted again
		clock.Advance(30 * time.Second)
		next, err := totp.GenerateTOTPAt(secret, clock.Now())
		require.NoError(t, err)
		_, err = engine.VerifyLogin(ctx, "user-1", next)
		assert.NoError(t, err)
	})

	t.Run("consumes backup code exactly once", func(t *testing.T) {
		t.Parallel()
		engine, store, clock := newTestEngine(t)
		_, backupCodes := enroll(t, engine, clock, "user-1")

		result, err := engine.VerifyLogin(ctx, "user-1", backupCodes[3])
		require.NoError(t, err)
		assert.Equal(t, twofa.MethodBackupCode, result.Method)
		assert.Equal(t, totp.DefaultBackupCodeCount-1, result.RemainingBackupCodes)

		record, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.NotContains(t, record.BackupCodes, backupCodes[3])

		_, err = engine.VerifyLogin(ctx, "user-1", backupCodes[3])
		assert.ErrorIs(t, err, twofa.ErrInvalidCode)
	})

	t.Run("rejects invalid code", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)
		enroll(t, engine, clock, "user-1")

		_, err := engine.VerifyLogin(ctx, "user-1", "000000")
		assert.ErrorIs(t, err, twofa.ErrInvalidCode)
	})

	t.Run("locks out after repeated failures", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)
		secret, _ := enroll(t, engine, clock, "user-1")

		for range attempts.DefaultMaxFailures {
			_, err := engine.VerifyLogin(ctx, "user-1", "000000")
			assert.ErrorIs(t, err, twofa.ErrInvalidCode)
		}

		clock.Advance(time.Minute)
		code, err := totp.GenerateTOTPAt(secret, clock.Now())
		require.NoError(t, err)

		_, err = engine.VerifyLogin(ctx, "user-1", code)
		assert.ErrorIs(t, err, attempts.ErrTooManyAttempts)
	})

	t.Run("requires user id", func(t *testing.T) {
		t.Parallel()
		engine, _, _ := newTestEngine(t)

		_, err := engine.VerifyLogin(ctx, "", "123456")
		assert.ErrorIs(t, err, twofa.ErrUserIDRequired)
	})
}

func TestDisable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("clears record on valid TOTP code", func(t *testing.T) {
		t.Parallel()
		engine, store, clock := newTestEngine(t)
		secret, _ := enroll(t, engine, clock, "user-1")

		clock.Advance(time.Minute)
		code, err := totp.GenerateTOTPAt(secret, clock.Now())
		require.NoError(t, err)

		require.NoError(t, engine.Disable(ctx, "user-1", code, "user request"))

		record, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.False(t, record.Enabled)
		assert.Empty(t, record.Secret)
		assert.Empty(t, record.BackupCodes)

		_, err = engine.VerifyLogin(ctx, "user-1", code)
		assert.ErrorIs(t, err, twofa.ErrNotEnabled)
	})

	t.Run("accepts backup code", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t)
		_, backupCodes := enroll(t, engine, clock, "user-1")

		require.NoError(t, engine.Disable(ctx, "user-1", backupCodes[0], "lost device"))
	})

	t.Run("fails when not enabled", func(t *testing.T) {
		t.Parallel()
		engine, _, _ := newTestEngine(t)

		err := engine.Disable(ctx, "user-1", "123456", "")
		assert.ErrorIs(t, err, twofa.ErrNotEnabled)
	})

	t.Run("keeps record on invalid code", func(t *testing.T) {
		t.Parallel()
		engine, store, clock := newTestEngine(t)
		enroll(t, engine, clock, "user-1")

		err := engine.Disable(ctx, "user-1", "000000", "")
		assert.ErrorIs(t, err, twofa.ErrInvalidCode)

		record, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.Enabled)
	})
}

func TestEngineWithSecretCipher(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)
	cipher, err := totp.NewSecretCipher(key)
	require.NoError(t, err)

	engine, store, clock := newTestEngine(t, twofa.WithSecretCipher(cipher))
	secret, _ := enroll(t, engine, clock, "user-1")

	record, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotEqual(t, secret, record.Secret, "secret must be encrypted at rest")

	decrypted, err := cipher.Decrypt(record.Secret)
	require.NoError(t, err)
	assert.Equal(t, secret, decrypted)

	clock.Advance(time.Minute)
	code, err := totp.GenerateTOTPAt(secret, clock.Now())
	require.NoError(t, err)

	result, err := engine.VerifyLogin(ctx, "user-1", code)
	require.NoError(t, err)
	assert.Equal(t, twofa.MethodTOTP, result.Method)
}

func TestEngineWithTOTPConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	encodedKey, err := totp.GenerateEncodedEncryptionKey()
	require.NoError(t, err)

	cfg := totp.Config{
		EncryptionKey: encodedKey,
		Skew:          0,
		Issuer:        "Acme",
	}

	t.Run("applies cipher, skew and default issuer", func(t *testing.T) {
		t.Parallel()
		engine, store, clock := newTestEngine(t, twofa.WithTOTPConfig(cfg))

		// Empty issuer falls back to the configured one
		setup, err := engine.BeginEnrollment(ctx, "user-1", "a@example.com", "")
		require.NoError(t, err)
		assert.Contains(t, setup.URI, "issuer=Acme")

		code, err := totp.GenerateTOTPAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		_, err = engine.ConfirmEnrollment(ctx, "user-1", code)
		require.NoError(t, err)

		record, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.NotEqual(t, setup.Secret, record.Secret, "secret must be encrypted at rest")

		// Skew 0 rejects the previous period's code
		clock.Advance(time.Minute)
		previous, err := totp.GenerateTOTPAt(setup.Secret, clock.Now().Add(-30*time.Second))
		require.NoError(t, err)
		_, err = engine.VerifyLogin(ctx, "user-1", previous)
		assert.ErrorIs(t, err, twofa.ErrInvalidCode)

		current, err := totp.GenerateTOTPAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		_, err = engine.VerifyLogin(ctx, "user-1", current)
		assert.NoError(t, err)
	})

	t.Run("explicit options take precedence", func(t *testing.T) {
		t.Parallel()
		engine, _, clock := newTestEngine(t,
			twofa.WithTOTPConfig(cfg),
			twofa.WithSkew(1),
		)
		secret, _ := enroll(t, engine, clock, "user-1")

		clock.Advance(time.Minute)
		previous, err := totp.GenerateTOTPAt(secret, clock.Now().Add(-30*time.Second))
		require.NoError(t, err)
		_, err = engine.VerifyLogin(ctx, "user-1", previous)
		assert.NoError(t, err, "WithSkew(1) must override the config's skew 0")
	})

	t.Run("rejects malformed encryption key", func(t *testing.T) {
		t.Parallel()
		_, err := twofa.New(twofa.NewMemoryStore(), twofa.WithTOTPConfig(totp.Config{
			EncryptionKey: "not-base64!",
		}))
		assert.Error(t, err)
	})
}

func TestCodeRemainingSeconds(t *testing.T) {
	t.Parallel()

	engine, _, clock := newTestEngine(t)

	// Base time 1700000000 sits 20s into its period, so 10s remain.
	remaining := engine.CodeRemainingSeconds()
	assert.Equal(t, 10, remaining)
	assert.LessOrEqual(t, remaining, totp.DefaultPeriod)

	clock.Advance(7 * time.Second)
	assert.Equal(t, 3, engine.CodeRemainingSeconds())
}

package twofa

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/qrcode"
)

// Method identifies how a login verification succeeded.
type Method string

const (
	MethodTOTP       Method = "totp"
	MethodBackupCode Method = "backup_code"
)

// ParseMethod converts s into a Method, failing loudly on unknown input
// instead of silently substituting a default.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodTOTP:
		return MethodTOTP, nil
	case MethodBackupCode:
		return MethodBackupCode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// UserSecurityRecord is the per-user state persisted by the Store. The secret
// is kept in its stored form: encrypted when the engine has a SecretCipher,
// Base32 plaintext otherwise.
type UserSecurityRecord struct {
	Secret      string   `json:"secret" bson:"secret"`
	Enabled     bool     `json:"enabled" bson:"enabled"`
	BackupCodes []string `json:"backup_codes" bson:"backup_codes"`
}

// PendingSetup is a not-yet-confirmed enrollment. At most one exists per user;
// it is deleted on confirmation, expiry, or explicit abandonment.
type PendingSetup struct {
	UserID       string    `json:"user_id" bson:"user_id"`
	Secret       string    `json:"secret" bson:"secret"`
	AccountLabel string    `json:"account_label" bson:"account_label"`
	Issuer       string    `json:"issuer" bson:"issuer"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the setup is past its TTL at the given time.
func (p PendingSetup) Expired(at time.Time) bool {
	return at.After(p.ExpiresAt)
}

// EnrollmentSetup is what the caller shows the user to register the secret in
// an authenticator app.
type EnrollmentSetup struct {
	// Secret is the Base32 secret, shown once during enrollment.
	Secret string
	// URI is the otpauth:// payload that QR renderers encode.
	URI string
	// ManualEntryKey is the secret grouped in blocks of four for typing.
	ManualEntryKey string
}

// QRCode renders the otpauth URI as a PNG image of the given size in pixels.
func (s EnrollmentSetup) QRCode(size int) ([]byte, error) {
	return qrcode.EnrollmentImage(s.URI, size)
}

// LoginResult describes a successful second-factor verification.
type LoginResult struct {
	Method               Method
	RemainingBackupCodes int
}

// formatManualEntry groups a Base32 secret into blocks of four characters.
func formatManualEntry(secret string) string {
	var sb strings.Builder
	sb.Grow(len(secret) + len(secret)/4)
	for i, r := range secret {
		if i > 0 && i%4 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

const (
	DefaultBackupCodeCount  = 10 // Codes issued per enrollment
	DefaultBackupCodeLength = 8  // Digits per code
)

// GenerateBackupCodes creates cryptographically secure single-use recovery
// codes. Each code is a uniformly random decimal string of length digits.
// Codes within one batch are guaranteed unique; a collision (possible under
// the birthday bound for short codes) is redrawn.
func GenerateBackupCodes(count, length int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidBackupCodeCount
	}
	if length < 1 {
		return nil, ErrInvalidBackupCodeLength
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for len(codes) < count {
		code, err := randomDigits(length)
		if err != nil {
			return nil, errors.Join(ErrFailedToGenerateBackupCode, err)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

// randomDigits draws n uniformly distributed decimal digits, rejection
// sampling the random bytes to avoid modulo bias.
func randomDigits(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// 250 is the largest multiple of 10 below 256
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// HashBackupCode creates a SHA-256 hash for secure storage of backup codes.
func HashBackupCode(code string) string {
	hash := sha256.Sum256([]byte(code))
	return hex.EncodeToString(hash[:])
}

// VerifyBackupCode performs constant-time comparison to prevent timing attacks.
func VerifyBackupCode(code, hashedCode string) bool {
	computedHash := HashBackupCode(code)

	return subtle.ConstantTimeCompare(
		[]byte(computedHash),
		[]byte(hashedCode),
	) == 1
}

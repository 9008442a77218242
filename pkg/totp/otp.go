package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultDigits    = 6      // Standard 6-digit TOTP codes
	DefaultPeriod    = 30     // 30-second validity window (RFC 6238 standard)
	DefaultSkew      = 1      // Accepted clock drift in periods on each side
	DefaultAlgorithm = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)

	// SecretSize is the raw secret length in bytes. 256 bits exceeds the
	// RFC 4226 minimum and is what mainstream authenticator apps accept
	// without complaint.
	SecretSize = 32
)

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	codeRegex = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, DefaultDigits))
)

// TOTPParams contains the parameters for TOTP URI generation
type TOTPParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Algorithm   string // HMAC algorithm (optional, defaults to SHA1)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required TOTP parameters are present and valid
func (p TOTPParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GetDefaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields
func (p TOTPParams) GetDefaults() TOTPParams {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// GenerateSecretKey generates a new Base32-encoded secret key for TOTP.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return EncodeBase32(secret), nil
}

// GetTOTPURI creates a properly encoded TOTP URI for use with authenticator apps.
// The URI format follows the Key Uri Format specification:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func GetTOTPURI(params TOTPParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	params = params.GetDefaults()

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	query := url.Values{}
	query.Set("secret", params.Secret)
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", params.Algorithm)
	query.Set("digits", fmt.Sprintf("%d", params.Digits))
	query.Set("period", fmt.Sprintf("%d", params.Period))

	uri := fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode())

	return uri, nil
}

// GenerateHOTP implements the RFC 4226 HMAC-based One-Time Password algorithm.
// The counter is serialized as 8 bytes most-significant first, hashed with
// HMAC-SHA1, dynamically truncated to a 31-bit integer and reduced modulo
// 10^digits. The result is always exactly digits numeric characters.
func GenerateHOTP(key []byte, counter uint64, digits int) string {
	var msg [8]byte
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	digest := mac.Sum(nil)

	// Dynamic truncation (RFC 4226): last 4 bits select the extraction offset
	offset := digest[len(digest)-1] & 0x0f
	// Clear the MSB so the extracted value is an unsigned 31-bit integer
	bin := (uint32(digest[offset]&0x7f) << 24) |
		(uint32(digest[offset+1]) << 16) |
		(uint32(digest[offset+2]) << 8) |
		uint32(digest[offset+3])

	mod := uint32(1)
	for range digits {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}

// GenerateTOTP generates a time-based one-time password for the current 30-second window.
// The secret must be a valid Base32-encoded string.
func GenerateTOTP(secret string) (string, error) {
	return GenerateTOTPAt(secret, time.Now())
}

// GenerateTOTPAt generates a TOTP code for the 30-second window containing the
// specified time. Useful for testing or generating codes for specific moments.
func GenerateTOTPAt(secret string, t time.Time) (string, error) {
	key, err := secretKeyBytes(secret)
	if err != nil {
		return "", err
	}

	counter := uint64(t.Unix()) / DefaultPeriod

	return GenerateHOTP(key, counter, DefaultDigits), nil
}

// ValidateTOTP validates the TOTP code provided by the user against the
// current time with the default clock-drift tolerance.
func ValidateTOTP(secret, otp string) (bool, error) {
	return ValidateTOTPAt(secret, otp, time.Now(), DefaultSkew)
}

// ValidateTOTPAt validates otp against the window containing t, probing every
// counter in [current-skew, current+skew] in ascending order. Any match within
// the window is accepted, which tolerates clock drift of up to skew*period
// seconds in either direction. Code comparison is constant-time.
func ValidateTOTPAt(secret, otp string, t time.Time, skew int) (bool, error) {
	key, err := secretKeyBytes(secret)
	if err != nil {
		return false, err
	}

	otp = strings.TrimSpace(otp)
	if !codeRegex.MatchString(otp) {
		return false, ErrInvalidOTP
	}

	counter := uint64(t.Unix()) / DefaultPeriod
	for offset := -skew; offset <= skew; offset++ {
		if offset < 0 && counter < uint64(-offset) {
			continue
		}
		code := GenerateHOTP(key, counter+uint64(offset), DefaultDigits)
		if subtle.ConstantTimeCompare([]byte(code), []byte(otp)) == 1 {
			return true, nil
		}
	}

	return false, nil
}

// RemainingSeconds reports how long the code for the window containing t stays
// valid: period - (unix seconds mod period).
func RemainingSeconds(t time.Time) int {
	return DefaultPeriod - int(t.Unix()%DefaultPeriod)
}

// SelfTest verifies the HMAC-SHA1 primitive against the RFC 4226 reference
// vector (secret "12345678901234567890", counter 0). Engine constructors call
// it at startup and refuse to serve if the underlying hash misbehaves.
func SelfTest() error {
	if GenerateHOTP([]byte("12345678901234567890"), 0, 6) != "755224" {
		return ErrCryptoSelfTest
	}
	return nil
}

// secretKeyBytes normalizes and decodes a Base32 secret, rejecting anything
// that does not strictly match the expected alphabet.
func secretKeyBytes(secret string) ([]byte, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}

	key := DecodeBase32(secret)
	if len(key) == 0 {
		return nil, ErrInvalidSecret
	}
	return key, nil
}

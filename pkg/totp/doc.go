// Package totp implements the cryptographic core of a second-factor
// authentication system: Base32 secret encoding, the RFC 4226 HOTP primitive,
// RFC 6238 time-window validation, backup-code generation, and AES-256-GCM
// helpers for persisting secrets safely.
//
// By keeping functionality self-contained the package eliminates direct
// dependencies on third-party TOTP libraries and allows services to remain
// framework-agnostic while still following contemporary security
// best-practices.
//
// # Architecture
//
// Internally the package is divided into four cohesive layers.
//
//   • codec    – base32.go implements the RFC 4648 alphabet without padding.
//     Encoding is strict; decoding is deliberately tolerant (case-folds,
//     skips foreign characters) so manually typed secrets survive spaces and
//     dashes. Security-sensitive entry points re-validate secrets against
//     ValidateSecretKeyRegex before use.
//
//   • otp      – otp.go provides secret generation (GenerateSecretKey), the
//     HOTP primitive (GenerateHOTP), time-based code calculation and
//     clock-drift-tolerant validation (GenerateTOTP, GenerateTOTPAt,
//     ValidateTOTP, ValidateTOTPAt, RemainingSeconds), otpauth:// URI
//     construction (GetTOTPURI) and a startup SelfTest for the HMAC-SHA1
//     primitive.
//
//   • crypto   – aes256.go wraps AES-256-GCM in a SecretCipher for
//     encrypting secrets at rest, plus key generation/loading utilities.
//
//   • backup   – backup.go creates batches of unique, uniformly random
//     numeric backup codes and offers hash/verify helpers for callers that
//     store only digests.
//
// Configuration such as the encryption key is parsed via the env tag aware
// loader in config.go. The required environment variable is
// TOTP_ENCRYPTION_KEY and it must contain a Base64 encoded 32-byte key
// suitable for AES-256.
//
// # Usage
//
// The minimal happy path for enrolling a user looks like this:
//
//	package main
//
//	import (
//	    "fmt"
//	    "github.com/dmitrymomot/mfakit/pkg/totp"
//	)
//
//	func main() {
//	    // 1. Create a brand-new secret
//	    secret, _ := totp.GenerateSecretKey()
//
//	    // 2. Persist the secret encrypted in your datastore
//	    cfg, _ := totp.LoadConfig()
//	    cipher, _ := totp.NewSecretCipherFromConfig(cfg)
//	    encSecret, _ := cipher.Encrypt(secret)
//	    _ = encSecret
//
//	    // 3. Display the bootstrap URI/QR code to the user
//	    uri, _ := totp.GetTOTPURI(totp.TOTPParams{
//	        Secret:      secret,
//	        AccountName: "alice@example.com",
//	        Issuer:      "Acme",
//	    })
//	    fmt.Println(uri)
//
//	    // 4. Later – validate an OTP provided by the user
//	    ok, _ := totp.ValidateTOTP(secret, "123456")
//	    fmt.Println(ok)
//	}
//
// # Error Handling
//
// Every exported operation returns a descriptive error that may be wrapped
// using errors.Join. Inspect errors with errors.Is against package level
// sentinels such as ErrInvalidSecret, ErrInvalidOTP, ErrCryptoSelfTest etc.
//
// # See Also
//
//   • RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   • RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
//
// To explore more usage scenarios refer to the package level unit-tests.
package totp

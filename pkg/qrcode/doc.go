// Package qrcode renders TOTP provisioning URIs as QR code images, either as
// raw PNG bytes or as a data-URI string that can be embedded directly into
// HTML pages.
//
// The package is a thin wrapper around github.com/skip2/go-qrcode that adds
// sensible defaults, input validation, and an otpauth:// scheme check so the
// enrollment surface cannot be abused to encode arbitrary content.
//
// # Architecture
//
// Generate produces a PNG for any non-empty content and is the low-level
// entry point. EnrollmentImage and EnrollmentImageBase64 build on it:
//
//   • EnrollmentImage validates the otpauth:// scheme and returns PNG bytes.
//   • EnrollmentImageBase64 returns a data-URI (base64-encoded PNG) for
//     direct use inside an <img> tag.
//
// Errors that can be returned are declared as package-level variables so they
// can be compared with errors.Is.
//
// # Usage
//
//	import "github.com/dmitrymomot/mfakit/pkg/qrcode"
//
//	img, err := qrcode.EnrollmentImage(setup.URI, 256)
//	if err != nil {
//		// handle error
//	}
//
//	dataURI, err := qrcode.EnrollmentImageBase64(setup.URI, 256)
//	if err != nil {
//		// handle error
//	}
//
// # Error Handling
//
// The functions return well-defined sentinel errors:
//
//   • ErrEmptyContent          – the content argument was empty.
//   • ErrNotOTPAuthURI         – the URI does not use the otpauth scheme.
//   • ErrFailedToGenerateQRCode – the underlying library could not generate
//     the QR code.
//
// Wrap your error handling with errors.Is for robust comparisons.
package qrcode

package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content string is empty or only whitespace
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrNotOTPAuthURI is returned when the content is not an otpauth:// URI
	ErrNotOTPAuthURI = errors.New("content is not an otpauth URI")
	// ErrFailedToGenerateQRCode is returned when the QR code generation fails.
	ErrFailedToGenerateQRCode = errors.New("failed to generate QR code")
)

// defaultSize is the size in pixels used when no size is specified
const defaultSize = 256

// otpauthScheme prefixes every provisioning URI produced by the TOTP engine.
const otpauthScheme = "otpauth://"

// Generate creates a QR code image in PNG format with the given content.
// Returns the image as a byte slice or an error if generation fails.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return png, nil
}

// EnrollmentImage renders a TOTP provisioning URI as a PNG image. It rejects
// anything that is not an otpauth:// URI so arbitrary attacker-controlled
// content cannot end up inside an enrollment QR code.
func EnrollmentImage(uri string, size int) ([]byte, error) {
	if !strings.HasPrefix(uri, otpauthScheme) {
		return nil, ErrNotOTPAuthURI
	}
	return Generate(uri, size)
}

// EnrollmentImageBase64 renders a TOTP provisioning URI as a base64 data-URI
// suitable for embedding directly in an <img> tag.
func EnrollmentImageBase64(uri string, size int) (string, error) {
	png, err := EnrollmentImage(uri, size)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png)), nil
}

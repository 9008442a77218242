package totp_test

import (
	"testing"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/totp"

	pquerna "github.com/pquerna/otp"
	pquernatotp "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rfcSecret is the ASCII reference secret from RFC 4226 appendix D and
// RFC 6238 appendix B.
var rfcSecret = []byte("12345678901234567890")

func TestGenerateSecretKey(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Regexp(t, totp.ValidateSecretKeyRegex, secret)

	// 32 raw bytes render as ceil(256/5) Base32 symbols
	assert.Len(t, secret, 52)
	assert.Len(t, totp.DecodeBase32(secret), totp.SecretSize)
}

func TestGetTOTPURI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		params  totp.TOTPParams
		want    string
		wantErr bool
	}{
		{
			name: "Basic URI",
			params: totp.TOTPParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test@example.com",
				Issuer:      "TestApp",
			},
			want:    "otpauth://totp/TestApp:test@example.com?algorithm=SHA1&digits=6&issuer=TestApp&period=30&secret=ABCDEFGHIJKLMNOP",
			wantErr: false,
		},
		{
			name: "URI with special characters",
			params: totp.TOTPParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test+user@example.com",
				Issuer:      "Test & App",
				Algorithm:   "SHA1",
				Digits:      6,
				Period:      30,
			},
			want:    "otpauth://totp/Test%20&%20App:test+user@example.com?algorithm=SHA1&digits=6&issuer=Test+%26+App&period=30&secret=ABCDEFGHIJKLMNOP",
			wantErr: false,
		},
		{
			name: "Missing secret",
			params: totp.TOTPParams{
				AccountName: "test@example.com",
				Issuer:      "TestApp",
			},
			wantErr: true,
		},
		{
			name: "Malformed secret",
			params: totp.TOTPParams{
				Secret:      "not-base32!",
				AccountName: "test@example.com",
				Issuer:      "TestApp",
			},
			wantErr: true,
		},
		{
			name: "Missing issuer",
			params: totp.TOTPParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test@example.com",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.GetTOTPURI(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateHOTPReferenceVectors(t *testing.T) {
	t.Parallel()

	// RFC 4226 appendix D, 6-digit HOTP values for counters 0-9.
	want := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}

	for counter, expected := range want {
		code := totp.GenerateHOTP(rfcSecret, uint64(counter), 6)
		assert.Equal(t, expected, code, "counter %d", counter)
	}
}

func TestGenerateHOTPDeterministicAndPadded(t *testing.T) {
	t.Parallel()

	for _, counter := range []uint64{0, 1, 42, 1<<40 + 7} {
		first := totp.GenerateHOTP(rfcSecret, counter, 6)
		second := totp.GenerateHOTP(rfcSecret, counter, 6)
		assert.Equal(t, first, second)
		assert.Regexp(t, `^\d{6}$`, first)
	}

	assert.Regexp(t, `^\d{8}$`, totp.GenerateHOTP(rfcSecret, 1, 8))
}

func TestGenerateTOTPAtReferenceVectors(t *testing.T) {
	t.Parallel()

	secret := totp.EncodeBase32(rfcSecret)

	// RFC 6238 appendix B SHA1 values, truncated to the last 6 digits.
	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}

	for _, tt := range tests {
		code, err := totp.GenerateTOTPAt(secret, time.Unix(tt.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tt.want, code, "unix %d", tt.unix)
	}
}

func TestValidateTOTP(t *testing.T) {
	t.Parallel()
	validSecret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	validOTP, err := totp.GenerateTOTP(validSecret)
	require.NoError(t, err)

	tests := []struct {
		name    string
		secret  string
		otp     string
		wantErr bool
		result  bool
	}{
		{
			name:    "Invalid base32 secret",
			secret:  "invalid-base32!@#$",
			otp:     "123456",
			wantErr: true,
			result:  false,
		},
		{
			name:    "Invalid OTP length",
			secret:  "ABCDEFGHIJKLMNOP",
			otp:     "12345",
			wantErr: true,
			result:  false,
		},
		{
			name:    "Invalid OTP characters",
			secret:  "ABCDEFGHIJKLMNOP",
			otp:     "12345a",
			wantErr: true,
			result:  false,
		},
		{
			name:    "Empty secret",
			secret:  "",
			otp:     "123456",
			wantErr: true,
			result:  false,
		},
		{
			name:    "Empty OTP",
			secret:  "ABCDEFGHIJKLMNOP",
			otp:     "",
			wantErr: true,
			result:  false,
		},
		{
			name:    "Valid OTP",
			secret:  validSecret,
			otp:     validOTP,
			wantErr: false,
			result:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := totp.ValidateTOTP(tt.secret, tt.otp)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
		})
	}
}

func TestValidateTOTPAtTimeWindow(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	now := time.Unix(1700000015, 0)

	pastOTP, err := totp.GenerateTOTPAt(secret, now.Add(-30*time.Second))
	require.NoError(t, err)
	currentOTP, err := totp.GenerateTOTPAt(secret, now)
	require.NoError(t, err)
	futureOTP, err := totp.GenerateTOTPAt(secret, now.Add(30*time.Second))
	require.NoError(t, err)
	farPastOTP, err := totp.GenerateTOTPAt(secret, now.Add(-90*time.Second))
	require.NoError(t, err)

	tests := []struct {
		name   string
		otp    string
		result bool
	}{
		{
			name:   "Past OTP within window",
			otp:    pastOTP,
			result: true,
		},
		{
			name:   "Current OTP",
			otp:    currentOTP,
			result: true,
		},
		{
			name:   "Future OTP within window",
			otp:    futureOTP,
			result: true,
		},
		{
			name:   "OTP outside window",
			otp:    farPastOTP,
			result: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := totp.ValidateTOTPAt(secret, tt.otp, now, totp.DefaultSkew)
			require.NoError(t, err)
			assert.Equal(t, tt.result, result)
		})
	}
}

func TestValidateTOTPSameStep(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	// A generated code stays valid for any instant within its 30-second step,
	// even with zero skew.
	stepStart := time.Unix(1700000010-1700000010%30, 0)
	code, err := totp.GenerateTOTPAt(secret, stepStart)
	require.NoError(t, err)

	for _, offset := range []time.Duration{0, 7 * time.Second, 29 * time.Second} {
		ok, err := totp.ValidateTOTPAt(secret, code, stepStart.Add(offset), 0)
		require.NoError(t, err)
		assert.True(t, ok, "offset %s", offset)
	}
}

func TestRemainingSeconds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		unix int64
		want int
	}{
		{1700000010 - 1700000010%30, 30},
		{1700000010 - 1700000010%30 + 1, 29},
		{1700000010 - 1700000010%30 + 29, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, totp.RemainingSeconds(time.Unix(tt.unix, 0)))
	}
}

func TestSelfTest(t *testing.T) {
	t.Parallel()
	assert.NoError(t, totp.SelfTest())
}

// TestConformanceWithReferenceLibrary cross-checks generated codes against the
// pquerna/otp implementation of RFC 6238.
func TestConformanceWithReferenceLibrary(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	opts := pquernatotp.ValidateOpts{
		Period:    totp.DefaultPeriod,
		Digits:    pquerna.DigitsSix,
		Algorithm: pquerna.AlgorithmSHA1,
	}

	for _, unix := range []int64{59, 1111111109, 1700000000, 2000000000} {
		at := time.Unix(unix, 0)

		ours, err := totp.GenerateTOTPAt(secret, at)
		require.NoError(t, err)

		theirs, err := pquernatotp.GenerateCodeCustom(secret, at, opts)
		require.NoError(t, err)

		assert.Equal(t, theirs, ours, "unix %d", unix)
	}
}

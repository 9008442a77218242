package totp

import "strings"

// base32Alphabet is the RFC 4648 Base32 alphabet. Index i encodes the 5-bit
// value i.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// EncodeBase32 encodes b onto the RFC 4648 alphabet without `=` padding.
// The final partial group is left-shifted so its bits occupy the
// most-significant positions of the last symbol, which is how authenticator
// apps expect unpadded secrets to be rendered.
func EncodeBase32(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow((len(b)*8 + 4) / 5)

	var buf uint16
	var bits uint
	for _, c := range b {
		buf = buf<<8 | uint16(c)
		bits += 8
		for bits >= 5 {
			bits -= 5
			sb.WriteByte(base32Alphabet[(buf>>bits)&0x1f])
		}
	}
	if bits > 0 {
		sb.WriteByte(base32Alphabet[(buf<<(5-bits))&0x1f])
	}

	return sb.String()
}

// DecodeBase32 decodes s from the RFC 4648 alphabet. The decoder is tolerant:
// lowercase letters are folded to uppercase and any character outside the
// alphabet (spaces, dashes, `=` padding) is skipped. A byte is emitted each
// time 8 bits have accumulated; trailing bits shorter than a byte are
// discarded. Byte-aligned input therefore round-trips exactly:
// DecodeBase32(EncodeBase32(b)) == b.
//
// Malformed input never produces an error; strictness for security-sensitive
// callers is enforced upfront via ValidateSecretKeyRegex.
func DecodeBase32(s string) []byte {
	out := make([]byte, 0, len(s)*5/8)

	var buf uint16
	var bits uint
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}

		var v byte
		switch {
		case 'A' <= c && c <= 'Z':
			v = c - 'A'
		case '2' <= c && c <= '7':
			v = c - '2' + 26
		default:
			continue
		}

		buf = buf<<5 | uint16(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buf>>bits))
		}
	}

	return out
}

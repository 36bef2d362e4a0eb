// Package otp issues, redeems and expires one-time phone codes.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// CodeDigits is the length of every issued code.
const CodeDigits = 6

var codeSpace = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly random 6-digit numeric code (e.g. "042917") from crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	s := n.String()
	return strings.Repeat("0", CodeDigits-len(s)) + s, nil
}

// HashOTP returns the hex SHA-256 of code. Only the hash is persisted.
func HashOTP(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// CodeEqual compares code against a stored hash in constant time.
func CodeEqual(code, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashOTP(code)), []byte(storedHash)) == 1
}

// ValidCodeFormat reports whether code is exactly CodeDigits ASCII digits.
func ValidCodeFormat(code string) bool {
	if len(code) != CodeDigits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

var (
	errPhoneEmpty  = errors.New("phone is required")
	errPhoneFormat = errors.New("phone must be in international format, e.g. +84911222333")
)

// NormalizePhone strips spaces, dashes, dots and parentheses and returns the E.164 form "+<digits>".
// A leading "00" is read as the international prefix.
func NormalizePhone(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errPhoneEmpty
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", errPhoneFormat
		}
	}
	digits := b.String()
	if !strings.HasPrefix(s, "+") {
		if !strings.HasPrefix(digits, "00") {
			return "", errPhoneFormat
		}
		digits = digits[2:]
	}
	if len(digits) < 8 || len(digits) > 15 || digits[0] == '0' {
		return "", errPhoneFormat
	}
	return "+" + digits, nil
}

package utils

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordSpecialChars is the set a new password must draw at least one symbol from.
const PasswordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// PasswordMinLength is the minimum accepted password length, in runes.
const PasswordMinLength = 8

// PasswordMaxBytes is bcrypt's input limit; longer passwords are rejected
// rather than silently truncated.
const PasswordMaxBytes = 72

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordPolicyViolations lists every rule the password breaks; an empty
// result means the password is acceptable.
func PasswordPolicyViolations(plain string) []string {
	var (
		upper, lower, digit, special bool
		out                          []string
	)
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecialChars, r):
			special = true
		}
	}
	if len([]rune(plain)) < PasswordMinLength {
		out = append(out, "at least 8 characters")
	}
	if !upper {
		out = append(out, "one uppercase letter")
	}
	if !lower {
		out = append(out, "one lowercase letter")
	}
	if !digit {
		out = append(out, "one digit")
	}
	if !special {
		out = append(out, "one special character ("+PasswordSpecialChars+")")
	}
	return out
}

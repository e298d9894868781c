package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// HashPassword returns a bcrypt hash of the plain password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash with a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePasswordStrength checks the password policy: minimum length and
// at least three of the four character classes (upper, lower, digit,
// symbol). It returns a list of violation messages, empty when the
// password is acceptable.
func ValidatePasswordStrength(password string) []string {
	var problems []string

	if len(password) < minPasswordLength {
		problems = append(problems, "password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	for _, ok := range []bool{hasUpper, hasLower, hasDigit, hasSymbol} {
		if ok {
			classes++
		}
	}
	if classes < 3 {
		problems = append(problems, "password must contain at least 3 of: uppercase, lowercase, digits, symbols")
	}

	return problems
}

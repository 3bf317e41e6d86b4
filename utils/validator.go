// utils/validator.go - request input helpers shared by the controllers
package utils

import (
	"strings"
	"unicode"
)

// ValidatePassword enforces the password policy for new accounts and
// password changes: at least 8 characters containing a letter and a digit.
// Returns a human-readable reason when the password is rejected.
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return false, "Password must contain at least one letter and one digit"
	}

	return true, ""
}

// SanitizeInput normalizes free-text fields before they are persisted:
// trims surrounding whitespace and strips null bytes and other control
// characters that MySQL text columns should never carry.
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, input)
}

package validator

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail checks if the email format is valid
func IsValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsBlank reports whether s is empty after trimming whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ExceedsLength counts characters, not bytes
func ExceedsLength(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// IsPast reports whether t is before now, compared at second precision
func IsPast(t, now time.Time) bool {
	return t.Truncate(time.Second).Before(now.Truncate(time.Second))
}

// IsStrongEnoughPassword is the minimum bar accepted at registration
func IsStrongEnoughPassword(password string) bool {
	return utf8.RuneCountInString(password) >= 8 && !IsBlank(password)
}

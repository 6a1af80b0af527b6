package auth

import (
	"strings"

	"github.com/xyz-asif/todoshare/internal/pkg/validator"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

// NormalizeEmail is applied before every lookup and insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegister normalizes the email in place.
func ValidateRegister(req *RegisterRequest) error {
	req.Email = NormalizeEmail(req.Email)

	if !validator.IsValidEmail(req.Email) {
		return apperrors.Validation("Invalid email format", "INVALID_EMAIL")
	}
	if !validator.IsStrongEnoughPassword(req.Password) {
		return apperrors.Validation("Password must be at least 8 characters", "WEAK_PASSWORD")
	}
	// bcrypt ignores everything past 72 bytes
	if len(req.Password) > 72 {
		return apperrors.Validation("Password cannot be longer than 72 bytes", "PASSWORD_TOO_LONG")
	}
	return nil
}

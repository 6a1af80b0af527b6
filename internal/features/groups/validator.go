package groups

import (
	"strings"

	"github.com/xyz-asif/todoshare/internal/pkg/validator"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

const MaxNameLength = 120

// ValidateGroupName returns the trimmed name.
func ValidateGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("Group name is required and cannot be blank", "NAME_REQUIRED")
	}
	if validator.ExceedsLength(name, MaxNameLength) {
		return "", apperrors.Validation("Group name cannot be longer than 120 characters", "NAME_TOO_LONG")
	}
	return name, nil
}

// NormalizeJoinCode accepts codes pasted with stray whitespace or capitals.
func NormalizeJoinCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

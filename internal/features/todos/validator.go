package todos

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/xyz-asif/todoshare/internal/pkg/validator"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 255
)

// TitleKey is the case-folded form the uniqueness index is built on.
func TitleKey(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}

// ValidateTodo trims req in place and checks it against now.
func ValidateTodo(req *TodoRequest, now time.Time) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	if req.Title == "" {
		return apperrors.Validation("Title is required and cannot be blank", "TITLE_REQUIRED")
	}
	if validator.ExceedsLength(req.Title, MaxTitleLength) {
		return apperrors.Validation("Title cannot be longer than 120 characters", "TITLE_TOO_LONG")
	}
	if req.Description == "" {
		return apperrors.Validation("Description is required and cannot be blank", "DESCRIPTION_REQUIRED")
	}
	if validator.ExceedsLength(req.Description, MaxDescriptionLength) {
		return apperrors.Validation("Description cannot be longer than 255 characters", "DESCRIPTION_TOO_LONG")
	}
	if req.DueDate != nil && validator.IsPast(*req.DueDate, now) {
		return apperrors.Validation("Due date cannot be in the past", "DUE_DATE_PAST")
	}
	return nil
}

package groups

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

const (
	JoinCodeLength      = 10
	maxJoinCodeAttempts = 10
)

// CodeSource produces candidate join codes.
type CodeSource func() string

// RandomCode takes the first ten hex digits of a random UUID.
func RandomCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:JoinCodeLength]
}

var errJoinCodeExhausted = apperrors.Internal("Unable to generate join code", "JOIN_CODE_EXHAUSTED")

// uniqueJoinCode draws until a code is unused, giving up after maxJoinCodeAttempts.
func (s *Service) uniqueJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxJoinCodeAttempts; attempt++ {
		code := s.newCode()
		exists, err := s.store.JoinCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errJoinCodeExhausted
}

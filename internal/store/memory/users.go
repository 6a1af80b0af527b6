package memory

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/features/auth"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

type Users struct {
	mu      sync.RWMutex
	byID    map[primitive.ObjectID]auth.User
	byEmail map[string]primitive.ObjectID
}

func NewUsers() *Users {
	return &Users{
		byID:    make(map[primitive.ObjectID]auth.User),
		byEmail: make(map[string]primitive.ObjectID),
	}
}

func (s *Users) Create(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return fmt.Errorf("user email %q: %w", user.Email, apperrors.ErrDuplicate)
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.byID[user.ID] = *user
	s.byEmail[user.Email] = user.ID

	id, email := user.ID, user.Email
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.byID, id)
		delete(s.byEmail, email)
	})
	return nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	u := s.byID[id]
	return &u, nil
}

func (s *Users) GetByID(_ context.Context, id primitive.ObjectID) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

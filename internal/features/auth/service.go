package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/xyz-asif/todoshare/internal/pkg/logger"
	"github.com/xyz-asif/todoshare/internal/pkg/token"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

// Store is the user persistence the service needs. Lookups return nil, nil
// for missing users.
type Store interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*User, error)
}

type Service struct {
	store    Store
	tokens   *token.Manager
	hashCost int
	now      func() time.Time
}

func NewService(store Store, tokens *token.Manager) *Service {
	return &Service{
		store:    store,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// WithHashCost overrides the bcrypt cost, mostly for tests.
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

var errInvalidCredentials = apperrors.Unauthorized("Invalid email or password", "INVALID_CREDENTIALS")

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := ValidateRegister(&req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.Conflict("Email already in use", "EMAIL_TAKEN")
		}
		return nil, err
	}

	logger.Info("user registered", "user", user.ID.Hex())
	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.store.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	return s.issue(user)
}

func (s *Service) Me(ctx context.Context, userID primitive.ObjectID) (*User, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("User not found", "USER_NOT_FOUND")
	}
	return user, nil
}

// Exists lets other features check a user id without seeing the record.
func (s *Service) Exists(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (s *Service) issue(user *User) (*AuthResponse, error) {
	signed, err := s.tokens.GenerateToken(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, AccessToken: signed}, nil
}

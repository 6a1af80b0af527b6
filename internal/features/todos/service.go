package todos

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/authz"
	"github.com/xyz-asif/todoshare/internal/database"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

// Store is todo persistence. GetByID ignores ownership and returns nil, nil
// for a missing todo. Writes filter on owner and wrap ErrNotFound or
// ErrDuplicate from pkg/errors. Lock claims the todo for the surrounding
// transaction and wraps ErrNotFound when it is gone.
type Store interface {
	Create(ctx context.Context, todo *Todo) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Todo, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Todo, error)
	List(ctx context.Context, filter Filter) ([]Todo, error)
	TitleTaken(ctx context.Context, key string, excludeID primitive.ObjectID) (bool, error)
	Update(ctx context.Context, id, ownerID primitive.ObjectID, fields Fields) (*Todo, error)
	ToggleCompleted(ctx context.Context, id, ownerID primitive.ObjectID, at time.Time) (*Todo, error)
	Delete(ctx context.Context, id, ownerID primitive.ObjectID) error
	Lock(ctx context.Context, id primitive.ObjectID) error
}

// ShareRemover drops every share of a deleted todo.
type ShareRemover interface {
	DeleteByTodo(ctx context.Context, todoID primitive.ObjectID) error
}

type Service struct {
	store  Store
	shares ShareRemover
	tx     database.Transactor
	now    func() time.Time
}

func NewService(store Store, shares ShareRemover, tx database.Transactor) *Service {
	return &Service{store: store, shares: shares, tx: tx, now: time.Now}
}

var (
	errTodoNotFound = apperrors.NotFound("Todo not found", "TODO_NOT_FOUND")
	errTitleTaken   = apperrors.Conflict("A todo with this title already exists", "TITLE_TAKEN")
)

func (s *Service) List(ctx context.Context, ownerID primitive.ObjectID) ([]Todo, error) {
	return s.store.List(ctx, Filter{UserID: ownerID})
}

// ListByTitle matches substring case-insensitively and literally.
func (s *Service) ListByTitle(ctx context.Context, ownerID primitive.ObjectID, substring string) ([]Todo, error) {
	return s.store.List(ctx, Filter{UserID: ownerID, TitleContains: substring})
}

func (s *Service) ListByCompleted(ctx context.Context, ownerID primitive.ObjectID, completed bool) ([]Todo, error) {
	return s.store.List(ctx, Filter{UserID: ownerID, Completed: &completed})
}

// Find combines the title and completed filters of the list endpoint.
func (s *Service) Find(ctx context.Context, ownerID primitive.ObjectID, title string, completed *bool) ([]Todo, error) {
	return s.store.List(ctx, Filter{UserID: ownerID, TitleContains: title, Completed: completed})
}

func (s *Service) Get(ctx context.Context, id, ownerID primitive.ObjectID) (*Todo, error) {
	return s.authorize(ctx, ownerID, id, authz.TodoRead)
}

func (s *Service) Create(ctx context.Context, ownerID primitive.ObjectID, req TodoRequest) (*Todo, error) {
	if err := authz.Decide(ownerID, authz.TodoCreate, authz.Facts{}).Err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := ValidateTodo(&req, now); err != nil {
		return nil, err
	}

	key := TitleKey(req.Title)
	if err := s.ensureTitleFree(ctx, key, primitive.NilObjectID); err != nil {
		return nil, err
	}

	todo := &Todo{
		UserID:      ownerID,
		Title:       req.Title,
		TitleKey:    key,
		Description: req.Description,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, todo); err != nil {
		return nil, translate(err)
	}
	return todo, nil
}

// Update replaces title, description and due date. createdAt and completed
// are left alone.
func (s *Service) Update(ctx context.Context, id, ownerID primitive.ObjectID, req TodoRequest) (*Todo, error) {
	now := s.now().UTC()
	if err := ValidateTodo(&req, now); err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, ownerID, id, authz.TodoUpdate); err != nil {
		return nil, err
	}

	key := TitleKey(req.Title)
	if err := s.ensureTitleFree(ctx, key, id); err != nil {
		return nil, err
	}

	todo, err := s.store.Update(ctx, id, ownerID, Fields{
		Title:       req.Title,
		TitleKey:    key,
		Description: req.Description,
		DueDate:     req.DueDate,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, translate(err)
	}
	return todo, nil
}

func (s *Service) ToggleComplete(ctx context.Context, id, ownerID primitive.ObjectID) (*Todo, error) {
	if _, err := s.authorize(ctx, ownerID, id, authz.TodoToggle); err != nil {
		return nil, err
	}

	todo, err := s.store.ToggleCompleted(ctx, id, ownerID, s.now().UTC())
	if err != nil {
		return nil, translate(err)
	}
	return todo, nil
}

// Delete removes the todo and its shares together.
func (s *Service) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	if _, err := s.authorize(ctx, ownerID, id, authz.TodoDelete); err != nil {
		return err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, id, ownerID); err != nil {
			return err
		}
		return s.shares.DeleteByTodo(ctx, id)
	})
	return translate(err)
}

func (s *Service) authorize(ctx context.Context, actor, id primitive.ObjectID, action authz.Action) (*Todo, error) {
	todo, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var facts authz.Facts
	if todo != nil {
		facts.TodoFound = true
		facts.TodoOwnerID = todo.UserID
	}
	if err := authz.Decide(actor, action, facts).Err(); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *Service) ensureTitleFree(ctx context.Context, key string, excludeID primitive.ObjectID) error {
	taken, err := s.store.TitleTaken(ctx, key, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return errTitleTaken
	}
	return nil
}

// translate maps store sentinels that slipped past the pre-checks, for
// example a concurrent insert of the same title.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return errTodoNotFound
	case errors.Is(err, apperrors.ErrDuplicate):
		return errTitleTaken
	default:
		return err
	}
}

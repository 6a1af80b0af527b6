package shares

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/authz"
	"github.com/xyz-asif/todoshare/internal/database"
	"github.com/xyz-asif/todoshare/internal/features/groups"
	"github.com/xyz-asif/todoshare/internal/features/todos"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

type Store interface {
	FindOrCreate(ctx context.Context, groupID, todoID primitive.ObjectID, at time.Time) (*Share, error)
	Delete(ctx context.Context, groupID, todoID primitive.ObjectID) error
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Share, error)
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error
	DeleteByTodo(ctx context.Context, todoID primitive.ObjectID) error
}

// GroupLookup is the slice of groups.Store this feature reads and locks.
type GroupLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*groups.Group, error)
	IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	Lock(ctx context.Context, id primitive.ObjectID) error
}

// TodoLookup is the slice of todos.Store this feature reads and locks.
type TodoLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*todos.Todo, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]todos.Todo, error)
	Lock(ctx context.Context, id primitive.ObjectID) error
}

type Service struct {
	store  Store
	groups GroupLookup
	todos  TodoLookup
	tx     database.Transactor
	now    func() time.Time
}

func NewService(store Store, groups GroupLookup, todos TodoLookup, tx database.Transactor) *Service {
	return &Service{store: store, groups: groups, todos: todos, tx: tx, now: time.Now}
}

var (
	errGroupNotFound = apperrors.NotFound("Group not found", "GROUP_NOT_FOUND")
	errTodoNotFound  = apperrors.NotFound("Todo not found", "TODO_NOT_FOUND")
)

// ShareTodo is idempotent. The requester must be a group member and own the
// todo. Checks and insert run in one transaction with both documents
// claimed, so a concurrent delete of either cannot orphan the share.
func (s *Service) ShareTodo(ctx context.Context, groupID, todoID, requesterID primitive.ObjectID) (*Share, error) {
	var share *Share
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.authorize(ctx, requesterID, groupID, todoID, authz.TodoShare); err != nil {
			return err
		}
		if err := s.lock(ctx, groupID, todoID); err != nil {
			return err
		}

		var err error
		share, err = s.store.FindOrCreate(ctx, groupID, todoID, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

func (s *Service) UnshareTodo(ctx context.Context, groupID, todoID, requesterID primitive.ObjectID) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.authorize(ctx, requesterID, groupID, todoID, authz.TodoUnshare); err != nil {
			return err
		}
		return s.store.Delete(ctx, groupID, todoID)
	})
}

// ListSharedTodos returns the group's shared todos, optionally only those
// owned by ownerFilter. Membership is checked on every call.
func (s *Service) ListSharedTodos(ctx context.Context, groupID, requesterID primitive.ObjectID, ownerFilter *primitive.ObjectID) ([]todos.Todo, error) {
	if err := s.authorize(ctx, requesterID, groupID, primitive.NilObjectID, authz.GroupListSharedTodos); err != nil {
		return nil, err
	}

	shares, err := s.store.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return []todos.Todo{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(shares))
	for _, sh := range shares {
		ids = append(ids, sh.TodoID)
	}

	found, err := s.todos.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if ownerFilter == nil {
		return found, nil
	}

	filtered := make([]todos.Todo, 0, len(found))
	for _, t := range found {
		if t.UserID == *ownerFilter {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (s *Service) lock(ctx context.Context, groupID, todoID primitive.ObjectID) error {
	err := s.groups.Lock(ctx, groupID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return errGroupNotFound
	}
	if err != nil {
		return err
	}

	err = s.todos.Lock(ctx, todoID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return errTodoNotFound
	}
	return err
}

// authorize gathers facts lazily in rule order so a missing group is
// reported before anything about the todo is looked up.
func (s *Service) authorize(ctx context.Context, actor, groupID, todoID primitive.ObjectID, action authz.Action) error {
	var facts authz.Facts

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group != nil {
		facts.GroupFound = true
		facts.GroupOwnerID = group.OwnerID

		facts.Member, err = s.groups.IsMember(ctx, groupID, actor)
		if err != nil {
			return err
		}
	}

	if facts.GroupFound && facts.Member && authz.Requires(action, authz.TodoExists) {
		todo, err := s.todos.GetByID(ctx, todoID)
		if err != nil {
			return err
		}
		if todo != nil {
			facts.TodoFound = true
			facts.TodoOwnerID = todo.UserID
		}
	}

	return authz.Decide(actor, action, facts).Err()
}

package groups

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/authz"
	"github.com/xyz-asif/todoshare/internal/database"
	"github.com/xyz-asif/todoshare/internal/pkg/logger"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

// Store persists groups and memberships. Lookups return nil, nil for
// missing groups. AddMember is an idempotent find-or-create. Lock claims
// the group for the surrounding transaction.
type Store interface {
	CreateGroup(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Group, error)
	GetByJoinCode(ctx context.Context, code string) (*Group, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Group, error)
	DeleteGroup(ctx context.Context, id primitive.ObjectID) error
	Lock(ctx context.Context, id primitive.ObjectID) error

	AddMember(ctx context.Context, groupID, userID primitive.ObjectID, at time.Time) (*Membership, error)
	IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	ListMembers(ctx context.Context, groupID primitive.ObjectID) ([]Membership, error)
	ListMemberships(ctx context.Context, userID primitive.ObjectID) ([]Membership, error)
	RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error
	DeleteMembers(ctx context.Context, groupID primitive.ObjectID) error
}

// UserDirectory answers whether a user id is registered.
type UserDirectory interface {
	Exists(ctx context.Context, userID primitive.ObjectID) (bool, error)
}

// ShareCascade removes the shares of a deleted group.
type ShareCascade interface {
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error
}

type Service struct {
	store   Store
	users   UserDirectory
	shares  ShareCascade
	tx      database.Transactor
	newCode CodeSource
	now     func() time.Time
}

func NewService(store Store, users UserDirectory, shares ShareCascade, tx database.Transactor) *Service {
	return &Service{
		store:   store,
		users:   users,
		shares:  shares,
		tx:      tx,
		newCode: RandomCode,
		now:     time.Now,
	}
}

// WithCodeSource replaces the join code generator.
func (s *Service) WithCodeSource(src CodeSource) *Service {
	s.newCode = src
	return s
}

var (
	errUserNotFound       = apperrors.NotFound("User not found", "USER_NOT_FOUND")
	errMembershipNotFound = apperrors.NotFound("Membership not found", "MEMBERSHIP_NOT_FOUND")
	errGroupNotFound      = apperrors.NotFound("Group not found", "GROUP_NOT_FOUND")
	errJoinCodeTaken      = apperrors.Conflict("Join code already in use, try again", "JOIN_CODE_TAKEN")
)

// CreateGroup writes the group and the owner's membership together.
func (s *Service) CreateGroup(ctx context.Context, name string, ownerID primitive.ObjectID) (*Group, error) {
	name, err := ValidateGroupName(name)
	if err != nil {
		return nil, err
	}

	code, err := s.uniqueJoinCode(ctx)
	if err != nil {
		if errors.Is(err, errJoinCodeExhausted) {
			logger.Error("join code space exhausted", "attempts", maxJoinCodeAttempts)
		}
		return nil, err
	}

	now := s.now().UTC()
	group := &Group{Name: name, OwnerID: ownerID, JoinCode: code, CreatedAt: now}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		group.ID = primitive.NilObjectID
		if err := s.store.CreateGroup(ctx, group); err != nil {
			return err
		}
		_, err := s.store.AddMember(ctx, group.ID, ownerID, now)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, errJoinCodeTaken
		}
		return nil, err
	}

	logger.Info("group created", "group", group.ID.Hex(), "owner", ownerID.Hex())
	return group, nil
}

// JoinByCode is idempotent. Joining a group twice returns the existing
// membership. The lookup and the insert share one transaction so a
// concurrent DeleteGroup cannot leave the membership behind.
func (s *Service) JoinByCode(ctx context.Context, code string, userID primitive.ObjectID) (*Membership, error) {
	var membership *Membership
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		group, err := s.store.GetByJoinCode(ctx, NormalizeJoinCode(code))
		if err != nil {
			return err
		}
		if err := authz.Decide(userID, authz.GroupJoin, factsFor(group)).Err(); err != nil {
			return err
		}

		membership, err = s.addMember(ctx, group.ID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *Service) ListGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]Group, error) {
	memberships, err := s.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []Group{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}
	return s.store.FindByIDs(ctx, ids)
}

func (s *Service) GetGroupDetails(ctx context.Context, id, requesterID primitive.ObjectID) (*Group, error) {
	return s.authorize(ctx, requesterID, id, authz.GroupRead)
}

// DeleteGroup removes the group with its memberships and shares.
func (s *Service) DeleteGroup(ctx context.Context, id, requesterID primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.authorize(ctx, requesterID, id, authz.GroupDelete); err != nil {
			return err
		}
		if err := s.shares.DeleteByGroup(ctx, id); err != nil {
			return err
		}
		if err := s.store.DeleteMembers(ctx, id); err != nil {
			return err
		}
		return s.store.DeleteGroup(ctx, id)
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return errGroupNotFound
	}
	if err != nil {
		return err
	}

	logger.Info("group deleted", "group", id.Hex(), "by", requesterID.Hex())
	return nil
}

func (s *Service) ListMembers(ctx context.Context, groupID, requesterID primitive.ObjectID) ([]Membership, error) {
	if _, err := s.authorize(ctx, requesterID, groupID, authz.GroupListMembers); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, groupID)
}

// AddMember is idempotent like JoinByCode and runs in one transaction.
func (s *Service) AddMember(ctx context.Context, groupID, userID, requesterID primitive.ObjectID) (*Membership, error) {
	var membership *Membership
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.authorize(ctx, requesterID, groupID, authz.GroupAddMember); err != nil {
			return err
		}

		exists, err := s.users.Exists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return errUserNotFound
		}

		membership, err = s.addMember(ctx, groupID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// RemoveMember removes any existing membership, the owner's included.
// The removed user's shares stay in place.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID, requesterID primitive.ObjectID) error {
	if _, err := s.authorize(ctx, requesterID, groupID, authz.GroupRemoveMember); err != nil {
		return err
	}

	err := s.store.RemoveMember(ctx, groupID, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return errMembershipNotFound
	}
	return err
}

// addMember claims the group before inserting, so a DeleteGroup racing
// the caller's transaction conflicts instead of missing the new row.
func (s *Service) addMember(ctx context.Context, groupID, userID primitive.ObjectID) (*Membership, error) {
	err := s.store.Lock(ctx, groupID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, errGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.store.AddMember(ctx, groupID, userID, s.now().UTC())
}

// authorize loads the group and the facts action needs, then decides.
// Membership is only queried when the rule reads it.
func (s *Service) authorize(ctx context.Context, actor, groupID primitive.ObjectID, action authz.Action) (*Group, error) {
	group, err := s.store.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	facts := factsFor(group)
	if group != nil && authz.Requires(action, authz.GroupMember) {
		facts.Member, err = s.store.IsMember(ctx, groupID, actor)
		if err != nil {
			return nil, err
		}
	}

	if err := authz.Decide(actor, action, facts).Err(); err != nil {
		return nil, err
	}
	return group, nil
}

func factsFor(group *Group) authz.Facts {
	if group == nil {
		return authz.Facts{}
	}
	return authz.Facts{GroupFound: true, GroupOwnerID: group.OwnerID}
}

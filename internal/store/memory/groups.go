package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/features/groups"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

type memberKey struct {
	group, user primitive.ObjectID
}

type memberRow struct {
	m   groups.Membership
	seq int
}

type Groups struct {
	mu      sync.RWMutex
	groups  map[primitive.ObjectID]groups.Group
	codes   map[string]primitive.ObjectID
	members map[memberKey]*memberRow
	seq     int
}

func NewGroups() *Groups {
	return &Groups{
		groups:  make(map[primitive.ObjectID]groups.Group),
		codes:   make(map[string]primitive.ObjectID),
		members: make(map[memberKey]*memberRow),
	}
}

func (s *Groups) CreateGroup(ctx context.Context, group *groups.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.codes[group.JoinCode]; taken {
		return fmt.Errorf("join code %s: %w", group.JoinCode, apperrors.ErrDuplicate)
	}
	if group.ID.IsZero() {
		group.ID = primitive.NewObjectID()
	}
	s.groups[group.ID] = *group
	s.codes[group.JoinCode] = group.ID

	id, code := group.ID, group.JoinCode
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.groups, id)
		delete(s.codes, code)
	})
	return nil
}

func (s *Groups) GetByID(_ context.Context, id primitive.ObjectID) (*groups.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (s *Groups) GetByJoinCode(_ context.Context, code string) (*groups.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.codes[code]
	if !ok {
		return nil, nil
	}
	g := s.groups[id]
	return &g, nil
}

func (s *Groups) JoinCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.codes[code]
	return ok, nil
}

func (s *Groups) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]groups.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []groups.Group{}
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if g, ok := s.groups[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Groups) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return fmt.Errorf("group %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	delete(s.codes, g.JoinCode)
	delete(s.groups, id)

	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.groups[id] = g
		s.codes[g.JoinCode] = id
	})
	return nil
}

// Lock only checks existence. The Transactor already serializes transactions.
func (s *Groups) Lock(_ context.Context, id primitive.ObjectID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.groups[id]; !ok {
		return fmt.Errorf("group %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

func (s *Groups) AddMember(ctx context.Context, groupID, userID primitive.ObjectID, at time.Time) (*groups.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey{groupID, userID}
	if row, ok := s.members[key]; ok {
		m := row.m
		return &m, nil
	}

	s.seq++
	row := &memberRow{
		m: groups.Membership{
			ID:        primitive.NewObjectID(),
			GroupID:   groupID,
			UserID:    userID,
			CreatedAt: at,
		},
		seq: s.seq,
	}
	s.members[key] = row
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.members, key)
	})

	m := row.m
	return &m, nil
}

func (s *Groups) IsMember(_ context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.members[memberKey{groupID, userID}]
	return ok, nil
}

func (s *Groups) ListMembers(_ context.Context, groupID primitive.ObjectID) ([]groups.Membership, error) {
	return s.memberships(func(k memberKey) bool { return k.group == groupID }), nil
}

func (s *Groups) ListMemberships(_ context.Context, userID primitive.ObjectID) ([]groups.Membership, error) {
	return s.memberships(func(k memberKey) bool { return k.user == userID }), nil
}

func (s *Groups) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey{groupID, userID}
	row, ok := s.members[key]
	if !ok {
		return fmt.Errorf("membership %s/%s: %w", groupID.Hex(), userID.Hex(), apperrors.ErrNotFound)
	}
	delete(s.members, key)
	s.restoreOnRollback(ctx, map[memberKey]*memberRow{key: row})
	return nil
}

func (s *Groups) DeleteMembers(ctx context.Context, groupID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[memberKey]*memberRow)
	for k, row := range s.members {
		if k.group == groupID {
			removed[k] = row
			delete(s.members, k)
		}
	}
	s.restoreOnRollback(ctx, removed)
	return nil
}

func (s *Groups) restoreOnRollback(ctx context.Context, removed map[memberKey]*memberRow) {
	if len(removed) == 0 {
		return
	}
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for k, row := range removed {
			s.members[k] = row
		}
	})
}

// memberships returns matches oldest first, like the Mongo sort.
func (s *Groups) memberships(match func(memberKey) bool) []groups.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*memberRow
	for k, row := range s.members {
		if match(k) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]groups.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.m)
	}
	return out
}

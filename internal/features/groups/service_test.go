package groups_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/features/auth"
	"github.com/xyz-asif/todoshare/internal/features/groups"
	"github.com/xyz-asif/todoshare/internal/pkg/token"
	"github.com/xyz-asif/todoshare/internal/store/memory"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

type fixture struct {
	svc   *groups.Service
	store *memory.Store
}

func newFixture() *fixture {
	store := memory.New()
	users := auth.NewService(store.Users, token.NewManager("s", time.Hour))
	return &fixture{
		svc:   groups.NewService(store.Groups, users, store.Shares, store.Tx),
		store: store,
	}
}

func (f *fixture) user(t *testing.T, email string) primitive.ObjectID {
	t.Helper()
	u := &auth.User{Email: email}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return u.ID
}

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "got %v", err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, code, appErr.Code)
}

func TestCreateGroupMakesOwnerAMember(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")

	group, err := f.svc.CreateGroup(ctx, "  Team  ", owner)
	require.NoError(t, err)
	require.Equal(t, "Team", group.Name)
	require.Equal(t, owner, group.OwnerID)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{10}$`), group.JoinCode)

	members, err := f.svc.ListMembers(ctx, group.ID, owner)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, owner, members[0].UserID)

	mine, err := f.svc.ListGroupsForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestCreateGroupValidatesName(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateGroup(context.Background(), "   ", primitive.NewObjectID())
	requireCode(t, err, apperrors.ErrValidation, "NAME_REQUIRED")
}

func TestJoinByCodeIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, joiner := f.user(t, "a@example.com"), f.user(t, "b@example.com")

	group, err := f.svc.CreateGroup(ctx, "Team", owner)
	require.NoError(t, err)

	first, err := f.svc.JoinByCode(ctx, group.JoinCode, joiner)
	require.NoError(t, err)
	second, err := f.svc.JoinByCode(ctx, " "+group.JoinCode+" ", joiner)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	members, err := f.svc.ListMembers(ctx, group.ID, owner)
	require.NoError(t, err)
	require.Len(t, members, 2)

	_, err = f.svc.JoinByCode(ctx, "ffffffffff", joiner)
	requireCode(t, err, apperrors.ErrNotFound, "GROUP_NOT_FOUND")
}

func TestListGroupsForUserWithoutMemberships(t *testing.T) {
	f := newFixture()
	groupsFor, err := f.svc.ListGroupsForUser(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	require.NotNil(t, groupsFor)
	require.Empty(t, groupsFor)
}

func TestGroupDetailsAndMembershipRoles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	member := f.user(t, "member@example.com")
	outsider := f.user(t, "outsider@example.com")

	group, err := f.svc.CreateGroup(ctx, "Team", owner)
	require.NoError(t, err)
	_, err = f.svc.JoinByCode(ctx, group.JoinCode, member)
	require.NoError(t, err)

	got, err := f.svc.GetGroupDetails(ctx, group.ID, member)
	require.NoError(t, err)
	require.Equal(t, group.ID, got.ID)

	_, err = f.svc.GetGroupDetails(ctx, group.ID, outsider)
	requireCode(t, err, apperrors.ErrForbidden, "NOT_GROUP_MEMBER")

	_, err = f.svc.GetGroupDetails(ctx, primitive.NewObjectID(), owner)
	requireCode(t, err, apperrors.ErrNotFound, "GROUP_NOT_FOUND")

	// Members can read the group but not manage it.
	_, err = f.svc.ListMembers(ctx, group.ID, member)
	requireCode(t, err, apperrors.ErrForbidden, "NOT_GROUP_OWNER")
	_, err = f.svc.AddMember(ctx, group.ID, outsider, member)
	requireCode(t, err, apperrors.ErrForbidden, "NOT_GROUP_OWNER")
	err = f.svc.RemoveMember(ctx, group.ID, member, member)
	requireCode(t, err, apperrors.ErrForbidden, "NOT_GROUP_OWNER")
}

func TestOwnerManagesMembers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	invitee := f.user(t, "invitee@example.com")

	group, err := f.svc.CreateGroup(ctx, "Team", owner)
	require.NoError(t, err)

	_, err = f.svc.AddMember(ctx, group.ID, primitive.NewObjectID(), owner)
	requireCode(t, err, apperrors.ErrNotFound, "USER_NOT_FOUND")

	added, err := f.svc.AddMember(ctx, group.ID, invitee, owner)
	require.NoError(t, err)
	again, err := f.svc.AddMember(ctx, group.ID, invitee, owner)
	require.NoError(t, err)
	require.Equal(t, added.ID, again.ID)

	require.NoError(t, f.svc.RemoveMember(ctx, group.ID, invitee, owner))
	err = f.svc.RemoveMember(ctx, group.ID, invitee, owner)
	requireCode(t, err, apperrors.ErrNotFound, "MEMBERSHIP_NOT_FOUND")

	_, err = f.svc.GetGroupDetails(ctx, group.ID, invitee)
	requireCode(t, err, apperrors.ErrForbidden, "NOT_GROUP_MEMBER")

	// The owner's own membership is removable like any other; ownership stays.
	require.NoError(t, f.svc.RemoveMember(ctx, group.ID, owner, owner))
	_, err = f.svc.GetGroupDetails(ctx, group.ID, owner)
	requireCode(t, err, apperrors.ErrForbidden, "NOT_GROUP_MEMBER")
	err = f.svc.RemoveMember(ctx, group.ID, owner, owner)
	requireCode(t, err, apperrors.ErrNotFound, "MEMBERSHIP_NOT_FOUND")

	_, err = f.svc.AddMember(ctx, group.ID, owner, owner)
	require.NoError(t, err)
	_, err = f.svc.GetGroupDetails(ctx, group.ID, owner)
	require.NoError(t, err)
}

func TestJoinCodeGenerationGivesUp(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")

	calls := 0
	f.svc.WithCodeSource(func() string {
		calls++
		return "aaaaaaaaaa"
	})

	_, err := f.svc.CreateGroup(ctx, "First", owner)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	calls = 0
	_, err = f.svc.CreateGroup(ctx, "Second", owner)
	requireCode(t, err, apperrors.ErrInternal, "JOIN_CODE_EXHAUSTED")
	require.Equal(t, 10, calls)
}

func TestDeleteGroupCascades(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, member := f.user(t, "owner@example.com"), f.user(t, "member@example.com")

	group, err := f.svc.CreateGroup(ctx, "Team", owner)
	require.NoError(t, err)
	_, err = f.svc.JoinByCode(ctx, group.JoinCode, member)
	require.NoError(t, err)
	_, err = f.store.Shares.FindOrCreate(ctx, group.ID, primitive.NewObjectID(), time.Now())
	require.NoError(t, err)

	err = f.svc.DeleteGroup(ctx, group.ID, member)
	requireCode(t, err, apperrors.ErrForbidden, "NOT_GROUP_OWNER")

	require.NoError(t, f.svc.DeleteGroup(ctx, group.ID, owner))
	require.Equal(t, 0, f.store.Shares.Len())

	memberGroups, err := f.svc.ListGroupsForUser(ctx, member)
	require.NoError(t, err)
	require.Empty(t, memberGroups)

	_, err = f.svc.JoinByCode(ctx, group.JoinCode, member)
	requireCode(t, err, apperrors.ErrNotFound, "GROUP_NOT_FOUND")

	err = f.svc.DeleteGroup(ctx, group.ID, owner)
	requireCode(t, err, apperrors.ErrNotFound, "GROUP_NOT_FOUND")
}

// joinRacer runs onLookup once, right after the join code lookup.
type joinRacer struct {
	groups.Store
	onLookup func()
}

func (r *joinRacer) GetByJoinCode(ctx context.Context, code string) (*groups.Group, error) {
	g, err := r.Store.GetByJoinCode(ctx, code)
	if hook := r.onLookup; hook != nil {
		r.onLookup = nil
		hook()
	}
	return g, err
}

type brokenMemberships struct {
	groups.Store
}

func (brokenMemberships) AddMember(context.Context, primitive.ObjectID, primitive.ObjectID, time.Time) (*groups.Membership, error) {
	return nil, errors.New("memberships unavailable")
}

// settle lets a concurrent call finish if it can, keeping its result on done.
func settle(done chan error) {
	select {
	case err := <-done:
		done <- err
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoinByCodeRacingDeleteLeavesNoMembership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, joiner := f.user(t, "owner@example.com"), f.user(t, "joiner@example.com")

	group, err := f.svc.CreateGroup(ctx, "Team", owner)
	require.NoError(t, err)

	deleted := make(chan error, 1)
	racer := &joinRacer{Store: f.store.Groups}
	racer.onLookup = func() {
		go func() { deleted <- f.svc.DeleteGroup(ctx, group.ID, owner) }()
		settle(deleted)
	}
	users := auth.NewService(f.store.Users, token.NewManager("s", time.Hour))
	svc := groups.NewService(racer, users, f.store.Shares, f.store.Tx)

	_, err = svc.JoinByCode(ctx, group.JoinCode, joiner)
	require.NoError(t, err)
	require.NoError(t, <-deleted)

	member, err := f.store.Groups.IsMember(ctx, group.ID, joiner)
	require.NoError(t, err)
	require.False(t, member, "membership outlived its group")

	joined, err := f.svc.ListGroupsForUser(ctx, joiner)
	require.NoError(t, err)
	require.Empty(t, joined)
}

func TestCreateGroupRollsBackWhenOwnerMembershipFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")

	users := auth.NewService(f.store.Users, token.NewManager("s", time.Hour))
	svc := groups.NewService(brokenMemberships{f.store.Groups}, users, f.store.Shares, f.store.Tx).
		WithCodeSource(func() string { return "abcdef0123" })

	_, err := svc.CreateGroup(ctx, "Team", owner)
	require.Error(t, err)

	exists, err := f.store.Groups.JoinCodeExists(ctx, "abcdef0123")
	require.NoError(t, err)
	require.False(t, exists, "group without its owner membership was kept")
}

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/features/auth"
	"github.com/xyz-asif/todoshare/internal/features/groups"
	"github.com/xyz-asif/todoshare/internal/features/shares"
	"github.com/xyz-asif/todoshare/internal/features/todos"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

// Compile-time checks that the memory stores satisfy every feature contract.
var (
	_ auth.Store          = (*Users)(nil)
	_ todos.Store         = (*Todos)(nil)
	_ todos.ShareRemover  = (*Shares)(nil)
	_ groups.Store        = (*Groups)(nil)
	_ groups.ShareCascade = (*Shares)(nil)
	_ shares.Store        = (*Shares)(nil)
	_ shares.GroupLookup  = (*Groups)(nil)
	_ shares.TodoLookup   = (*Todos)(nil)
)

func TestUsersUniqueEmail(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()

	require.NoError(t, users.Create(ctx, &auth.User{Email: "a@example.com"}))
	err := users.Create(ctx, &auth.User{Email: "a@example.com"})
	require.True(t, errors.Is(err, apperrors.ErrDuplicate))

	u, err := users.GetByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestTodosTitleKeyFollowsUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewTodos()
	owner := primitive.NewObjectID()

	t1 := &todos.Todo{UserID: owner, Title: "One", TitleKey: "one", CreatedAt: time.Now()}
	require.NoError(t, store.Create(ctx, t1))

	_, err := store.Update(ctx, t1.ID, owner, todos.Fields{Title: "Two", TitleKey: "two"})
	require.NoError(t, err)

	taken, err := store.TitleTaken(ctx, "one", primitive.NilObjectID)
	require.NoError(t, err)
	require.False(t, taken)

	taken, err = store.TitleTaken(ctx, "two", t1.ID)
	require.NoError(t, err)
	require.False(t, taken, "a todo does not collide with itself")

	_, err = store.Update(ctx, t1.ID, primitive.NewObjectID(), todos.Fields{Title: "x", TitleKey: "x"})
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestTodosListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewTodos()
	owner := primitive.NewObjectID()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(ctx, &todos.Todo{
			UserID: owner, Title: title, TitleKey: title, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := store.List(ctx, todos.Filter{UserID: owner})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, []string{list[0].Title, list[1].Title, list[2].Title})

	other, err := store.List(ctx, todos.Filter{UserID: primitive.NewObjectID()})
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestGroupsAddMemberConcurrentIsSingleRow(t *testing.T) {
	ctx := context.Background()
	store := NewGroups()
	group, user := primitive.NewObjectID(), primitive.NewObjectID()

	var wg sync.WaitGroup
	ids := make([]primitive.ObjectID, 20)
	errs := make([]error, len(ids))
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := store.AddMember(ctx, group, user, time.Now())
			errs[i] = err
			if err == nil {
				ids[i] = m.ID
			}
		}(i)
	}
	wg.Wait()

	for i, id := range ids {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], id)
	}
	members, err := store.ListMembers(ctx, group)
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestGroupsUniqueJoinCode(t *testing.T) {
	ctx := context.Background()
	store := NewGroups()

	require.NoError(t, store.CreateGroup(ctx, &groups.Group{Name: "a", JoinCode: "0123456789"}))
	err := store.CreateGroup(ctx, &groups.Group{Name: "b", JoinCode: "0123456789"})
	require.True(t, errors.Is(err, apperrors.ErrDuplicate))
}

func TestSharesDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewShares()
	g1, g2, todo := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	_, err := store.FindOrCreate(ctx, g1, todo, time.Now())
	require.NoError(t, err)
	_, err = store.FindOrCreate(ctx, g2, todo, time.Now())
	require.NoError(t, err)
	_, err = store.FindOrCreate(ctx, g1, todo, time.Now())
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	require.NoError(t, store.DeleteByGroup(ctx, g1))
	require.Equal(t, 1, store.Len())
	require.NoError(t, store.DeleteByTodo(ctx, todo))
	require.Equal(t, 0, store.Len())
	require.NoError(t, store.Delete(ctx, g1, todo))
}

func TestTodosTitleSearchUsesSimpleCaseFolding(t *testing.T) {
	ctx := context.Background()
	store := NewTodos()
	owner := primitive.NewObjectID()

	for _, title := range []string{"Été plans", "Straße fixen", "a.c literal"} {
		require.NoError(t, store.Create(ctx, &todos.Todo{UserID: owner, Title: title, TitleKey: title, CreatedAt: time.Now()}))
	}

	search := func(needle string) []string {
		list, err := store.List(ctx, todos.Filter{UserID: owner, TitleContains: needle})
		require.NoError(t, err)
		out := []string{}
		for _, td := range list {
			out = append(out, td.Title)
		}
		return out
	}

	require.Equal(t, []string{"Été plans"}, search("éTÉ"))
	require.Equal(t, []string{"Straße fixen"}, search("STRAßE"))
	require.Empty(t, search("strasse"))
	require.Empty(t, search("abc"))
}

func TestTransactorRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := primitive.NewObjectID()

	kept := &todos.Todo{UserID: owner, Title: "Kept", TitleKey: "kept", CreatedAt: time.Now()}
	require.NoError(t, s.Todos.Create(ctx, kept))
	existing := &groups.Group{Name: "Old", OwnerID: owner, JoinCode: "old0000000"}
	require.NoError(t, s.Groups.CreateGroup(ctx, existing))
	_, err := s.Groups.AddMember(ctx, existing.ID, owner, time.Now())
	require.NoError(t, err)
	_, err = s.Shares.FindOrCreate(ctx, existing.ID, kept.ID, time.Now())
	require.NoError(t, err)

	var created *groups.Group
	boom := errors.New("boom")
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		created = &groups.Group{Name: "New", OwnerID: owner, JoinCode: "new0000000"}
		if err := s.Groups.CreateGroup(ctx, created); err != nil {
			return err
		}
		if _, err := s.Groups.AddMember(ctx, created.ID, owner, time.Now()); err != nil {
			return err
		}
		if _, err := s.Todos.Update(ctx, kept.ID, owner, todos.Fields{Title: "Renamed", TitleKey: "renamed"}); err != nil {
			return err
		}
		if err := s.Shares.DeleteByTodo(ctx, kept.ID); err != nil {
			return err
		}
		if err := s.Todos.Delete(ctx, kept.ID, owner); err != nil {
			return err
		}
		if err := s.Groups.DeleteMembers(ctx, existing.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	g, err := s.Groups.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, g, "group created in a failed transaction is gone")
	exists, err := s.Groups.JoinCodeExists(ctx, "new0000000")
	require.NoError(t, err)
	require.False(t, exists)

	td, err := s.Todos.GetByID(ctx, kept.ID)
	require.NoError(t, err)
	require.NotNil(t, td)
	require.Equal(t, "Kept", td.Title)
	taken, err := s.Todos.TitleTaken(ctx, "kept", primitive.NilObjectID)
	require.NoError(t, err)
	require.True(t, taken)
	taken, err = s.Todos.TitleTaken(ctx, "renamed", primitive.NilObjectID)
	require.NoError(t, err)
	require.False(t, taken)

	member, err := s.Groups.IsMember(ctx, existing.ID, owner)
	require.NoError(t, err)
	require.True(t, member)
	require.Equal(t, 1, s.Shares.Len())
}

func TestTransactorKeepsWritesOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := primitive.NewObjectID()

	group := &groups.Group{Name: "Team", OwnerID: owner, JoinCode: "team000000"}
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Groups.CreateGroup(ctx, group); err != nil {
			return err
		}
		_, err := s.Groups.AddMember(ctx, group.ID, owner, time.Now())
		return err
	})
	require.NoError(t, err)

	member, err := s.Groups.IsMember(ctx, group.ID, owner)
	require.NoError(t, err)
	require.True(t, member)
	require.NoError(t, s.Groups.Lock(ctx, group.ID))
	require.True(t, errors.Is(s.Groups.Lock(ctx, primitive.NewObjectID()), apperrors.ErrNotFound))
	require.True(t, errors.Is(s.Todos.Lock(ctx, primitive.NewObjectID()), apperrors.ErrNotFound))
}

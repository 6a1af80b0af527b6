package todos_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/features/todos"
	"github.com/xyz-asif/todoshare/internal/store/memory"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

func newService() (*todos.Service, *memory.Store) {
	store := memory.New()
	return todos.NewService(store.Todos, store.Shares, store.Tx), store
}

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "got %v", err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, code, appErr.Code)
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner := primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, todos.TodoRequest{Title: "  Buy milk ", Description: "2 litres"})
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())
	require.Equal(t, "Buy milk", created.Title)
	require.False(t, created.Completed)
	require.Equal(t, owner, created.UserID)

	got, err := svc.Get(ctx, created.ID, owner)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestGetHidesOtherOwnersTodos(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner, other := primitive.NewObjectID(), primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, todos.TodoRequest{Title: "Private", Description: "mine"})
	require.NoError(t, err)

	_, errOther := svc.Get(ctx, created.ID, other)
	_, errMissing := svc.Get(ctx, primitive.NewObjectID(), other)

	requireCode(t, errOther, apperrors.ErrNotFound, "TODO_NOT_FOUND")
	requireCode(t, errMissing, apperrors.ErrNotFound, "TODO_NOT_FOUND")
	require.Equal(t, errMissing.Error(), errOther.Error())

	_, err = svc.Update(ctx, created.ID, other, todos.TodoRequest{Title: "Stolen", Description: "x"})
	requireCode(t, err, apperrors.ErrNotFound, "TODO_NOT_FOUND")
	_, err = svc.ToggleComplete(ctx, created.ID, other)
	requireCode(t, err, apperrors.ErrNotFound, "TODO_NOT_FOUND")
	requireCode(t, svc.Delete(ctx, created.ID, other), apperrors.ErrNotFound, "TODO_NOT_FOUND")
}

func TestTitleUniquenessIsGlobalAndCaseInsensitive(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	_, err := svc.Create(ctx, alice, todos.TodoRequest{Title: "Study", Description: "Read book"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, bob, todos.TodoRequest{Title: "study", Description: "Read book"})
	requireCode(t, err, apperrors.ErrDuplicate, "TITLE_TAKEN")

	_, err = svc.Create(ctx, alice, todos.TodoRequest{Title: "STUDY", Description: "again"})
	requireCode(t, err, apperrors.ErrDuplicate, "TITLE_TAKEN")
}

func TestUpdateKeepsOwnTitle(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner := primitive.NewObjectID()

	first, err := svc.Create(ctx, owner, todos.TodoRequest{Title: "Study", Description: "Read book"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, todos.TodoRequest{Title: "Gym", Description: "Legs"})
	require.NoError(t, err)

	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	updated, err := svc.Update(ctx, first.ID, owner, todos.TodoRequest{Title: "STUDY", Description: "Read two books", DueDate: &due})
	require.NoError(t, err)
	require.Equal(t, "STUDY", updated.Title)
	require.True(t, first.CreatedAt.Equal(updated.CreatedAt))
	require.NotNil(t, updated.DueDate)

	_, err = svc.Update(ctx, first.ID, owner, todos.TodoRequest{Title: "gym", Description: "x"})
	requireCode(t, err, apperrors.ErrDuplicate, "TITLE_TAKEN")

	// The old key is released once the title changes.
	_, err = svc.Update(ctx, first.ID, owner, todos.TodoRequest{Title: "Library", Description: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, todos.TodoRequest{Title: "study", Description: "x"})
	require.NoError(t, err)
}

func TestValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	past := time.Now().Add(-time.Hour)
	long := strings.Repeat("é", 121)

	cases := []struct {
		name string
		req  todos.TodoRequest
		code string
	}{
		{"blank title", todos.TodoRequest{Title: "   ", Description: "d"}, "TITLE_REQUIRED"},
		{"blank description", todos.TodoRequest{Title: "t", Description: "\t"}, "DESCRIPTION_REQUIRED"},
		{"long title", todos.TodoRequest{Title: long, Description: "d"}, "TITLE_TOO_LONG"},
		{"long description", todos.TodoRequest{Title: "t", Description: strings.Repeat("d", 256)}, "DESCRIPTION_TOO_LONG"},
		{"past due date", todos.TodoRequest{Title: "t", Description: "d", DueDate: &past}, "DUE_DATE_PAST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner, tc.req)
			requireCode(t, err, apperrors.ErrValidation, tc.code)
		})
	}

	// 120 multi-byte characters is still within the limit.
	_, err := svc.Create(ctx, owner, todos.TodoRequest{Title: strings.Repeat("é", 120), Description: "d"})
	require.NoError(t, err)
}

func TestToggleFlipsBothWays(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner := primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, todos.TodoRequest{Title: "Flip", Description: "d"})
	require.NoError(t, err)

	toggled, err := svc.ToggleComplete(ctx, created.ID, owner)
	require.NoError(t, err)
	require.True(t, toggled.Completed)

	toggled, err = svc.ToggleComplete(ctx, created.ID, owner)
	require.NoError(t, err)
	require.False(t, toggled.Completed)
}

func TestListFilters(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner, other := primitive.NewObjectID(), primitive.NewObjectID()

	abc, err := svc.Create(ctx, owner, todos.TodoRequest{Title: "abc", Description: "d"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, todos.TodoRequest{Title: "a.c (literal)", Description: "d"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, todos.TodoRequest{Title: "ABCD", Description: "d"})
	require.NoError(t, err)
	_, err = svc.ToggleComplete(ctx, abc.ID, owner)
	require.NoError(t, err)

	all, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 2)

	found, err := svc.ListByTitle(ctx, owner, "ABC")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "abc", found[0].Title)

	found, err = svc.ListByTitle(ctx, owner, "a.c")
	require.NoError(t, err)
	require.Len(t, found, 1, "metacharacters match literally")
	require.Equal(t, "a.c (literal)", found[0].Title)

	done, err := svc.ListByCompleted(ctx, owner, true)
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, abc.ID, done[0].ID)

	completed := false
	open, err := svc.Find(ctx, owner, "literal", &completed)
	require.NoError(t, err)
	require.Len(t, open, 1)
}

func TestDeleteRemovesShares(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	owner := primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, todos.TodoRequest{Title: "Shared", Description: "d"})
	require.NoError(t, err)
	_, err = store.Shares.FindOrCreate(ctx, primitive.NewObjectID(), created.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID, owner))
	require.Equal(t, 0, store.Shares.Len())

	_, err = svc.Get(ctx, created.ID, owner)
	requireCode(t, err, apperrors.ErrNotFound, "TODO_NOT_FOUND")
}

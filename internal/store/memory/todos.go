package memory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/features/todos"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

type todoRow struct {
	todo todos.Todo
	seq  int
}

type Todos struct {
	mu     sync.RWMutex
	rows   map[primitive.ObjectID]*todoRow
	titles map[string]primitive.ObjectID
	seq    int
}

func NewTodos() *Todos {
	return &Todos{
		rows:   make(map[primitive.ObjectID]*todoRow),
		titles: make(map[string]primitive.ObjectID),
	}
}

func (s *Todos) Create(ctx context.Context, todo *todos.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.titles[todo.TitleKey]; taken {
		return fmt.Errorf("todo title %q: %w", todo.Title, apperrors.ErrDuplicate)
	}
	if todo.ID.IsZero() {
		todo.ID = primitive.NewObjectID()
	}
	s.seq++
	s.rows[todo.ID] = &todoRow{todo: *todo, seq: s.seq}
	s.titles[todo.TitleKey] = todo.ID

	id, key := todo.ID, todo.TitleKey
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.rows, id)
		delete(s.titles, key)
	})
	return nil
}

func (s *Todos) GetByID(_ context.Context, id primitive.ObjectID) (*todos.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	t := row.todo
	return &t, nil
}

func (s *Todos) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]todos.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*todoRow, 0, len(ids))
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if row, ok := s.rows[id]; ok && !seen[id] {
			seen[id] = true
			rows = append(rows, row)
		}
	}
	return newestFirst(rows), nil
}

// List matches TitleContains with a (?i) regexp. Like the Mongo "i"
// option it uses simple case folding, so "ß" does not match "ss".
func (s *Todos) List(_ context.Context, f todos.Filter) ([]todos.Todo, error) {
	var title *regexp.Regexp
	if f.TitleContains != "" {
		title = regexp.MustCompile("(?i)" + regexp.QuoteMeta(f.TitleContains))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*todoRow
	for _, row := range s.rows {
		t := row.todo
		if t.UserID != f.UserID {
			continue
		}
		if title != nil && !title.MatchString(t.Title) {
			continue
		}
		if f.Completed != nil && t.Completed != *f.Completed {
			continue
		}
		rows = append(rows, row)
	}
	return newestFirst(rows), nil
}

func (s *Todos) TitleTaken(_ context.Context, key string, excludeID primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.titles[key]
	return ok && id != excludeID, nil
}

func (s *Todos) Update(ctx context.Context, id, ownerID primitive.ObjectID, fields todos.Fields) (*todos.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	if holder, taken := s.titles[fields.TitleKey]; taken && holder != id {
		return nil, fmt.Errorf("todo %s title: %w", id.Hex(), apperrors.ErrDuplicate)
	}

	s.restoreOnRollback(ctx, row)
	delete(s.titles, row.todo.TitleKey)
	s.titles[fields.TitleKey] = id

	row.todo.Title = fields.Title
	row.todo.TitleKey = fields.TitleKey
	row.todo.Description = fields.Description
	row.todo.DueDate = fields.DueDate
	row.todo.UpdatedAt = fields.UpdatedAt

	t := row.todo
	return &t, nil
}

func (s *Todos) ToggleCompleted(ctx context.Context, id, ownerID primitive.ObjectID, at time.Time) (*todos.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	s.restoreOnRollback(ctx, row)
	row.todo.Completed = !row.todo.Completed
	row.todo.UpdatedAt = at

	t := row.todo
	return &t, nil
}

func (s *Todos) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.owned(id, ownerID)
	if err != nil {
		return err
	}
	delete(s.titles, row.todo.TitleKey)
	delete(s.rows, id)

	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows[id] = row
		s.titles[row.todo.TitleKey] = id
	})
	return nil
}

// Lock only checks existence. The Transactor already serializes transactions.
func (s *Todos) Lock(_ context.Context, id primitive.ObjectID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.rows[id]; !ok {
		return fmt.Errorf("todo %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

// restoreOnRollback puts row back to its current state if the transaction fails.
func (s *Todos) restoreOnRollback(ctx context.Context, row *todoRow) {
	prev := row.todo
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.titles, row.todo.TitleKey)
		row.todo = prev
		s.titles[prev.TitleKey] = prev.ID
	})
}

func (s *Todos) owned(id, ownerID primitive.ObjectID) (*todoRow, error) {
	row, ok := s.rows[id]
	if !ok || row.todo.UserID != ownerID {
		return nil, fmt.Errorf("todo %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return row, nil
}

// newestFirst orders by createdAt descending, later inserts first on ties.
func newestFirst(rows []*todoRow) []todos.Todo {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.todo.CreatedAt.Equal(b.todo.CreatedAt) {
			return a.todo.CreatedAt.After(b.todo.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]todos.Todo, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.todo)
	}
	return out
}

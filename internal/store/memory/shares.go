package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/features/shares"
)

type shareKey struct {
	group, todo primitive.ObjectID
}

type shareRow struct {
	share shares.Share
	seq   int
}

type Shares struct {
	mu   sync.RWMutex
	rows map[shareKey]*shareRow
	seq  int
}

func NewShares() *Shares {
	return &Shares{rows: make(map[shareKey]*shareRow)}
}

func (s *Shares) FindOrCreate(ctx context.Context, groupID, todoID primitive.ObjectID, at time.Time) (*shares.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := shareKey{groupID, todoID}
	if row, ok := s.rows[key]; ok {
		sh := row.share
		return &sh, nil
	}

	s.seq++
	row := &shareRow{
		share: shares.Share{
			ID:        primitive.NewObjectID(),
			GroupID:   groupID,
			TodoID:    todoID,
			CreatedAt: at,
		},
		seq: s.seq,
	}
	s.rows[key] = row
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.rows, key)
	})

	sh := row.share
	return &sh, nil
}

func (s *Shares) Delete(ctx context.Context, groupID, todoID primitive.ObjectID) error {
	key := shareKey{groupID, todoID}
	return s.deleteWhere(ctx, func(k shareKey) bool { return k == key })
}

func (s *Shares) ListByGroup(_ context.Context, groupID primitive.ObjectID) ([]shares.Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*shareRow
	for k, row := range s.rows {
		if k.group == groupID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]shares.Share, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.share)
	}
	return out, nil
}

func (s *Shares) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	return s.deleteWhere(ctx, func(k shareKey) bool { return k.group == groupID })
}

func (s *Shares) DeleteByTodo(ctx context.Context, todoID primitive.ObjectID) error {
	return s.deleteWhere(ctx, func(k shareKey) bool { return k.todo == todoID })
}

func (s *Shares) deleteWhere(ctx context.Context, match func(shareKey) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[shareKey]*shareRow)
	for k, row := range s.rows {
		if match(k) {
			removed[k] = row
			delete(s.rows, k)
		}
	}
	if len(removed) > 0 {
		onRollback(ctx, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for k, row := range removed {
				s.rows[k] = row
			}
		})
	}
	return nil
}

// Len is the number of stored shares.
func (s *Shares) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

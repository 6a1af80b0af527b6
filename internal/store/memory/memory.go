// Package memory keeps every store in process maps. It enforces the same
// unique keys as the Mongo indexes and backs STORE_DRIVER=memory and the
// feature tests.
package memory

import (
	"context"
	"sync"
)

// Store bundles one instance of every in-memory store.
type Store struct {
	Users  *Users
	Todos  *Todos
	Groups *Groups
	Shares *Shares
	Tx     *Transactor
}

func New() *Store {
	return &Store{
		Users:  NewUsers(),
		Todos:  NewTodos(),
		Groups: NewGroups(),
		Shares: NewShares(),
		Tx:     &Transactor{},
	}
}

// Transactor serializes transactional blocks. Writes made through a
// transaction's ctx are undone in reverse order when fn fails.
type Transactor struct {
	mu sync.Mutex
}

type txKey struct{}

type undoLog struct {
	steps []func()
}

func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	log := &undoLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		for i := len(log.steps) - 1; i >= 0; i-- {
			log.steps[i]()
		}
		return err
	}
	return nil
}

// onRollback records undo when ctx belongs to a transaction. Callers hold
// their store lock; undo takes it again when it runs.
func onRollback(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(txKey{}).(*undoLog); ok {
		log.steps = append(log.steps, undo)
	}
}

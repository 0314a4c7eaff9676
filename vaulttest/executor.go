package vaulttest

import (
	"context"
	"sync"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/store"
)

// Executor is an in memory custody.Executor. Each Update section runs on a
// cache wrap that is written on success and discarded on error.
type Executor struct {
	mu sync.Mutex
	db custody.CacheableKVStore
}

var _ custody.Executor = (*Executor)(nil)

// NewExecutor returns an executor over an empty store.
func NewExecutor() *Executor {
	return &Executor{db: store.MemStore()}
}

func (e *Executor) Update(ctx context.Context, fn func(custody.KVStore) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cache := e.db.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}

func (e *Executor) View(ctx context.Context, fn func(custody.ReadOnlyKVStore) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.db)
}

// Store gives direct access to the underlying store. Use it to arrange or
// inspect state, never while a section is running.
func (e *Executor) Store() custody.CacheableKVStore {
	return e.db
}

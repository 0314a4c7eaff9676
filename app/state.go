package app

import (
	"context"
	"sync"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// State is the custody.Executor of the application. Only one section runs at
// a time. An Update section works on a cache of the committed store that is
// written and committed as a new version when the section succeeds and
// dropped when it fails.
type State struct {
	mu        sync.Mutex
	committed custody.CommitKVStore
}

var _ custody.Executor = (*State)(nil)

// NewState loads the latest version of the store.
func NewState(committed custody.CommitKVStore) (*State, error) {
	if err := committed.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	return &State{committed: committed}, nil
}

// Update runs fn atomically. A cancelled context does not prevent the
// section from running, a handler must be able to record the outcome of a
// call that is already done.
func (s *State) Update(ctx context.Context, fn func(db custody.KVStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.committed.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write cache")
	}
	id, err := s.committed.Commit()
	if err != nil {
		return errors.Wrap(err, "commit")
	}
	custody.GetLogger(ctx).Debug("Commit synced", "version", id.Version)
	return nil
}

// View runs fn on the latest state. Writes done by fn are dropped.
func (s *State) View(ctx context.Context, fn func(db custody.ReadOnlyKVStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.committed.CacheWrap()
	defer cache.Discard()
	return fn(cache)
}

// LatestVersion returns the version and hash of the last commit.
func (s *State) LatestVersion() custody.CommitID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed.LatestVersion()
}

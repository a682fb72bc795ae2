package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
)

// LockArena hands out one RWMutex per collection handle.
// Entries are reference counted and dropped when the last holder releases.
type LockArena struct {
	mu    sync.Mutex
	locks map[string]*arenaEntry
}

type arenaEntry struct {
	rw   sync.RWMutex
	refs int
}

// NewLockArena creates an empty arena. One arena must be shared by every
// service that touches the same document store.
func NewLockArena() *LockArena {
	return &LockArena{locks: make(map[string]*arenaEntry)}
}

func (a *LockArena) acquire(handle string) *arenaEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.locks[handle]
	if !ok {
		e = &arenaEntry{}
		a.locks[handle] = e
	}
	e.refs++
	return e
}

func (a *LockArena) release(handle string, e *arenaEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(a.locks, handle)
	}
}

// Lock takes the exclusive lock for handle and returns its release func.
func (a *LockArena) Lock(handle string) func() {
	e := a.acquire(handle)
	e.rw.Lock()
	return func() {
		e.rw.Unlock()
		a.release(handle, e)
	}
}

// RLock takes the shared lock for handle and returns its release func.
func (a *LockArena) RLock(handle string) func() {
	e := a.acquire(handle)
	e.rw.RLock()
	return func() {
		e.rw.RUnlock()
		a.release(handle, e)
	}
}

// LockCollection resolves name, takes the exclusive lock on its handle and
// resolves it again under the lock. A collection deleted, or deleted and
// recreated, while waiting is reported as domain.ErrNotFound so nothing is
// written under a handle the registry no longer points to.
func (a *LockArena) LockCollection(ctx context.Context, store driven.CollectionStore, name string) (*domain.Collection, func(), error) {
	c, err := store.Get(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("collection %q: %w", name, err)
	}

	unlock := a.Lock(c.Handle)
	current, err := store.Get(ctx, name)
	if err != nil {
		unlock()
		return nil, nil, fmt.Errorf("collection %q: %w", name, err)
	}
	if current.Handle != c.Handle {
		unlock()
		return nil, nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	return current, unlock, nil
}

// size reports the number of live entries.
func (a *LockArena) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}

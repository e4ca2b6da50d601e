// Package snapshot turns owner-scoped change notices into full-snapshot
// subscriptions: every notice re-runs the filtered query and pushes the
// complete result set.
package snapshot

import (
	"context"
	"sync"
)

// Feed carries "something changed for this owner" notices between writers
// and subscriptions. Notices carry no payload; readers re-query.
type Feed interface {
	Publish(ctx context.Context, ownerID string) error
	// Watch returns a channel that receives a value after each change. The
	// channel is closed once ctx is done. Bursts may be coalesced.
	Watch(ctx context.Context, ownerID string) (<-chan struct{}, error)
}

// LocalFeed is an in-process Feed for single-node stores.
type LocalFeed struct {
	mu       sync.Mutex
	nextID   int
	watchers map[string]map[int]chan struct{}
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{watchers: make(map[string]map[int]chan struct{})}
}

func (f *LocalFeed) Publish(_ context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.watchers[ownerID] {
		select {
		case ch <- struct{}{}:
		default:
			// A notice is already pending; the next refresh covers this one.
		}
	}
	return nil
}

func (f *LocalFeed) Watch(ctx context.Context, ownerID string) (<-chan struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := make(chan struct{}, 1)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if f.watchers[ownerID] == nil {
		f.watchers[ownerID] = make(map[int]chan struct{})
	}
	f.watchers[ownerID][id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.watchers[ownerID], id)
		if len(f.watchers[ownerID]) == 0 {
			delete(f.watchers, ownerID)
		}
		close(ch)
		f.mu.Unlock()
	}()
	return ch, nil
}

// Watchers reports how many live watches exist for ownerID.
func (f *LocalFeed) Watchers(ownerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers[ownerID])
}

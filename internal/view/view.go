// Package view keeps an in-memory, push-updated copy of the tasks matching a
// selector. Each Bind starts a new generation; callbacks registered under an
// older generation are ignored.
package view

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/schedule"
	"github.com/fastygo/planner/repository"
)

const ownerLookupTimeout = 5 * time.Second

// Snapshot is a consistent read of the view's state.
type Snapshot struct {
	Generation uint64
	State      State
	Selector   domain.Selector
	Dates      []domain.Date
	Tasks      []domain.Task
	// Owner is nil until resolved, and stays nil when the owner has no profile.
	Owner         *domain.UserProfile
	OwnerResolved bool
	Err           error
}

// ProfileLookup resolves owner identity with a one-shot read.
type ProfileLookup interface {
	GetOnce(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// Listener observes every accepted change: snapshots, owner resolution,
// failures. Listeners run serially and must not call Bind or Unbind.
type Listener func(Snapshot)

// LiveView holds at most one active subscription at a time.
type LiveView struct {
	store    repository.TaskStore
	profiles ProfileLookup
	logger   *zap.Logger

	mu            sync.RWMutex
	generation    uint64
	state         State
	selector      domain.Selector
	dates         []domain.Date
	tasks         []domain.Task
	owner         *domain.UserProfile
	ownerResolved bool
	err           error
	unsubscribe   repository.Unsubscribe
	cancelOwner   context.CancelFunc
	listeners     map[int]Listener
	nextID        int

	// notifyMu serializes listener calls and doubles as the Unbind barrier.
	notifyMu sync.Mutex
}

// New builds an unbound view. profiles may be nil, in which case the owner
// is never resolved.
func New(store repository.TaskStore, profiles ProfileLookup, logger *zap.Logger) *LiveView {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveView{
		store:     store,
		profiles:  profiles,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Bind points the view at sel. Any previous subscription is released before
// the new one is issued. Bind returns once the subscription is established;
// the first snapshot arrives asynchronously. ctx bounds the subscription's
// lifetime as well as its setup.
func (v *LiveView) Bind(ctx context.Context, sel domain.Selector) error {
	if err := sel.Validate(); err != nil {
		return err
	}

	dates := datesFor(sel)
	filter := repository.ForDates(sel.OwnerID, dates)
	if sel.Mode == domain.ModeDay {
		filter = repository.ForDate(sel.OwnerID, sel.Anchor)
	}

	v.mu.Lock()
	v.releaseLocked()
	v.generation++
	gen := v.generation
	v.state = StateSubscribing
	v.selector = sel
	v.dates = dates
	v.tasks = nil
	v.owner = nil
	v.ownerResolved = false
	v.err = nil
	v.mu.Unlock()

	v.logger.Debug("binding view",
		zap.String("owner_id", sel.OwnerID),
		zap.String("mode", string(sel.Mode)),
		zap.Stringer("anchor", sel.Anchor),
		zap.Uint64("generation", gen),
	)

	unsubscribe, err := v.store.Subscribe(ctx, filter, v.snapshotHandler(gen), v.errorHandler(gen))
	if err != nil {
		err = asSubscriptionError(err)
		v.mu.Lock()
		if v.generation != gen {
			v.mu.Unlock()
			return err
		}
		v.state = StateFailed
		v.err = err
		v.mu.Unlock()

		v.logger.Warn("view subscription failed", zap.String("owner_id", sel.OwnerID), zap.Error(err))
		v.notify(gen)
		return err
	}

	v.mu.Lock()
	if v.generation != gen {
		// Superseded while subscribing.
		v.mu.Unlock()
		unsubscribe()
		return nil
	}
	v.unsubscribe = unsubscribe
	var ownerCtx context.Context
	if v.profiles != nil {
		ownerCtx, v.cancelOwner = context.WithTimeout(ctx, ownerLookupTimeout)
	}
	v.mu.Unlock()

	if ownerCtx != nil {
		go v.resolveOwner(ownerCtx, gen, sel.OwnerID)
	}
	return nil
}

// Unbind releases the subscription. Once it returns no listener is invoked
// for the released generation.
func (v *LiveView) Unbind() {
	v.mu.Lock()
	if v.state == StateUnbound {
		v.mu.Unlock()
		return
	}
	v.releaseLocked()
	v.generation++
	v.state = StateUnbound
	v.tasks = nil
	v.dates = nil
	v.owner = nil
	v.ownerResolved = false
	v.err = nil
	v.mu.Unlock()

	v.notifyMu.Lock()
	v.notifyMu.Unlock()
}

// CurrentTasks returns the latest snapshot; empty before the first push.
func (v *LiveView) CurrentTasks() []domain.Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneTasks(v.tasks)
}

// Current returns a consistent copy of the whole view state.
func (v *LiveView) Current() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshotLocked()
}

func (v *LiveView) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

func (v *LiveView) Selector() domain.Selector {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selector
}

// Dates lists the dates covered by the current selector.
func (v *LiveView) Dates() []domain.Date {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.Date(nil), v.dates...)
}

func (v *LiveView) Generation() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.generation
}

// Subscribe registers fn and returns a function that removes it.
func (v *LiveView) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.listeners, id)
		v.mu.Unlock()
	}
}

func (v *LiveView) snapshotHandler(gen uint64) repository.SnapshotFunc {
	return func(tasks []domain.Task) {
		next := cloneTasks(tasks)

		v.mu.Lock()
		if v.generation != gen {
			v.mu.Unlock()
			return
		}
		v.tasks = next
		v.state = StateLive
		v.err = nil
		v.mu.Unlock()

		v.notify(gen)
	}
}

// errorHandler records refresh failures. The cached set is kept: the last
// good snapshot is still the best known state.
func (v *LiveView) errorHandler(gen uint64) repository.ErrorFunc {
	return func(err error) {
		v.mu.Lock()
		if v.generation != gen {
			v.mu.Unlock()
			return
		}
		v.err = err
		v.mu.Unlock()

		v.logger.Warn("view refresh failed", zap.Uint64("generation", gen), zap.Error(err))
		v.notify(gen)
	}
}

func (v *LiveView) resolveOwner(ctx context.Context, gen uint64, ownerID string) {
	profile, err := v.profiles.GetOnce(ctx, ownerID)
	if err != nil {
		profile = nil
		if !domain.IsNotFound(err) {
			v.logger.Warn("owner lookup failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}

	v.mu.Lock()
	if v.generation != gen {
		v.mu.Unlock()
		return
	}
	v.owner = profile
	v.ownerResolved = true
	v.mu.Unlock()

	v.notify(gen)
}

// notify hands listeners the state as it stands once notifyMu is held, so a
// change that queued behind a newer one never overwrites it.
func (v *LiveView) notify(gen uint64) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.RLock()
	if v.generation != gen {
		v.mu.RUnlock()
		return
	}
	snap := v.snapshotLocked()
	listeners := make([]Listener, 0, len(v.listeners))
	for _, fn := range v.listeners {
		listeners = append(listeners, fn)
	}
	v.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (v *LiveView) releaseLocked() {
	if v.cancelOwner != nil {
		v.cancelOwner()
		v.cancelOwner = nil
	}
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

func (v *LiveView) snapshotLocked() Snapshot {
	snap := Snapshot{
		Generation:    v.generation,
		State:         v.state,
		Selector:      v.selector,
		Dates:         append([]domain.Date(nil), v.dates...),
		Tasks:         cloneTasks(v.tasks),
		OwnerResolved: v.ownerResolved,
		Err:           v.err,
	}
	if v.owner != nil {
		owner := *v.owner
		snap.Owner = &owner
	}
	return snap
}

// datesFor derives the covered dates from the selector's anchor alone.
func datesFor(sel domain.Selector) []domain.Date {
	if sel.Mode == domain.ModeWeek {
		return schedule.WeekOf(sel.Anchor)
	}
	return []domain.Date{sel.Anchor}
}

func asSubscriptionError(err error) error {
	if domain.IsDomainError(err, domain.ErrCodeSubscription) {
		return err
	}
	return domain.SubscriptionError(err)
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	copy(out, tasks)
	return out
}

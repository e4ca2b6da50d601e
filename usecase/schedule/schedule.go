// Package schedule composes a live view, a missed-task alerter and the
// aggregation functions into schedule boards for one viewer.
package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/aggregate"
	"github.com/fastygo/planner/internal/alert"
	"github.com/fastygo/planner/internal/clock"
	sched "github.com/fastygo/planner/internal/schedule"
	"github.com/fastygo/planner/internal/view"
	"github.com/fastygo/planner/repository"
)

// ErrSnapshotTimeout is returned when no snapshot arrives in time.
var ErrSnapshotTimeout = domain.NewError(domain.ErrCodeStore, "timed out waiting for the first snapshot")

// AccessPolicy decides whether a viewer may watch an owner's schedule.
type AccessPolicy interface {
	CanView(ctx context.Context, viewerID, ownerID string) error
}

// Options tunes the boards produced by a Service.
type Options struct {
	Alert                alert.Options
	PreviewOrder         aggregate.PreviewOrder
	FirstSnapshotTimeout time.Duration
}

type Service struct {
	store    repository.TaskStore
	profiles view.ProfileLookup
	access   AccessPolicy
	clock    clock.Clock
	opts     Options
	logger   *zap.Logger
}

func NewService(
	store repository.TaskStore,
	profiles view.ProfileLookup,
	access AccessPolicy,
	clk clock.Clock,
	opts Options,
	logger *zap.Logger,
) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FirstSnapshotTimeout <= 0 {
		opts.FirstSnapshotTimeout = 3 * time.Second
	}
	return &Service{
		store:    store,
		profiles: profiles,
		access:   access,
		clock:    clk,
		opts:     opts,
		logger:   logger,
	}
}

// Open binds a new session to sel after the access check. The session lives
// until Close or until ctx ends.
func (s *Service) Open(ctx context.Context, viewerID string, sel domain.Selector) (*Session, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if s.access != nil {
		if err := s.access.CanView(ctx, viewerID, sel.OwnerID); err != nil {
			return nil, err
		}
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess := &Session{
		view:    view.New(s.store, s.profiles, s.logger),
		alerter: alert.New(s.clock, s.opts.Alert, s.logger),
		clock:   s.clock,
		order:   s.opts.PreviewOrder,
		logger:  s.logger,
		cancel:  cancel,
		updates: make(chan Board, 1),
		first:   make(chan struct{}),
		owner:   make(chan struct{}),
	}
	if s.profiles == nil {
		sess.ownerOnce.Do(func() { close(sess.owner) })
	}

	sess.unsubView = sess.view.Subscribe(sess.onView)
	sess.unsubAlert = sess.alerter.Subscribe(sess.onMissed)
	if err := sess.alerter.Start(); err != nil {
		sess.Close()
		return nil, err
	}
	if err := sess.view.Bind(sessCtx, sel); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// Snapshot opens a session, waits for the first snapshot and the owner
// lookup, and returns the resulting board. The session is released before
// returning. An owner lookup still pending at the deadline leaves the board
// with the fallback identity.
func (s *Service) Snapshot(ctx context.Context, viewerID string, sel domain.Selector) (Board, error) {
	sess, err := s.Open(ctx, viewerID, sel)
	if err != nil {
		return Board{}, err
	}
	defer sess.Close()

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.FirstSnapshotTimeout)
	defer cancel()
	if err := sess.WaitFirst(waitCtx); err != nil {
		return Board{}, err
	}
	if err := sess.WaitOwner(waitCtx); err != nil {
		s.logger.Debug("owner unresolved at snapshot deadline",
			zap.String("owner_id", sel.OwnerID),
			zap.Error(err),
		)
	}
	return sess.Board(), nil
}

// Session is one live schedule: a bound view feeding an alerter. Boards are
// pushed on Updates after every snapshot, owner resolution and alert change.
type Session struct {
	view    *view.LiveView
	alerter *alert.Alerter
	clock   clock.Clock
	order   aggregate.PreviewOrder
	logger  *zap.Logger
	cancel  context.CancelFunc

	unsubView  func()
	unsubAlert func()

	updates   chan Board
	first     chan struct{}
	firstOnce sync.Once
	owner     chan struct{}
	ownerOnce sync.Once
	closeOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// Board composes the current state.
func (s *Session) Board() Board {
	return compose(s.view.Current(), s.alerter.Missed(), s.order, s.clock.Now())
}

// Updates delivers the newest board; a slow reader only sees the latest one.
func (s *Session) Updates() <-chan Board {
	return s.updates
}

// WaitFirst blocks until the first snapshot has been applied. A failed bind
// or refresh error before that is returned instead.
func (s *Session) WaitFirst(ctx context.Context) error {
	select {
	case <-s.first:
		snap := s.view.Current()
		if snap.State != view.StateLive && snap.Err != nil {
			return snap.Err
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrSnapshotTimeout
		}
		return ctx.Err()
	}
}

// WaitOwner blocks until the owner lookup has settled, found or not. It
// returns at once when the session has no profile lookup or the bind failed.
func (s *Session) WaitOwner(ctx context.Context) error {
	select {
	case <-s.owner:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the alerter and unbinds the view. Safe to call repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.alerter.Stop()
		s.view.Unbind()
		if s.unsubAlert != nil {
			s.unsubAlert()
		}
		if s.unsubView != nil {
			s.unsubView()
		}
		s.cancel()
		s.logger.Debug("schedule session closed")
	})
}

func (s *Session) onView(snap view.Snapshot) {
	// Missed is a time-of-day comparison, so only today's tasks qualify.
	tasks := alert.SameDay(snap.Tasks, sched.Today(s.clock.Now()))
	// SetTasks publishes through onMissed only when the missed list changed.
	s.alerter.SetTasks(tasks)
	s.publish(compose(snap, s.alerter.Missed(), s.order, s.clock.Now()))

	if snap.State == view.StateLive || snap.State == view.StateFailed || snap.Err != nil {
		s.firstOnce.Do(func() { close(s.first) })
	}
	if snap.OwnerResolved || snap.State == view.StateFailed {
		s.ownerOnce.Do(func() { close(s.owner) })
	}
}

func (s *Session) onMissed(missed []domain.Task) {
	snap := s.view.Current()
	if snap.State == view.StateUnbound {
		return
	}
	s.publish(compose(snap, missed, s.order, s.clock.Now()))
}

func (s *Session) publish(board Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.updates:
	default:
	}
	s.updates <- board
}

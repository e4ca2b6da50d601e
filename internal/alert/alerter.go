// Package alert reports tasks whose hour slot has passed by more than a grace
// window without being completed.
package alert

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/clock"
)

const (
	// DefaultGrace is how long past its slot an open task may stay unflagged.
	DefaultGrace = 60 * time.Minute
	// DefaultInterval is the re-evaluation cadence.
	DefaultInterval = time.Minute
)

// Listener receives the missed list after each evaluation that changed it.
// Listeners run outside the alerter's state lock but must not call Stop.
type Listener func(missed []domain.Task)

// Options tunes an Alerter; zero values fall back to the defaults.
type Options struct {
	Grace time.Duration
	// Interval runs in whole seconds; a fractional part is dropped.
	Interval time.Duration
}

// Alerter re-evaluates a same-day task set on a fixed cadence and whenever
// the set changes.
type Alerter struct {
	clock    clock.Clock
	grace    time.Duration
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	tasks     []domain.Task
	missed    []domain.Task
	listeners map[int]Listener
	nextID    int
	active    bool
	cron      *cron.Cron
	// version counts changes to missed; emitted is the last version delivered.
	version uint64
	emitted uint64

	// emitMu serializes notifications so Stop can wait for an in-flight one.
	emitMu sync.Mutex
}

// New builds an inactive alerter. Call Start to begin periodic evaluation.
func New(clk clock.Clock, opts Options, logger *zap.Logger) *Alerter {
	if clk == nil {
		clk = clock.System{}
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.Interval < time.Second {
		opts.Interval = DefaultInterval
	}
	opts.Interval = opts.Interval.Truncate(time.Second)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alerter{
		clock:     clk,
		grace:     opts.Grace,
		interval:  opts.Interval,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Start evaluates immediately and schedules the periodic job. Calling Start
// on a running alerter is a no-op.
func (a *Alerter) Start() error {
	a.mu.Lock()
	if a.active {
		a.mu.Unlock()
		return nil
	}
	c := cron.New(cron.WithSeconds())
	c.Schedule(cron.Every(a.interval), cron.FuncJob(a.tick))
	a.cron = c
	a.active = true
	a.missed = Missed(a.tasks, a.clock.Now(), a.grace)
	a.version++
	a.mu.Unlock()

	c.Start()
	a.logger.Debug("missed-task alerter started", zap.Duration("interval", a.interval))
	a.emit()
	return nil
}

// Stop cancels the periodic job. Once Stop returns no listener is invoked
// again until the next Start.
func (a *Alerter) Stop() {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return
	}
	a.active = false
	c := a.cron
	a.cron = nil
	a.mu.Unlock()

	<-c.Stop().Done()

	// Barrier: wait out a notification that passed the active check.
	a.emitMu.Lock()
	a.emitMu.Unlock()
	a.logger.Debug("missed-task alerter stopped")
}

// SetTasks replaces the evaluated task set and recomputes right away, so a
// task completed a moment ago drops off without waiting for the next tick.
func (a *Alerter) SetTasks(tasks []domain.Task) {
	a.mu.Lock()
	a.tasks = cloneTasks(tasks)
	a.mu.Unlock()
	a.Recompute()
}

// Recompute evaluates the current set against the clock and notifies
// listeners when the missed list changed.
func (a *Alerter) Recompute() {
	a.mu.Lock()
	next := Missed(a.tasks, a.clock.Now(), a.grace)
	changed := !sameTasks(a.missed, next)
	a.missed = next
	if changed {
		a.version++
	}
	active := a.active
	a.mu.Unlock()

	if changed && active {
		a.emit()
	}
}

// Missed returns the most recent evaluation.
func (a *Alerter) Missed() []domain.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneTasks(a.missed)
}

// Subscribe registers fn and returns a function that removes it.
func (a *Alerter) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *Alerter) tick() {
	a.mu.Lock()
	active := a.active
	a.mu.Unlock()
	if !active {
		return
	}
	a.Recompute()
}

// emit delivers the missed list as it stands once emitMu is held. A call
// that queued behind a newer delivery finds nothing left to send.
func (a *Alerter) emit() {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.mu.Lock()
	if !a.active || a.version == a.emitted {
		a.mu.Unlock()
		return
	}
	a.emitted = a.version
	missed := cloneTasks(a.missed)
	listeners := make([]Listener, 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(missed)
	}
}

// Missed filters open tasks whose slot started more than grace before now.
// Only the time of day of now is used; callers feed same-day tasks.
func Missed(tasks []domain.Task, now time.Time, grace time.Duration) []domain.Task {
	current := now.Hour()*60 + now.Minute()
	graceMinutes := int(grace / time.Minute)

	var out []domain.Task
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		if current > task.ScheduledHour.Minutes()+graceMinutes {
			out = append(out, task)
		}
	}
	return out
}

// SameDay keeps the tasks scheduled on day, preserving order.
func SameDay(tasks []domain.Task, day domain.Date) []domain.Task {
	var out []domain.Task
	for _, task := range tasks {
		if task.ScheduledDate == day {
			out = append(out, task)
		}
	}
	return out
}

func sameTasks(a, b []domain.Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Title != b[i].Title ||
			a[i].ScheduledHour != b[i].ScheduledHour || a[i].ScheduledDate != b[i].ScheduledDate {
			return false
		}
	}
	return true
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	if len(tasks) == 0 {
		return nil
	}
	return append([]domain.Task(nil), tasks...)
}

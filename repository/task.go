package repository

import (
	"context"
	"strings"

	"github.com/fastygo/planner/domain"
)

// MaxDateIn bounds a multi-date filter; a week view never needs more.
const MaxDateIn = 7

// TaskFilter selects an owner's tasks on one date or on a set of dates.
// Exactly one of Date and DateIn is set.
type TaskFilter struct {
	OwnerID string
	Date    *domain.Date
	DateIn  []domain.Date
}

// ForDate builds the single-day filter.
func ForDate(ownerID string, date domain.Date) TaskFilter {
	return TaskFilter{OwnerID: ownerID, Date: &date}
}

// ForDates builds the multi-date filter. The slice is copied.
func ForDates(ownerID string, dates []domain.Date) TaskFilter {
	return TaskFilter{OwnerID: ownerID, DateIn: append([]domain.Date(nil), dates...)}
}

func (f TaskFilter) Validate() error {
	if strings.TrimSpace(f.OwnerID) == "" {
		return domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidFilter.Message, errMissingOwner)
	}
	switch {
	case f.Date != nil && len(f.DateIn) > 0:
		return domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidFilter.Message, errBothDateForms)
	case f.Date == nil && len(f.DateIn) == 0:
		return domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidFilter.Message, errNoDate)
	case len(f.DateIn) > MaxDateIn:
		return domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidFilter.Message, errTooManyDates)
	}
	return nil
}

// Dates returns the dates the filter covers.
func (f TaskFilter) Dates() []domain.Date {
	if f.Date != nil {
		return []domain.Date{*f.Date}
	}
	return f.DateIn
}

// Matches reports whether task belongs to the filter's result set.
func (f TaskFilter) Matches(task domain.Task) bool {
	if task.OwnerID != f.OwnerID {
		return false
	}
	for _, d := range f.Dates() {
		if task.ScheduledDate == d {
			return true
		}
	}
	return false
}

// SnapshotFunc receives the complete current result set of a subscription.
type SnapshotFunc func(tasks []domain.Task)

// ErrorFunc receives failures that happen after a subscription is live.
type ErrorFunc func(err error)

// Unsubscribe releases a subscription. It is safe to call more than once.
type Unsubscribe func()

// TaskQuerier runs one-shot filtered reads.
type TaskQuerier interface {
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
}

// TaskStore is the document store contract consumed by live views and the
// mutation use case. Subscribe pushes full snapshots, never diffs; mutations
// are reported, never retried.
type TaskStore interface {
	TaskQuerier
	Subscribe(ctx context.Context, filter TaskFilter, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error)
	Create(ctx context.Context, task domain.Task) (string, error)
	Get(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) error
	Delete(ctx context.Context, id string) error
}

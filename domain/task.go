package domain

import (
	"strings"
	"time"
)

// Task represents one item placed on a user's hour grid for a calendar date.
type Task struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"ownerId"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	ScheduledDate Date       `json:"scheduledDate"`
	ScheduledHour Hour       `json:"scheduledHour"`
	Completed     bool       `json:"completed"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Completed
}

// Validate checks the invariants a task must hold before it is written.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(t.OwnerID) == "" {
		return NewError(ErrCodeInvalid, "task owner must not be empty")
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.ScheduledHour.Valid() {
		return ErrInvalidHour
	}
	if t.ScheduledDate.IsZero() {
		return ErrInvalidDate
	}
	if t.UpdatedAt != nil && t.UpdatedAt.Before(t.CreatedAt) {
		return NewError(ErrCodeInvalid, "task updatedAt precedes createdAt")
	}
	return nil
}

// TaskPatch carries the mutable fields of a partial update. Nil fields are
// left untouched. The owner is deliberately absent: it never changes.
type TaskPatch struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	ScheduledDate *Date   `json:"scheduledDate,omitempty"`
	ScheduledHour *Hour   `json:"scheduledHour,omitempty"`
	Completed     *bool   `json:"completed,omitempty"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ScheduledDate == nil &&
		p.ScheduledHour == nil && p.Completed == nil
}

// Validate rejects patches that would break a task invariant.
func (p TaskPatch) Validate() error {
	if p.IsEmpty() {
		return ErrInvalidPayload
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.ScheduledHour != nil && !p.ScheduledHour.Valid() {
		return ErrInvalidHour
	}
	if p.ScheduledDate != nil && p.ScheduledDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Apply returns a copy of t with the patch applied and UpdatedAt set to at.
func (p TaskPatch) Apply(t Task, at time.Time) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ScheduledDate != nil {
		t.ScheduledDate = *p.ScheduledDate
	}
	if p.ScheduledHour != nil {
		t.ScheduledHour = *p.ScheduledHour
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if at.Before(t.CreatedAt) {
		at = t.CreatedAt
	}
	t.UpdatedAt = &at
	return t
}

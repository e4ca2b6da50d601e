package domain

import (
	"errors"
	"testing"
	"time"
)

func validTask() Task {
	return Task{
		ID:            "t1",
		OwnerID:       "u1",
		Title:         "Write report",
		ScheduledDate: MustParseDate("2024-03-15"),
		ScheduledHour: 9,
		CreatedAt:     time.Date(2024, time.March, 14, 8, 0, 0, 0, time.UTC),
	}
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Task)
		want   error
	}{
		{name: "valid", mutate: func(*Task) {}},
		{name: "blank title", mutate: func(tk *Task) { tk.Title = "   " }, want: ErrEmptyTitle},
		{name: "hour out of range", mutate: func(tk *Task) { tk.ScheduledHour = 24 }, want: ErrInvalidHour},
		{name: "missing date", mutate: func(tk *Task) { tk.ScheduledDate = Date{} }, want: ErrInvalidDate},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(&task)
			err := task.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate = %v, want %v", err, tt.want)
			}
		})
	}

	task := validTask()
	task.OwnerID = ""
	if err := task.Validate(); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("missing owner err = %v", err)
	}
}

func TestTaskPatchApply(t *testing.T) {
	t.Parallel()
	task := validTask()
	done := true
	title := "Ship report"

	patch := TaskPatch{Completed: &done, Title: &title}
	if err := patch.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	at := task.CreatedAt.Add(time.Hour)
	got := patch.Apply(task, at)
	if !got.Completed || got.Title != title {
		t.Fatalf("Apply = %+v", got)
	}
	if got.UpdatedAt == nil || !got.UpdatedAt.Equal(at) {
		t.Fatalf("UpdatedAt = %v, want %v", got.UpdatedAt, at)
	}
	if got.OwnerID != task.OwnerID || got.ScheduledHour != task.ScheduledHour {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if task.Completed || task.UpdatedAt != nil {
		t.Fatal("Apply mutated its input")
	}
}

func TestTaskPatchClampsUpdatedAt(t *testing.T) {
	t.Parallel()
	task := validTask()
	done := true
	got := TaskPatch{Completed: &done}.Apply(task, task.CreatedAt.Add(-time.Minute))
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("UpdatedAt %v precedes CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("patched task invalid: %v", err)
	}
}

func TestTaskPatchValidate(t *testing.T) {
	t.Parallel()
	if err := (TaskPatch{}).Validate(); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("empty patch err = %v", err)
	}
	blank := " "
	if err := (TaskPatch{Title: &blank}).Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("blank title err = %v", err)
	}
	bad := Hour(30)
	if err := (TaskPatch{ScheduledHour: &bad}).Validate(); !errors.Is(err, ErrInvalidHour) {
		t.Fatalf("bad hour err = %v", err)
	}
}

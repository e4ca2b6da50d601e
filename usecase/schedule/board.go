package schedule

import (
	"time"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/aggregate"
	sched "github.com/fastygo/planner/internal/schedule"
	"github.com/fastygo/planner/internal/view"
)

// Owner is the display identity of the schedule's owner.
type Owner struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Initial     string `json:"initial"`
	Bio         string `json:"bio,omitempty"`
	Resolved    bool   `json:"resolved"`
}

// TaskCard is a task with its presentation labels.
type TaskCard struct {
	domain.Task
	Hour       string `json:"hour"`
	CreatedAgo string `json:"createdAgo"`
	Missed     bool   `json:"missed,omitempty"`
}

// HourRow is one non-empty slot of the day board.
type HourRow struct {
	Hour  string     `json:"hour"`
	Tasks []TaskCard `json:"tasks"`
}

// WeekTile is a day summary with its rendered labels.
type WeekTile struct {
	aggregate.DaySummary
	CountLabel    string `json:"countLabel"`
	OverflowLabel string `json:"overflowLabel,omitempty"`
}

// Board is the composed read model of one live schedule.
type Board struct {
	Generation uint64               `json:"generation"`
	State      view.State           `json:"state"`
	Selector   domain.Selector      `json:"selector"`
	Title      string               `json:"title"`
	Today      domain.Date          `json:"today"`
	Previous   domain.Date          `json:"previous"`
	Next       domain.Date          `json:"next"`
	Owner      Owner                `json:"owner"`
	Hours      []HourRow            `json:"hours,omitempty"`
	Week       []WeekTile           `json:"week,omitempty"`
	Completion aggregate.Completion `json:"completion"`
	Perfect    bool                 `json:"perfect"`
	Missed     []TaskCard           `json:"missed"`
	Error      string               `json:"error,omitempty"`
}

// compose builds a board from one consistent view read and the alerter's
// latest evaluation. It performs no I/O.
func compose(snap view.Snapshot, missed []domain.Task, order aggregate.PreviewOrder, now time.Time) Board {
	today := sched.Today(now)
	sel := snap.Selector

	step := 1
	if sel.Mode == domain.ModeWeek {
		step = sched.DaysPerWeek
	}

	missedIDs := make(map[string]struct{}, len(missed))
	for _, task := range missed {
		missedIDs[task.ID] = struct{}{}
	}
	card := func(task domain.Task) TaskCard {
		_, isMissed := missedIDs[task.ID]
		return TaskCard{
			Task:       task,
			Hour:       task.ScheduledHour.String(),
			CreatedAgo: aggregate.CreatedAgo(task.CreatedAt, now),
			Missed:     isMissed,
		}
	}

	board := Board{
		Generation: snap.Generation,
		State:      snap.State,
		Selector:   sel,
		Title:      sched.LongLabel(sel.Anchor),
		Today:      today,
		Previous:   sched.ShiftDays(sel.Anchor, -step),
		Next:       sched.ShiftDays(sel.Anchor, step),
		Owner:      ownerOf(snap),
		Completion: aggregate.CompletionOf(snap.Tasks),
		Missed:     make([]TaskCard, 0, len(missed)),
	}
	board.Perfect = board.Completion.Perfect()
	if snap.Err != nil {
		board.Error = snap.Err.Error()
	}

	switch sel.Mode {
	case domain.ModeWeek:
		summaries := aggregate.Week(snap.Dates, snap.Tasks, aggregate.WeekOptions{
			Order:    order,
			Selected: sel.Anchor,
			Today:    today,
		})
		board.Week = make([]WeekTile, 0, len(summaries))
		for _, s := range summaries {
			board.Week = append(board.Week, WeekTile{
				DaySummary:    s,
				CountLabel:    s.CountLabel(),
				OverflowLabel: s.OverflowLabel(),
			})
		}
	default:
		buckets := aggregate.Day(snap.Tasks)
		board.Hours = make([]HourRow, 0, len(buckets))
		for _, b := range buckets {
			row := HourRow{Hour: b.Hour.String(), Tasks: make([]TaskCard, 0, len(b.Tasks))}
			for _, task := range b.Tasks {
				row.Tasks = append(row.Tasks, card(task))
			}
			board.Hours = append(board.Hours, row)
		}
	}

	for _, task := range missed {
		board.Missed = append(board.Missed, card(task))
	}
	return board
}

func ownerOf(snap view.Snapshot) Owner {
	owner := Owner{
		UserID:      snap.Selector.OwnerID,
		DisplayName: snap.Owner.DisplayName(),
		Initial:     snap.Owner.Initial(),
		Resolved:    snap.OwnerResolved,
	}
	if snap.Owner != nil {
		owner.Bio = snap.Owner.Bio
	}
	return owner
}

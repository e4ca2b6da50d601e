// Package aggregate derives day buckets, week summaries and completion
// statistics from a flat task set. All functions are pure.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/schedule"
)

// PreviewLimit is the number of titles shown per day in a week summary.
const PreviewLimit = 2

// PreviewOrder controls the order of titles in a week preview.
type PreviewOrder string

const (
	// PreviewStoreOrder keeps the order the store delivered.
	PreviewStoreOrder PreviewOrder = "store"
	// PreviewByHour sorts by scheduled hour, store order breaking ties.
	PreviewByHour PreviewOrder = "hour"
)

// ParsePreviewOrder maps a config value; anything unknown means store order.
func ParsePreviewOrder(value string) PreviewOrder {
	if PreviewOrder(value) == PreviewByHour {
		return PreviewByHour
	}
	return PreviewStoreOrder
}

// HourBucket groups the tasks of one slot.
type HourBucket struct {
	Hour  domain.Hour   `json:"hour"`
	Tasks []domain.Task `json:"tasks"`
}

// Day groups tasks by hour in ascending slot order. Empty slots are omitted
// and tasks inside a slot keep store order.
func Day(tasks []domain.Task) []HourBucket {
	var slots [domain.HoursPerDay][]domain.Task
	for _, task := range tasks {
		h := schedule.HourBucketOf(task)
		if !h.Valid() {
			continue
		}
		slots[h] = append(slots[h], task)
	}

	buckets := make([]HourBucket, 0, len(tasks))
	for h, list := range slots {
		if len(list) == 0 {
			continue
		}
		buckets = append(buckets, HourBucket{Hour: domain.Hour(h), Tasks: list})
	}
	return buckets
}

// PreviewItem is one title shown in a day tile.
type PreviewItem struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Hour      domain.Hour `json:"hour"`
	Completed bool        `json:"completed"`
}

// DaySummary is the week-view tile for one date.
type DaySummary struct {
	Date     domain.Date   `json:"date"`
	Label    string        `json:"label"`
	Number   int           `json:"number"`
	Count    int           `json:"count"`
	Preview  []PreviewItem `json:"preview"`
	Overflow int           `json:"overflow"`
	Selected bool          `json:"selected,omitempty"`
	Today    bool          `json:"today,omitempty"`
}

// OverflowLabel renders "+N more", or "" when nothing is hidden.
func (s DaySummary) OverflowLabel() string {
	if s.Overflow <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", s.Overflow)
}

// CountLabel renders "1 task" / "N tasks".
func (s DaySummary) CountLabel() string {
	if s.Count == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", s.Count)
}

// WeekOptions tunes Week.
type WeekOptions struct {
	Order    PreviewOrder
	Selected domain.Date
	Today    domain.Date
}

// Week builds one summary per date, in the order dates are given.
func Week(dates []domain.Date, tasks []domain.Task, opts WeekOptions) []DaySummary {
	byDate := make(map[domain.Date][]domain.Task, len(dates))
	for _, task := range tasks {
		byDate[task.ScheduledDate] = append(byDate[task.ScheduledDate], task)
	}

	summaries := make([]DaySummary, 0, len(dates))
	for _, date := range dates {
		dayTasks := byDate[date]
		if opts.Order == PreviewByHour {
			dayTasks = sortedByHour(dayTasks)
		}

		summary := DaySummary{
			Date:     date,
			Label:    schedule.DayLabel(date),
			Number:   schedule.DayNumber(date),
			Count:    len(dayTasks),
			Preview:  make([]PreviewItem, 0, PreviewLimit),
			Selected: date == opts.Selected,
			Today:    date == opts.Today,
		}
		for i, task := range dayTasks {
			if i == PreviewLimit {
				break
			}
			summary.Preview = append(summary.Preview, PreviewItem{
				ID:        task.ID,
				Title:     task.Title,
				Hour:      task.ScheduledHour,
				Completed: task.Completed,
			})
		}
		if summary.Count > PreviewLimit {
			summary.Overflow = summary.Count - PreviewLimit
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func sortedByHour(tasks []domain.Task) []domain.Task {
	if len(tasks) < 2 {
		return tasks
	}
	out := append([]domain.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledHour < out[j].ScheduledHour
	})
	return out
}

// Completion holds the completion statistics of a task set.
type Completion struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Rate      int `json:"rate"`
}

// Perfect reports a non-empty set with every task completed.
func (c Completion) Perfect() bool {
	return c.Total > 0 && c.Completed == c.Total
}

// CompletionOf computes completed/total and the rounded percentage. An empty
// set has a rate of 0.
func CompletionOf(tasks []domain.Task) Completion {
	c := Completion{Total: len(tasks)}
	for _, task := range tasks {
		if task.Completed {
			c.Completed++
		}
	}
	if c.Total == 0 {
		return c
	}
	c.Rate = int(math.Round(100 * float64(c.Completed) / float64(c.Total)))
	return c
}

// OnDate filters tasks scheduled for date, keeping store order.
func OnDate(tasks []domain.Task, date domain.Date) []domain.Task {
	var out []domain.Task
	for _, task := range tasks {
		if task.ScheduledDate == date {
			out = append(out, task)
		}
	}
	return out
}

// Package schedule holds the pure calendar arithmetic behind day and week views.
package schedule

import (
	"time"

	"github.com/jinzhu/now"

	"github.com/fastygo/planner/domain"
)

// DaysPerWeek is the length of a week view.
const DaysPerWeek = 7

// WeekStart is the first day of a week in the reference locale.
const WeekStart = time.Sunday

var weekConfig = &now.Config{WeekStartDay: WeekStart, TimeLocation: time.UTC}

// WeekDatesOf returns the seven dates of the week containing anchor, in
// ascending order. Every date is derived from the same frozen start value.
func WeekDatesOf(anchor domain.Date) [DaysPerWeek]domain.Date {
	start := domain.DateOf(weekConfig.With(anchor.Time(time.UTC)).BeginningOfWeek())

	var week [DaysPerWeek]domain.Date
	for i := range week {
		week[i] = start.AddDays(i)
	}
	return week
}

// WeekOf is WeekDatesOf as a slice, convenient for query filters.
func WeekOf(anchor domain.Date) []domain.Date {
	week := WeekDatesOf(anchor)
	return week[:]
}

// HourBucketOf returns the slot a task is grouped under.
func HourBucketOf(task domain.Task) domain.Hour {
	return task.ScheduledHour
}

// DayLabel is the short English weekday name ("Mon").
func DayLabel(date domain.Date) string {
	return date.Time(time.UTC).Format("Mon")
}

// DayNumber is the day of the month.
func DayNumber(date domain.Date) int {
	return date.Day
}

// LongLabel renders "Monday, January 2, 2006".
func LongLabel(date domain.Date) string {
	return date.Time(time.UTC).Format("Monday, January 2, 2006")
}

// ShiftDays moves a date forward or backward; used for prev/next navigation.
func ShiftDays(date domain.Date, days int) domain.Date {
	return date.AddDays(days)
}

// Today returns the calendar date of t in its own location.
func Today(t time.Time) domain.Date {
	return domain.DateOf(t)
}

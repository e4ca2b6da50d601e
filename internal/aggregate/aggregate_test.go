package aggregate

import (
	"fmt"
	"testing"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/schedule"
)

func task(id string, date string, hour domain.Hour, completed bool) domain.Task {
	return domain.Task{
		ID:            id,
		OwnerID:       "u1",
		Title:         "task " + id,
		ScheduledDate: domain.MustParseDate(date),
		ScheduledHour: hour,
		Completed:     completed,
	}
}

func TestDayBucketsOmitEmptyHours(t *testing.T) {
	t.Parallel()
	tasks := []domain.Task{
		task("a", "2024-03-11", 14, false),
		task("b", "2024-03-11", 9, false),
		task("c", "2024-03-11", 9, true),
	}

	buckets := Day(tasks)
	if len(buckets) != 2 {
		t.Fatalf("len(buckets) = %d, want 2", len(buckets))
	}
	if buckets[0].Hour != 9 || buckets[1].Hour != 14 {
		t.Fatalf("hours = %v, %v", buckets[0].Hour, buckets[1].Hour)
	}
	if len(buckets[0].Tasks) != 2 || buckets[0].Tasks[0].ID != "b" || buckets[0].Tasks[1].ID != "c" {
		t.Fatalf("09:00 bucket lost store order: %+v", buckets[0].Tasks)
	}
	if len(Day(nil)) != 0 {
		t.Fatal("empty input should yield no buckets")
	}
}

func TestWeekPreviewAndOverflow(t *testing.T) {
	t.Parallel()
	dates := schedule.WeekOf(domain.MustParseDate("2024-03-13"))
	busy := domain.MustParseDate("2024-03-13")

	var tasks []domain.Task
	for i, hour := range []domain.Hour{15, 8, 12, 9, 20} {
		tasks = append(tasks, task(fmt.Sprintf("t%d", i), busy.String(), hour, false))
	}
	tasks = append(tasks, task("other", "2024-03-11", 10, true))
	tasks = append(tasks, task("outside", "2024-03-20", 10, false))

	week := Week(dates, tasks, WeekOptions{Selected: busy, Today: busy})
	if len(week) != 7 {
		t.Fatalf("len(week) = %d", len(week))
	}

	var wed DaySummary
	for _, s := range week {
		if s.Date == busy {
			wed = s
		}
	}
	if wed.Count != 5 || wed.Overflow != 3 || wed.OverflowLabel() != "+3 more" {
		t.Fatalf("busy day = %+v (%q)", wed, wed.OverflowLabel())
	}
	if len(wed.Preview) != PreviewLimit || wed.Preview[0].ID != "t0" || wed.Preview[1].ID != "t1" {
		t.Fatalf("preview should follow store order: %+v", wed.Preview)
	}
	if !wed.Selected || !wed.Today || wed.Label != "Wed" || wed.Number != 13 {
		t.Fatalf("labels = %+v", wed)
	}
	if wed.CountLabel() != "5 tasks" {
		t.Fatalf("CountLabel = %q", wed.CountLabel())
	}

	total := 0
	for _, s := range week {
		total += s.Count
		if s.Count <= PreviewLimit && (s.Overflow != 0 || s.OverflowLabel() != "") {
			t.Fatalf("unexpected overflow on %s: %+v", s.Date, s)
		}
	}
	if total != 6 {
		t.Fatalf("week total = %d, want 6 (out-of-week task excluded)", total)
	}
}

func TestWeekPreviewByHour(t *testing.T) {
	t.Parallel()
	day := domain.MustParseDate("2024-03-13")
	tasks := []domain.Task{
		task("late", day.String(), 18, false),
		task("early", day.String(), 7, false),
		task("noon-a", day.String(), 12, false),
		task("noon-b", day.String(), 12, false),
	}
	week := Week([]domain.Date{day}, tasks, WeekOptions{Order: PreviewByHour})
	got := week[0].Preview
	if got[0].ID != "early" || got[1].ID != "noon-a" {
		t.Fatalf("hour order preview = %+v", got)
	}
	if tasks[0].ID != "late" {
		t.Fatal("sorting must not reorder the input")
	}
	if ParsePreviewOrder("hour") != PreviewByHour || ParsePreviewOrder("bogus") != PreviewStoreOrder {
		t.Fatal("ParsePreviewOrder mapping")
	}
}

func TestCompletion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		tasks   []domain.Task
		want    Completion
		perfect bool
	}{
		{name: "empty", tasks: nil, want: Completion{}},
		{
			name:  "half",
			tasks: []domain.Task{task("a", "2024-03-11", 9, true), task("b", "2024-03-11", 10, false)},
			want:  Completion{Completed: 1, Total: 2, Rate: 50},
		},
		{
			name: "rounds",
			tasks: []domain.Task{
				task("a", "2024-03-11", 9, true),
				task("b", "2024-03-11", 10, true),
				task("c", "2024-03-11", 11, false),
			},
			want: Completion{Completed: 2, Total: 3, Rate: 67},
		},
		{
			name:    "all done",
			tasks:   []domain.Task{task("a", "2024-03-11", 9, true)},
			want:    Completion{Completed: 1, Total: 1, Rate: 100},
			perfect: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := CompletionOf(tt.tasks)
			if got != tt.want {
				t.Fatalf("CompletionOf = %+v, want %+v", got, tt.want)
			}
			if got.Perfect() != tt.perfect {
				t.Fatalf("Perfect = %v", got.Perfect())
			}
		})
	}
}

func TestOnDate(t *testing.T) {
	t.Parallel()
	tasks := []domain.Task{
		task("a", "2024-03-11", 9, false),
		task("b", "2024-03-12", 9, false),
		task("c", "2024-03-11", 8, false),
	}
	got := OnDate(tasks, domain.MustParseDate("2024-03-11"))
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("OnDate = %+v", got)
	}
}

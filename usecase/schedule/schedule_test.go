package schedule

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/aggregate"
	"github.com/fastygo/planner/internal/clock"
	"github.com/fastygo/planner/internal/view"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/repository/bolt"
)

var monday = domain.MustParseDate("2024-03-11")

type denyPrivate map[string]bool

func (d denyPrivate) CanView(_ context.Context, viewerID, ownerID string) error {
	if viewerID != ownerID && d[ownerID] {
		return domain.ErrForbidden
	}
	return nil
}

type fixture struct {
	store    repository.TaskStore
	profiles repository.ProfileRepository
	clock    *clock.Manual
	svc      *Service
}

// slowProfiles delays every owner lookup.
type slowProfiles struct {
	view.ProfileLookup
	delay time.Duration
}

func (s slowProfiles) GetOnce(ctx context.Context, userID string) (*domain.UserProfile, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.ProfileLookup.GetOnce(ctx, userID)
}

func newFixture(t *testing.T, private ...string) fixture {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "schedule.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk := clock.NewManual(time.Date(2024, time.March, 11, 11, 0, 0, 0, time.UTC))
	store := bolt.NewTaskStore(db, clk, nil)
	profiles := bolt.NewProfileStore(db)
	if err := profiles.Save(context.Background(), &domain.UserProfile{UserID: "u1", Username: "ada", IsPublic: true}); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	policy := denyPrivate{}
	for _, id := range private {
		policy[id] = true
	}
	svc := NewService(store, profiles, policy, clk, Options{FirstSnapshotTimeout: 2 * time.Second}, nil)
	return fixture{store: store, profiles: profiles, clock: clk, svc: svc}
}

func (f fixture) create(t *testing.T, title string, date domain.Date, hour domain.Hour, completed bool) string {
	t.Helper()
	f.clock.Advance(time.Second)
	id, err := f.store.Create(context.Background(), domain.Task{
		OwnerID: "u1", Title: title, ScheduledDate: date, ScheduledHour: hour,
	})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	if completed {
		done := true
		if err := f.store.Update(context.Background(), id, domain.TaskPatch{Completed: &done}); err != nil {
			t.Fatalf("complete %q: %v", title, err)
		}
	}
	return id
}

func TestSnapshotDayBoard(t *testing.T) {
	f := newFixture(t)
	late := f.create(t, "late", monday, 9, false)
	f.create(t, "done", monday, 9, true)
	f.create(t, "upcoming", monday, 15, false)
	f.create(t, "tomorrow", monday.AddDays(1), 9, false)

	board, err := f.svc.Snapshot(context.Background(), "u1", domain.Selector{OwnerID: "u1", Mode: domain.ModeDay, Anchor: monday})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if board.State != view.StateLive || board.Title != "Monday, March 11, 2024" {
		t.Fatalf("board header = %s %q", board.State, board.Title)
	}
	if len(board.Hours) != 2 || board.Hours[0].Hour != "09:00" || len(board.Hours[0].Tasks) != 2 || board.Hours[1].Hour != "15:00" {
		t.Fatalf("hours = %+v", board.Hours)
	}
	if board.Completion != (aggregate.Completion{Completed: 1, Total: 3, Rate: 33}) || board.Perfect {
		t.Fatalf("completion = %+v perfect=%v", board.Completion, board.Perfect)
	}
	if len(board.Missed) != 1 || board.Missed[0].ID != late {
		t.Fatalf("missed = %+v", board.Missed)
	}
	if !board.Hours[0].Tasks[0].Missed || board.Hours[0].Tasks[1].Missed {
		t.Fatalf("missed flags = %+v", board.Hours[0].Tasks)
	}
	if board.Previous != monday.AddDays(-1) || board.Next != monday.AddDays(1) {
		t.Fatalf("navigation = %s / %s", board.Previous, board.Next)
	}
}

func TestSnapshotWaitsForSlowOwnerLookup(t *testing.T) {
	f := newFixture(t)
	f.create(t, "a", monday, 9, false)
	svc := NewService(f.store, slowProfiles{ProfileLookup: f.profiles, delay: 5 * time.Millisecond}, nil, f.clock,
		Options{FirstSnapshotTimeout: 2 * time.Second}, nil)

	for i := 0; i < 10; i++ {
		board, err := svc.Snapshot(context.Background(), "u1", domain.Selector{OwnerID: "u1", Mode: domain.ModeDay, Anchor: monday})
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if !board.Owner.Resolved || board.Owner.DisplayName != "ada" {
			t.Fatalf("run %d: owner = %+v", i, board.Owner)
		}
		if len(board.Hours) != 1 {
			t.Fatalf("run %d: hours = %+v", i, board.Hours)
		}
	}
}

func TestSnapshotWithoutProfileLookup(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, nil, nil, f.clock, Options{FirstSnapshotTimeout: 2 * time.Second}, nil)

	board, err := svc.Snapshot(context.Background(), "u1", domain.Selector{OwnerID: "u1", Mode: domain.ModeDay, Anchor: monday})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if board.Owner.Resolved || board.Owner.DisplayName != "User" {
		t.Fatalf("owner = %+v", board.Owner)
	}
}

func TestSnapshotWeekBoard(t *testing.T) {
	f := newFixture(t)
	f.create(t, "a", monday, 9, false)
	f.create(t, "b", monday, 10, false)
	f.create(t, "c", monday, 11, false)
	f.create(t, "next week", monday.AddDays(7), 9, false)

	board, err := f.svc.Snapshot(context.Background(), "u1", domain.Selector{OwnerID: "u1", Mode: domain.ModeWeek, Anchor: monday})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(board.Week) != 7 || len(board.Hours) != 0 {
		t.Fatalf("week = %d tiles, hours = %d", len(board.Week), len(board.Hours))
	}
	tile := board.Week[1]
	if tile.Date != monday || tile.Count != 3 || tile.CountLabel != "3 tasks" || tile.OverflowLabel != "+1 more" || !tile.Selected || !tile.Today {
		t.Fatalf("monday tile = %+v", tile)
	}
	if board.Previous != monday.AddDays(-7) || board.Next != monday.AddDays(7) {
		t.Fatalf("week navigation = %s / %s", board.Previous, board.Next)
	}
	if board.Completion.Total != 3 {
		t.Fatalf("completion covers other weeks: %+v", board.Completion)
	}
}

func TestSnapshotRespectsAccessPolicy(t *testing.T) {
	f := newFixture(t, "u1")
	sel := domain.Selector{OwnerID: "u1", Mode: domain.ModeDay, Anchor: monday}

	if _, err := f.svc.Snapshot(context.Background(), "u2", sel); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign viewer err = %v, want forbidden", err)
	}
	if _, err := f.svc.Snapshot(context.Background(), "u1", sel); err != nil {
		t.Fatalf("owner err = %v", err)
	}
}

func TestSessionPushesBoardsAfterWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.Open(ctx, "u1", domain.Selector{OwnerID: "u1", Mode: domain.ModeDay, Anchor: monday})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	if err := sess.WaitFirst(ctx); err != nil {
		t.Fatalf("WaitFirst: %v", err)
	}

	id := f.create(t, "fresh", monday, 16, false)
	deadline := time.After(2 * time.Second)
	for {
		select {
		case board := <-sess.Updates():
			if len(board.Hours) == 1 && len(board.Hours[0].Tasks) == 1 && board.Hours[0].Tasks[0].ID == id {
				if board.Hours[0].Tasks[0].CreatedAgo != "just now" {
					t.Fatalf("createdAgo = %q", board.Hours[0].Tasks[0].CreatedAgo)
				}
				return
			}
		case <-deadline:
			t.Fatalf("no board with the new task; last = %+v", sess.Board())
		}
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	sess, err := f.svc.Open(context.Background(), "u1", domain.Selector{OwnerID: "u1", Mode: domain.ModeDay, Anchor: monday})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess.Close()
	sess.Close()
	if sess.Board().State != view.StateUnbound {
		t.Fatalf("state after close = %s", sess.Board().State)
	}
}

func TestOpenRejectsInvalidSelector(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Open(context.Background(), "u1", domain.Selector{OwnerID: "u1", Mode: "month", Anchor: monday}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("err = %v", err)
	}
}

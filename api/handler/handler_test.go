package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/clock"
	"github.com/fastygo/planner/internal/infrastructure/monitor"
	"github.com/fastygo/planner/pkg/httpcontext"
	"github.com/fastygo/planner/repository/bolt"
	"github.com/fastygo/planner/usecase"
	profileUC "github.com/fastygo/planner/usecase/profile"
	scheduleUC "github.com/fastygo/planner/usecase/schedule"
	taskUC "github.com/fastygo/planner/usecase/task"
)

func TestMapError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrNotOwner, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrEmptyTitle, http.StatusBadRequest, "INVALID"},
		{domain.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.NewError(domain.ErrCodeConflict, "dup"), http.StatusConflict, "CONFLICT"},
		{domain.SubscriptionError(errors.New("denied")), http.StatusBadGateway, "SUBSCRIPTION"},
		{domain.StoreError("list", errors.New("down")), http.StatusServiceUnavailable, "STORE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		status, code := mapError(tt.err)
		if status != tt.wantStatus || code != tt.wantCode {
			t.Fatalf("mapError(%v) = %d %s, want %d %s", tt.err, status, code, tt.wantStatus, tt.wantCode)
		}
	}
}

type stack struct {
	schedule *ScheduleHandler
	tasks    *TaskHandler
	profiles *ProfileHandler
}

func newStack(t *testing.T) stack {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk := clock.NewManual(time.Date(2024, time.March, 11, 8, 0, 0, 0, time.UTC))
	store := bolt.NewTaskStore(db, clk, nil)
	dispatcher := usecase.NewDispatcher(time.Second, nil)
	t.Cleanup(func() { dispatcher.Close(context.Background()) })

	profiles := profileUC.New(bolt.NewProfileStore(db), nil, nil)
	schedule := scheduleUC.NewService(store, profiles.Resolver(), profiles, clk, scheduleUC.Options{}, nil)
	adapter := httpcontext.NewAdapter(2 * time.Second)

	return stack{
		schedule: NewScheduleHandler(context.Background(), schedule, clk, adapter, nil),
		tasks:    NewTaskHandler(taskUC.New(store, dispatcher, clk, nil), adapter, nil),
		profiles: NewProfileHandler(profiles, adapter, nil),
	}
}

func request(method, uri, userID, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if userID != "" {
		ctx.Request.Header.Set(httpcontext.UserIDHeader, userID)
	}
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	return ctx
}

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(ctx.Response.Body(), &env); err != nil {
		t.Fatalf("decode %q: %v", ctx.Response.Body(), err)
	}
	return env
}

func TestRequiresCaller(t *testing.T) {
	s := newStack(t)
	ctx := request(http.MethodGet, "/api/v1/schedule", "", "")
	s.schedule.GetBoard(ctx)
	if ctx.Response.StatusCode() != http.StatusUnauthorized {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestCreateTaskThenBoard(t *testing.T) {
	s := newStack(t)

	create := request(http.MethodPost, "/api/v1/tasks", "u1",
		`{"title":"Standup","scheduledDate":"2024-03-11","scheduledHour":"09:00"}`)
	s.tasks.CreateTask(create)
	if create.Response.StatusCode() != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", create.Response.StatusCode(), create.Response.Body())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, create).Data, &created); err != nil || created.ID == "" {
		t.Fatalf("created = %+v, %v", created, err)
	}

	board := request(http.MethodGet, "/api/v1/schedule?mode=day&date=2024-03-11", "u1", "")
	s.schedule.GetBoard(board)
	if board.Response.StatusCode() != http.StatusOK {
		t.Fatalf("board status = %d body = %s", board.Response.StatusCode(), board.Response.Body())
	}
	var got struct {
		Hours []struct {
			Hour  string `json:"hour"`
			Tasks []struct {
				ID string `json:"id"`
			} `json:"tasks"`
		} `json:"hours"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, board).Data, &got); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if len(got.Hours) != 1 || got.Hours[0].Hour != "09:00" || got.Hours[0].Tasks[0].ID != created.ID {
		t.Fatalf("board hours = %+v", got.Hours)
	}

	toggle := request(http.MethodPost, "/api/v1/tasks/"+created.ID+"/toggle", "u1", `{"completed":false}`)
	toggle.SetUserValue("id", created.ID)
	s.tasks.ToggleTask(toggle)
	if toggle.Response.StatusCode() != http.StatusNoContent {
		t.Fatalf("toggle status = %d body = %s", toggle.Response.StatusCode(), toggle.Response.Body())
	}

	foreign := request(http.MethodDelete, "/api/v1/tasks/"+created.ID, "u2", "")
	foreign.SetUserValue("id", created.ID)
	s.tasks.DeleteTask(foreign)
	if foreign.Response.StatusCode() != http.StatusForbidden {
		t.Fatalf("foreign delete status = %d", foreign.Response.StatusCode())
	}
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	s := newStack(t)
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "minute precision", body: `{"title":"x","scheduledDate":"2024-03-11","scheduledHour":"09:30"}`},
		{name: "blank title", body: `{"title":" ","scheduledDate":"2024-03-11","scheduledHour":"09:00"}`},
	}
	for _, tt := range tests {
		ctx := request(http.MethodPost, "/api/v1/tasks", "u1", tt.body)
		s.tasks.CreateTask(ctx)
		if ctx.Response.StatusCode() != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", tt.name, ctx.Response.StatusCode())
		}
	}
}

func TestBoardSelectorValidation(t *testing.T) {
	s := newStack(t)
	for _, uri := range []string{
		"/api/v1/schedule?mode=month",
		"/api/v1/schedule?date=11-03-2024",
	} {
		ctx := request(http.MethodGet, uri, "u1", "")
		s.schedule.GetBoard(ctx)
		if ctx.Response.StatusCode() != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", uri, ctx.Response.StatusCode())
		}
	}
}

func TestPrivateScheduleIsForbidden(t *testing.T) {
	s := newStack(t)
	save := request(http.MethodPut, "/api/v1/profile", "owner", `{"username":"owner","isPublic":false}`)
	s.profiles.UpdateProfile(save)
	if save.Response.StatusCode() != http.StatusOK {
		t.Fatalf("save status = %d body = %s", save.Response.StatusCode(), save.Response.Body())
	}

	ctx := request(http.MethodGet, "/api/v1/schedule?owner=owner", "viewer", "")
	s.schedule.GetBoard(ctx)
	if ctx.Response.StatusCode() != http.StatusForbidden {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	if env := decodeEnvelope(t, ctx); env.Status != "error" || env.Code != "FORBIDDEN" {
		t.Fatalf("envelope = %+v", env)
	}
}

type fixedStatus monitor.Status

func (s fixedStatus) GetStatus() monitor.Status { return monitor.Status(s) }

func TestHealth(t *testing.T) {
	healthy := NewHealthHandler(fixedStatus{Components: map[string]bool{"bolt": true}}, "bolt", nil, nil)
	ctx := request(http.MethodGet, "/health", "", "")
	healthy.Check(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("healthy status = %d", ctx.Response.StatusCode())
	}

	degraded := NewHealthHandler(fixedStatus{Components: map[string]bool{"postgres": true, "redis": false}}, "postgres", nil, nil)
	ctx = request(http.MethodGet, "/health", "", "")
	degraded.Check(ctx)
	if ctx.Response.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d", ctx.Response.StatusCode())
	}
}

package transport

import "github.com/fastygo/planner/domain"

// TaskCreateRequest is the body of POST /api/v1/tasks.
type TaskCreateRequest struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	ScheduledDate domain.Date `json:"scheduledDate"`
	ScheduledHour domain.Hour `json:"scheduledHour"`
}

// TaskUpdateRequest is the body of PATCH /api/v1/tasks/{id}. Absent fields
// are left untouched.
type TaskUpdateRequest = domain.TaskPatch

// ToggleRequest carries the completion state the client currently shows.
type ToggleRequest struct {
	Completed bool `json:"completed"`
}

type ProfileUpdateRequest struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
	IsPublic *bool  `json:"isPublic"`
	Email    string `json:"email"`
}

// TaskCreated is returned once a create has been stored.
type TaskCreated struct {
	ID string `json:"id"`
}

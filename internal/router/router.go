package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/planner/api/handler"
)

type Handlers struct {
	Schedule *apiHandler.ScheduleHandler
	Profile  *apiHandler.ProfileHandler
	Task     *apiHandler.TaskHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	v1 := r.Group("/api/v1")

	v1.GET("/schedule", authMiddleware(handlers.Schedule.GetBoard))
	v1.GET("/schedule/stream", authMiddleware(handlers.Schedule.Stream))

	v1.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	v1.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	v1.PATCH("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	v1.POST("/tasks/{id}/toggle", authMiddleware(handlers.Task.ToggleTask))
	v1.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	v1.GET("/profile", authMiddleware(handlers.Profile.GetProfile))
	v1.PUT("/profile", authMiddleware(handlers.Profile.UpdateProfile))
	v1.GET("/users/{id}/profile", authMiddleware(handlers.Profile.GetUserProfile))
	v1.GET("/community", authMiddleware(handlers.Profile.Community))

	return r
}

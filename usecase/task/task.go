package task

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/clock"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/usecase"
)

// CreateInput carries the caller-supplied fields of a new task.
type CreateInput struct {
	Title         string
	Description   string
	ScheduledDate domain.Date
	ScheduledHour domain.Hour
}

type UseCase struct {
	tasks      repository.TaskStore
	dispatcher *usecase.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

func New(tasks repository.TaskStore, dispatcher *usecase.Dispatcher, clk clock.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	if dispatcher == nil {
		dispatcher = usecase.NewDispatcher(0, logger)
	}
	return &UseCase{
		tasks:      tasks,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger,
	}
}

func (uc *UseCase) GetTask(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	task, err := uc.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, domain.ErrNotOwner
	}
	return task, nil
}

// CreateTask stores a new open task for ownerID and returns its id.
func (uc *UseCase) CreateTask(ctx context.Context, ownerID string, in CreateInput) (string, error) {
	task := domain.Task{
		OwnerID:       ownerID,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		ScheduledDate: in.ScheduledDate,
		ScheduledHour: in.ScheduledHour,
		Completed:     false,
		CreatedAt:     uc.clock.Now(),
	}
	if err := task.Validate(); err != nil {
		return "", err
	}

	id, err := uc.tasks.Create(ctx, task)
	if err != nil {
		uc.logger.Error("create task failed", zap.String("owner_id", ownerID), zap.Error(err))
		return "", err
	}
	return id, nil
}

func (uc *UseCase) UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if _, err := uc.GetTask(ctx, ownerID, id); err != nil {
		return err
	}
	if err := uc.tasks.Update(ctx, id, patch); err != nil {
		uc.logger.Error("update task failed", zap.String("task_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, ownerID, id string) error {
	if _, err := uc.GetTask(ctx, ownerID, id); err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		uc.logger.Error("delete task failed", zap.String("task_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ToggleComplete writes the negation of current, the completion state the
// caller last saw. Concurrent toggles resolve last-write-wins in the store.
func (uc *UseCase) ToggleComplete(ctx context.Context, ownerID, id string, current bool) error {
	next := !current
	return uc.UpdateTask(ctx, ownerID, id, domain.TaskPatch{Completed: &next})
}

// CreateAsync, UpdateAsync, DeleteAsync and ToggleAsync return immediately;
// the outcome arrives on the channel.

func (uc *UseCase) CreateAsync(ownerID string, in CreateInput) (<-chan string, <-chan error) {
	ids := make(chan string, 1)
	errs := uc.dispatcher.Dispatch("task.create", func(ctx context.Context) error {
		id, err := uc.CreateTask(ctx, ownerID, in)
		if err == nil {
			ids <- id
		}
		close(ids)
		return err
	})
	return ids, errs
}

func (uc *UseCase) UpdateAsync(ownerID, id string, patch domain.TaskPatch) <-chan error {
	return uc.dispatcher.Dispatch("task.update", func(ctx context.Context) error {
		return uc.UpdateTask(ctx, ownerID, id, patch)
	})
}

func (uc *UseCase) DeleteAsync(ownerID, id string) <-chan error {
	return uc.dispatcher.Dispatch("task.delete", func(ctx context.Context) error {
		return uc.DeleteTask(ctx, ownerID, id)
	})
}

func (uc *UseCase) ToggleAsync(ownerID, id string, current bool) <-chan error {
	return uc.dispatcher.Dispatch("task.toggle", func(ctx context.Context) error {
		return uc.ToggleComplete(ctx, ownerID, id, current)
	})
}

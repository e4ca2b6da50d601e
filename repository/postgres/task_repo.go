package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/clock"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/repository/snapshot"
)

const taskColumns = `id, owner_id, title, description, scheduled_date, scheduled_hour, completed, created_at, updated_at`

type taskRepository struct {
	pool   *pgxpool.Pool
	feed   snapshot.Feed
	clock  clock.Clock
	logger *zap.Logger
}

// NewTaskRepository returns a Postgres-backed TaskStore. Writes publish a
// change notice on feed; subscriptions re-query on every notice.
func NewTaskRepository(pool *pgxpool.Pool, feed snapshot.Feed, clk clock.Clock, logger *zap.Logger) repository.TaskStore {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &taskRepository{pool: pool, feed: feed, clock: clk, logger: logger}
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE owner_id = $1
	  AND scheduled_date = ANY($2)
	ORDER BY scheduled_date, created_at, id
	`
	rows, err := r.pool.Query(ctx, query, filter.OwnerID, dateArgs(filter.Dates()))
	if err != nil {
		return nil, domain.StoreError("list tasks", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, domain.StoreError("list tasks", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("list tasks", err)
	}
	return tasks, nil
}

func (r *taskRepository) Subscribe(
	ctx context.Context,
	filter repository.TaskFilter,
	onSnapshot repository.SnapshotFunc,
	onError repository.ErrorFunc,
) (repository.Unsubscribe, error) {
	return snapshot.Subscribe(ctx, r, r.feed, filter, onSnapshot, onError, r.logger)
}

func (r *taskRepository) Create(ctx context.Context, task domain.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.clock.Now()
	}
	if err := task.Validate(); err != nil {
		return "", err
	}

	const query = `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.pool.Exec(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		dateArg(task.ScheduledDate),
		int16(task.ScheduledHour),
		task.Completed,
		task.CreatedAt,
		nullTime(task.UpdatedAt),
	); err != nil {
		return "", domain.StoreError("create task", err)
	}

	r.publish(ctx, task.OwnerID)
	return task.ID, nil
}

func (r *taskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, domain.StoreError("get task", err)
	}
	return task, nil
}

// Update applies the patch inside a row-locked transaction so the
// updated_at clamp sees the stored created_at.
func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	var owner string
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const selectQuery = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`
		current, err := scanTask(tx.QueryRow(ctx, selectQuery, id))
		if err != nil {
			return err
		}
		next := patch.Apply(*current, r.clock.Now())

		const updateQuery = `
		UPDATE tasks
		SET title = $2,
			description = $3,
			scheduled_date = $4,
			scheduled_hour = $5,
			completed = $6,
			updated_at = $7
		WHERE id = $1
		`
		if _, err := tx.Exec(ctx, updateQuery,
			id,
			next.Title,
			next.Description,
			dateArg(next.ScheduledDate),
			int16(next.ScheduledHour),
			next.Completed,
			nullTime(next.UpdatedAt),
		); err != nil {
			return err
		}
		owner = next.OwnerID
		return nil
	})
	if err != nil {
		return domain.StoreError("update task", err)
	}

	r.publish(ctx, owner)
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1 RETURNING owner_id`
	var owner string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&owner); err != nil {
		if isNoRows(err) {
			return domain.ErrTaskNotFound
		}
		return domain.StoreError("delete task", err)
	}

	r.publish(ctx, owner)
	return nil
}

// publish failures are logged only: the write already succeeded.
func (r *taskRepository) publish(ctx context.Context, ownerID string) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, ownerID); err != nil {
		r.logger.Warn("change notice not published", zap.String("owner_id", ownerID), zap.Error(err))
	}
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var (
		task      domain.Task
		date      time.Time
		hour      int16
		updatedAt *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&date,
		&hour,
		&task.Completed,
		&task.CreatedAt,
		&updatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.ScheduledDate = domain.DateOf(date.UTC())
	task.ScheduledHour = domain.Hour(hour)
	task.UpdatedAt = updatedAt
	return &task, nil
}

package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/clock"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/repository/snapshot"
)

type taskStore struct {
	db     *DB
	feed   *snapshot.LocalFeed
	clock  clock.Clock
	logger *zap.Logger
}

// NewTaskStore returns a Bolt-backed TaskStore. Tasks list in date order as
// given by the filter, then by creation time.
func NewTaskStore(db *DB, clk clock.Clock, logger *zap.Logger) repository.TaskStore {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &taskStore{
		db:     db,
		feed:   snapshot.NewLocalFeed(),
		clock:  clk,
		logger: logger,
	}
}

func (s *taskStore) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tasks := []domain.Task{}
	err := s.db.db.View(func(tx *bbolt.Tx) error {
		index := tx.Bucket(bucketTaskIndex).Cursor()
		docs := tx.Bucket(bucketTasks)
		for _, date := range filter.Dates() {
			prefix := indexPrefix(filter.OwnerID, date)
			for k, id := index.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, id = index.Next() {
				raw := docs.Get(id)
				if raw == nil {
					continue
				}
				var task domain.Task
				if err := json.Unmarshal(raw, &task); err != nil {
					s.logger.Warn("skipping unreadable task", zap.ByteString("id", id), zap.Error(err))
					continue
				}
				tasks = append(tasks, task)
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.StoreError("list tasks", err)
	}
	return tasks, nil
}

func (s *taskStore) Subscribe(
	ctx context.Context,
	filter repository.TaskFilter,
	onSnapshot repository.SnapshotFunc,
	onError repository.ErrorFunc,
) (repository.Unsubscribe, error) {
	return snapshot.Subscribe(ctx, s, s.feed, filter, onSnapshot, onError, s.logger)
}

func (s *taskStore) Create(ctx context.Context, task domain.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.clock.Now()
	}
	if err := task.Validate(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return "", err
	}
	err = s.db.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketTasks)
		if docs.Get([]byte(task.ID)) != nil {
			return domain.NewError(domain.ErrCodeConflict, "task already exists")
		}
		if err := docs.Put([]byte(task.ID), payload); err != nil {
			return err
		}
		return tx.Bucket(bucketTaskIndex).Put(indexKey(task), []byte(task.ID))
	})
	if err != nil {
		return "", domain.StoreError("create task", err)
	}

	s.publish(ctx, task.OwnerID)
	return task.ID, nil
}

func (s *taskStore) Get(_ context.Context, id string) (*domain.Task, error) {
	var task *domain.Task
	err := s.db.db.View(func(tx *bbolt.Tx) error {
		loaded, err := loadTask(tx, id)
		task = loaded
		return err
	})
	if err != nil {
		return nil, domain.StoreError("get task", err)
	}
	return task, nil
}

func (s *taskStore) Update(ctx context.Context, id string, patch domain.TaskPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	var owner string
	err := s.db.db.Update(func(tx *bbolt.Tx) error {
		current, err := loadTask(tx, id)
		if err != nil {
			return err
		}
		next := patch.Apply(*current, s.clock.Now())
		payload, err := json.Marshal(next)
		if err != nil {
			return err
		}
		index := tx.Bucket(bucketTaskIndex)
		if err := index.Delete(indexKey(*current)); err != nil {
			return err
		}
		if err := index.Put(indexKey(next), []byte(next.ID)); err != nil {
			return err
		}
		owner = next.OwnerID
		return tx.Bucket(bucketTasks).Put([]byte(id), payload)
	})
	if err != nil {
		return domain.StoreError("update task", err)
	}

	s.publish(ctx, owner)
	return nil
}

func (s *taskStore) Delete(ctx context.Context, id string) error {
	var owner string
	err := s.db.db.Update(func(tx *bbolt.Tx) error {
		current, err := loadTask(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketTaskIndex).Delete(indexKey(*current)); err != nil {
			return err
		}
		owner = current.OwnerID
		return tx.Bucket(bucketTasks).Delete([]byte(id))
	})
	if err != nil {
		return domain.StoreError("delete task", err)
	}

	s.publish(ctx, owner)
	return nil
}

func (s *taskStore) publish(ctx context.Context, ownerID string) {
	if err := s.feed.Publish(ctx, ownerID); err != nil {
		s.logger.Warn("change notice dropped", zap.String("owner_id", ownerID), zap.Error(err))
	}
}

func loadTask(tx *bbolt.Tx, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	raw := tx.Bucket(bucketTasks).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrTaskNotFound
	}
	var task domain.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func indexPrefix(ownerID string, date domain.Date) []byte {
	return []byte(fmt.Sprintf("%s\x00%s\x00", ownerID, date))
}

func indexKey(task domain.Task) []byte {
	return []byte(fmt.Sprintf("%s\x00%s\x00%020d\x00%s",
		task.OwnerID, task.ScheduledDate, task.CreatedAt.UnixNano(), task.ID))
}

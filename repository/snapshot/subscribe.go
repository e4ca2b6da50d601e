package snapshot

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

// Subscribe starts a full-snapshot subscription. It returns once the change
// feed is watched; the first snapshot is delivered asynchronously. Setup
// failures come back as domain.ErrCodeSubscription errors, refresh failures
// go to onError.
func Subscribe(
	ctx context.Context,
	querier repository.TaskQuerier,
	feed Feed,
	filter repository.TaskFilter,
	onSnapshot repository.SnapshotFunc,
	onError repository.ErrorFunc,
	logger *zap.Logger,
) (repository.Unsubscribe, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if onSnapshot == nil {
		return nil, domain.SubscriptionError(domain.ErrInvalidPayload)
	}
	if err := filter.Validate(); err != nil {
		return nil, domain.SubscriptionError(err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	subCtx, cancel := context.WithCancel(ctx)
	notices, err := feed.Watch(subCtx, filter.OwnerID)
	if err != nil {
		cancel()
		return nil, domain.SubscriptionError(err)
	}

	refresh := func() {
		tasks, err := querier.List(subCtx, filter)
		if subCtx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("snapshot refresh failed", zap.String("owner_id", filter.OwnerID), zap.Error(err))
			if onError != nil {
				onError(domain.StoreError("refresh snapshot", err))
			}
			return
		}
		if tasks == nil {
			tasks = []domain.Task{}
		}
		onSnapshot(tasks)
	}

	go func() {
		refresh()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-notices:
				if !ok {
					return
				}
				refresh()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}, nil
}

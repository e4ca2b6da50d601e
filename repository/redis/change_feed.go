// Package redis carries task change notices between processes over Redis
// pub/sub so every node's subscriptions refresh after a write.
package redis

import (
	"context"
	"fmt"

	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/planner/repository/snapshot"
)

const defaultChannelPrefix = "tasks:owner:"

type changeFeed struct {
	client *goRedis.Client
	prefix string
	logger *zap.Logger
}

// NewChangeFeed builds a snapshot.Feed on Redis pub/sub. One channel exists
// per owner; messages carry no payload.
func NewChangeFeed(client *goRedis.Client, prefix string, logger *zap.Logger) snapshot.Feed {
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &changeFeed{client: client, prefix: prefix, logger: logger}
}

func (f *changeFeed) Publish(ctx context.Context, ownerID string) error {
	return f.client.Publish(ctx, f.channel(ownerID), "changed").Err()
}

// Watch confirms the subscription with Redis before returning so a failed
// connection surfaces as a setup error rather than a silent stall.
func (f *changeFeed) Watch(ctx context.Context, ownerID string) (<-chan struct{}, error) {
	channel := f.channel(ownerID)
	pubsub := f.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				f.logger.Debug("redis pubsub close", zap.String("channel", channel), zap.Error(err))
			}
		}()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (f *changeFeed) channel(ownerID string) string {
	return f.prefix + ownerID
}

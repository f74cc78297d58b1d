// Package pubsub carries the provisioning queue wake-up signal over Redis.
// The API process publishes after committing work; worker processes subscribe
// so new entries are picked up without waiting for the next poll tick.
package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/lumenhost/lumen/internal/shared/goroutine"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// WakeChannel is the Redis channel the queue wake-up signal travels on.
const WakeChannel = "lumen:provisioning:wake"

// RedisQueueSignal publishes queue wake-up notifications.
type RedisQueueSignal struct {
	client *redis.Client
	logger logger.Interface
}

// NewRedisQueueSignal creates a new Redis-backed queue signal publisher.
func NewRedisQueueSignal(client *redis.Client, logger logger.Interface) *RedisQueueSignal {
	return &RedisQueueSignal{
		client: client,
		logger: logger,
	}
}

// Wake notifies subscribed workers that new queue entries may be available.
// Delivery is best effort: workers also poll, so a lost signal only delays
// pickup until the next tick.
func (s *RedisQueueSignal) Wake(ctx context.Context) {
	if err := s.client.Publish(ctx, WakeChannel, "1").Err(); err != nil {
		s.logger.Warnw("failed to publish queue wake signal", "error", err)
	}
}

// NoopQueueSignal is used when Redis is not configured. Workers then rely on
// polling alone.
type NoopQueueSignal struct{}

func (NoopQueueSignal) Wake(ctx context.Context) {}

// QueueSubscriber listens for wake-up signals and forwards them as
// non-blocking nudges on a channel consumed by the worker pool.
type QueueSubscriber struct {
	client *redis.Client
	logger logger.Interface

	nudge  chan struct{}
	cancel context.CancelFunc
}

// NewQueueSubscriber creates a subscriber for the queue wake channel.
func NewQueueSubscriber(client *redis.Client, logger logger.Interface) *QueueSubscriber {
	return &QueueSubscriber{
		client: client,
		logger: logger,
		nudge:  make(chan struct{}, 1),
	}
}

// Nudges returns the channel that receives a token per wake-up signal.
// The channel has capacity one; coalesced signals are intentional since a
// single queue drain handles any number of pending entries.
func (s *QueueSubscriber) Nudges() <-chan struct{} {
	return s.nudge
}

// Start begins listening for wake-up signals until Stop is called.
func (s *QueueSubscriber) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	sub := s.client.Subscribe(ctx, WakeChannel)

	goroutine.SafeGo(s.logger, "queue-wake-subscriber", func() {
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case s.nudge <- struct{}{}:
				default:
				}
			}
		}
	})

	s.logger.Infow("queue wake subscriber started", "channel", WakeChannel)
}

// Stop terminates the subscription.
func (s *QueueSubscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

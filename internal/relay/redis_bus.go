package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
)

// RedisBus fans out over one pub/sub channel per notification, so every
// subscriber of a session sees its messages in publish order.
type RedisBus struct {
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func channelFor(notificationID string) string {
	return fmt.Sprintf("doorbell:messages:%s", notificationID)
}

func (b *RedisBus) Publish(ctx context.Context, msg model.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelFor(msg.NotificationID), payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, notificationID string) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channelFor(notificationID))

	// Force the SUBSCRIBE round-trip so a dead server fails here, not
	// silently on the channel.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSubscription{
		ps:  ps,
		out: make(chan model.Message, 16),
	}
	go sub.pump(ps.Channel())

	return sub, nil
}

type redisSubscription struct {
	ps  *redis.PubSub
	out chan model.Message

	mu     sync.Mutex
	err    error
	closed bool
}

func (s *redisSubscription) pump(in <-chan *redis.Message) {
	defer close(s.out)

	for raw := range in {
		var msg model.Message
		if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
			slog.Error("relay: dropping undecodable message", "err", err)
			continue
		}
		s.out <- msg
	}

	// The go-redis channel closes either on Close() or when the
	// connection drops for good.
	s.mu.Lock()
	if !s.closed {
		s.err = fmt.Errorf("pubsub channel closed")
	}
	s.mu.Unlock()
}

func (s *redisSubscription) Messages() <-chan model.Message {
	return s.out
}

func (s *redisSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *redisSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.ps.Close()
}

package relay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
)

// MemoryBus is an in-process Bus used when no Redis address is
// configured, and by tests.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string][]*memorySubscription
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memorySubscription)}
}

func (b *MemoryBus) Publish(_ context.Context, msg model.Message) error {
	b.mu.Lock()
	subs := make([]*memorySubscription, len(b.subs[msg.NotificationID]))
	copy(subs, b.subs[msg.NotificationID])
	b.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(msg)
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, notificationID string) (Subscription, error) {
	sub := &memorySubscription{
		bus:            b,
		notificationID: notificationID,
		out:            make(chan model.Message, 16),
	}

	b.mu.Lock()
	b.subs[notificationID] = append(b.subs[notificationID], sub)
	b.mu.Unlock()

	return sub, nil
}

func (b *MemoryBus) remove(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[sub.notificationID]
	for i, s := range subs {
		if s == sub {
			b.subs[sub.notificationID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

type memorySubscription struct {
	bus            *MemoryBus
	notificationID string
	out            chan model.Message

	mu     sync.Mutex
	closed bool
}

func (s *memorySubscription) deliver(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- msg:
	default:
		// Slow consumer. The push stream is a best-effort live tail;
		// consumers reconcile with a full re-read.
		slog.Warn("relay: dropping message for slow subscriber",
			"notification_id", msg.NotificationID, "message_id", msg.ID)
	}
}

func (s *memorySubscription) Messages() <-chan model.Message {
	return s.out
}

func (s *memorySubscription) Err() error {
	return nil
}

func (s *memorySubscription) Close() error {
	s.bus.remove(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.out)
	return nil
}

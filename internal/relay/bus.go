package relay

import (
	"context"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
)

// Bus is the change-notification primitive the relay fans out on. The
// push stream is a best-effort live tail: there is no replay, and after
// any connectivity gap consumers must fall back to a full re-read.
type Bus interface {
	// Publish delivers a freshly written message to every live
	// subscriber of its notification, in publish order.
	Publish(ctx context.Context, msg model.Message) error

	// Subscribe opens a live tail of messages for one notification.
	Subscribe(ctx context.Context, notificationID string) (Subscription, error)
}

// Subscription is an explicit handle over one live tail. Callers own
// its lifecycle and must Close it when the session ends.
type Subscription interface {
	// Messages delivers pushed messages. The channel closes when the
	// subscription is closed or the underlying channel drops.
	Messages() <-chan model.Message

	// Err reports why the channel closed, nil after a clean Close.
	Err() error

	Close() error
}

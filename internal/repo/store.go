package repo

import (
	"context"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
)

// DoorbellRepository reads ring targets. Doorbell rows are owned by the
// management screens; the core never writes them.
type DoorbellRepository interface {
	GetDoorbell(ctx context.Context, id string) (model.Doorbell, error)
}

// NotificationRepository persists visitor sessions.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotification(ctx context.Context, id string) (model.Notification, error)
	// CloseNotification flips status to closed. Idempotent: closing an
	// already-closed notification is not an error.
	CloseNotification(ctx context.Context, id string) error
}

// MessageRepository persists chat lines.
type MessageRepository interface {
	AppendMessage(ctx context.Context, m model.Message) error
	// ListMessages returns every message for a notification ordered by
	// creation time, ties broken by insertion order.
	ListMessages(ctx context.Context, notificationID string) ([]model.Message, error)
}

// Store bundles the three repositories a full deployment provides.
type Store interface {
	DoorbellRepository
	NotificationRepository
	MessageRepository
}

package model

import "time"

// Sender identifies which side of the chat authored a message.
type Sender string

const (
	SenderVisitor Sender = "visitor"
	SenderOwner   Sender = "owner"
)

// NotificationStatus is the durable session status. Transitions are
// monotonic: active -> closed, closed is terminal.
type NotificationStatus string

const (
	StatusActive NotificationStatus = "active"
	StatusClosed NotificationStatus = "closed"
)

// Doorbell is a ringable target. Rows are managed by the owner-facing
// screens; this core only reads them.
type Doorbell struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	WebhookURL string    `json:"webhook_url,omitempty"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// VisitorInfo is the transient identity captured during intake. It is
// never persisted on its own; it is consumed to produce a Notification.
type VisitorInfo struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Notification is one visitor interaction record, created exactly once
// per ring-to-intake transition.
type Notification struct {
	ID             string             `json:"id"`
	DoorbellID     string             `json:"doorbell_id"`
	VisitorName    string             `json:"visitor_name"`
	VisitorMessage string             `json:"visitor_message,omitempty"`
	Status         NotificationStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Message is one chat line attached to a notification. Immutable once
// created; ordered by creation time, ties broken by insertion order.
type Message struct {
	ID             string    `json:"id"`
	NotificationID string    `json:"notification_id"`
	Sender         Sender    `json:"sender"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

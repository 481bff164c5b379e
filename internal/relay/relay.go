// Package relay appends chat messages to the entity store and
// republishes them to every live subscriber in arrival order.
package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/JuanAmorAKD/digital-doorbell-chat/internal/errors"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/repo"
)

type Relay struct {
	messages repo.MessageRepository
	bus      Bus
	logger   *slog.Logger
}

func New(messages repo.MessageRepository, bus Bus, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{messages: messages, bus: bus, logger: logger}
}

// Send appends one message to the active session and returns once it is
// durably written. A failed store write means the message was not
// delivered; it is not re-queued. Fan-out to subscribers happens after
// the write, best-effort.
func (r *Relay) Send(ctx context.Context, notificationID string, sender model.Sender, content string) (model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Message{}, apperrors.NewValidation("content", "must not be empty")
	}

	msg := model.Message{
		ID:             uuid.NewString(),
		NotificationID: notificationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	if err := r.messages.AppendMessage(ctx, msg); err != nil {
		return model.Message{}, apperrors.NewStoreWrite("append message", err)
	}

	if err := r.bus.Publish(ctx, msg); err != nil {
		// The row is durable; subscribers reconcile via History.
		r.logger.Error("relay: publish failed", "notification_id", notificationID, "err", err)
	}

	return msg, nil
}

// History re-reads the full ordered message list for a session. This is
// the reconciliation path after any gap on the push channel.
func (r *Relay) History(ctx context.Context, notificationID string) ([]model.Message, error) {
	return r.messages.ListMessages(ctx, notificationID)
}

// Subscribe opens a live tail for one session's messages.
func (r *Relay) Subscribe(ctx context.Context, notificationID string) (Subscription, error) {
	sub, err := r.bus.Subscribe(ctx, notificationID)
	if err != nil {
		return nil, apperrors.NewSubscription(err)
	}
	return sub, nil
}

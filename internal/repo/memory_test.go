package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
)

func TestMemoryStore_DoorbellLookup(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetDoorbell(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	store.PutDoorbell(model.Doorbell{ID: "bell-1", UserID: "user-1", Enabled: true})

	bell, err := store.GetDoorbell(ctx, "bell-1")
	if err != nil {
		t.Fatalf("GetDoorbell() error: %v", err)
	}
	if bell.UserID != "user-1" || !bell.Enabled {
		t.Fatalf("unexpected doorbell: %#v", bell)
	}
}

func TestMemoryStore_NotificationLifecycle(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	n := model.Notification{
		ID:          "n-1",
		DoorbellID:  "bell-1",
		VisitorName: "Alice",
		Status:      model.StatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification() error: %v", err)
	}
	if err := store.CreateNotification(ctx, n); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}

	if err := store.CloseNotification(ctx, "n-1"); err != nil {
		t.Fatalf("CloseNotification() error: %v", err)
	}

	got, err := store.GetNotification(ctx, "n-1")
	if err != nil {
		t.Fatalf("GetNotification() error: %v", err)
	}
	if got.Status != model.StatusClosed {
		t.Fatalf("expected closed, got %q", got.Status)
	}

	// Closing again (or closing a missing row) is idempotent.
	if err := store.CloseNotification(ctx, "n-1"); err != nil {
		t.Fatalf("second CloseNotification() error: %v", err)
	}
	if err := store.CloseNotification(ctx, "missing"); err != nil {
		t.Fatalf("CloseNotification(missing) error: %v", err)
	}
}

func TestMemoryStore_MessagesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	err := store.CreateNotification(ctx, model.Notification{
		ID: "n-1", DoorbellID: "bell-1", VisitorName: "Alice",
		Status: model.StatusActive, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateNotification() error: %v", err)
	}

	// Identical timestamps: order must still be insertion order.
	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		err := store.AppendMessage(ctx, model.Message{
			ID:             fmt.Sprintf("m%d", i),
			NotificationID: "n-1",
			Sender:         model.SenderVisitor,
			Content:        fmt.Sprintf("c%d", i),
			CreatedAt:      at,
		})
		if err != nil {
			t.Fatalf("AppendMessage(%d) error: %v", i, err)
		}
	}

	msgs, err := store.ListMessages(ctx, "n-1")
	if err != nil {
		t.Fatalf("ListMessages() error: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if want := fmt.Sprintf("m%d", i); m.ID != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, m.ID)
		}
	}
}

func TestMemoryStore_AppendRequiresParentNotification(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	err := store.AppendMessage(context.Background(), model.Message{
		ID: "m1", NotificationID: "orphan", Sender: model.SenderOwner, Content: "hi",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for orphan message, got %v", err)
	}
}

func TestMemoryStore_ListMessagesReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	err := store.CreateNotification(ctx, model.Notification{
		ID: "n-1", DoorbellID: "bell-1", VisitorName: "Alice",
		Status: model.StatusActive, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateNotification() error: %v", err)
	}
	if err := store.AppendMessage(ctx, model.Message{ID: "m1", NotificationID: "n-1", Sender: model.SenderVisitor, Content: "hi"}); err != nil {
		t.Fatalf("AppendMessage() error: %v", err)
	}

	first, _ := store.ListMessages(ctx, "n-1")
	first[0].Content = "mutated"

	second, _ := store.ListMessages(ctx, "n-1")
	if second[0].Content != "hi" {
		t.Fatalf("expected stored message to be unaffected, got %q", second[0].Content)
	}
}

package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
)

// MemoryStore is an in-memory Store. It preserves message insertion
// order per notification and is safe for concurrent use.
type MemoryStore struct {
	mu            sync.RWMutex
	doorbells     map[string]model.Doorbell
	notifications map[string]model.Notification
	messages      map[string][]model.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		doorbells:     make(map[string]model.Doorbell),
		notifications: make(map[string]model.Notification),
		messages:      make(map[string][]model.Message),
	}
}

// PutDoorbell seeds a ring target. Doorbell rows normally come from the
// owner-facing management screens.
func (s *MemoryStore) PutDoorbell(bell model.Doorbell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doorbells[bell.ID] = bell
}

func (s *MemoryStore) GetDoorbell(_ context.Context, id string) (model.Doorbell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bell, ok := s.doorbells[id]
	if !ok {
		return model.Doorbell{}, fmt.Errorf("doorbell %s: %w", id, ErrNotFound)
	}
	return bell, nil
}

func (s *MemoryStore) CreateNotification(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[n.ID]; ok {
		return fmt.Errorf("notification %s already exists", n.ID)
	}
	s.notifications[n.ID] = n
	return nil
}

func (s *MemoryStore) GetNotification(_ context.Context, id string) (model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return model.Notification{}, fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return n, nil
}

func (s *MemoryStore) CloseNotification(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.Status == model.StatusClosed {
		return nil
	}
	n.Status = model.StatusClosed
	s.notifications[id] = n
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, m model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[m.NotificationID]; !ok {
		return fmt.Errorf("notification %s: %w", m.NotificationID, ErrNotFound)
	}
	s.messages[m.NotificationID] = append(s.messages[m.NotificationID], m)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, notificationID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[notificationID]
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

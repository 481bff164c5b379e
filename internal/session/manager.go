package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/client"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/relay"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/repo"
)

var (
	ErrDoorbellDisabled = errors.New("doorbell is disabled")
	ErrSessionNotFound  = errors.New("session not found")
)

// Manager hands out sessions to visitor-facing clients and tracks them
// by an opaque token. There is no cross-session locking: every ring is
// an independent logical session even against the same doorbell.
type Manager struct {
	doorbells     repo.DoorbellRepository
	notifications repo.NotificationRepository
	relay         *relay.Relay
	dispatcher    *client.Dispatcher
	window        time.Duration
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(
	doorbells repo.DoorbellRepository,
	notifications repo.NotificationRepository,
	rly *relay.Relay,
	dispatcher *client.Dispatcher,
	window time.Duration,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		doorbells:     doorbells,
		notifications: notifications,
		relay:         rly,
		dispatcher:    dispatcher,
		window:        window,
		logger:        logger,
		sessions:      make(map[string]*Session),
	}
}

// Ring creates a fresh session against an existing, enabled doorbell
// and rings it. Returns the token later calls address the session by.
func (m *Manager) Ring(ctx context.Context, doorbellID string) (string, *Session, error) {
	bell, err := m.doorbells.GetDoorbell(ctx, doorbellID)
	if err != nil {
		return "", nil, err
	}
	if !bell.Enabled {
		return "", nil, ErrDoorbellDisabled
	}

	s, err := New(bell, Deps{
		Notifications: m.notifications,
		Relay:         m.relay,
		Dispatcher:    m.dispatcher,
		Window:        m.window,
		Logger:        m.logger,
	})
	if err != nil {
		return "", nil, err
	}
	s.Ring()

	token := uuid.NewString()
	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	m.logger.Info("session ringing", "doorbell_id", doorbellID, "token", token)

	return token, s, nil
}

// Get resolves a session token.
func (m *Manager) Get(token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends the session and forgets its token.
func (m *Manager) Close(ctx context.Context, token string) error {
	m.mu.Lock()
	s, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return s.Close(ctx)
}

// PruneIdle drops sessions the timeout supervisor already returned to
// idle, so abandoned visitor clients do not pile up. Returns how many
// were removed.
func (m *Manager) PruneIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for token, s := range m.sessions {
		if s.Status() == StatusIdle {
			delete(m.sessions, token)
			pruned++
		}
	}
	return pruned
}

// Count reports how many sessions are live.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

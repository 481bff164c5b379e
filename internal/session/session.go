// Package session owns the doorbell session lifecycle: the
// idle -> ringing -> chatting -> idle state machine for one visitor
// interaction, the realtime tail it consumes, and the inactivity
// timeout that force-closes it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/client"
	apperrors "github.com/JuanAmorAKD/digital-doorbell-chat/internal/errors"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/relay"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/repo"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/timeout"
)

// Status is the in-memory state of one visitor-facing session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRinging  Status = "ringing"
	StatusChatting Status = "chatting"
)

var (
	ErrNotRinging  = errors.New("session is not ringing")
	ErrNotChatting = errors.New("session is not chatting")
)

// Deps are the collaborators one session operates against.
type Deps struct {
	Notifications repo.NotificationRepository
	Relay         *relay.Relay
	Dispatcher    *client.Dispatcher
	Window        time.Duration
	Logger        *slog.Logger
}

// Session is one visitor's ring. Each visitor-facing client owns
// exactly one; sessions targeting the same doorbell are independent.
type Session struct {
	bell model.Doorbell
	deps Deps

	supervisor *timeout.Supervisor

	mu             sync.Mutex
	status         Status
	visitor        model.VisitorInfo
	notificationID string
	messages       []model.Message
	seen           map[string]struct{}
	lastActivity   time.Time
	sub            relay.Subscription
}

func New(bell model.Doorbell, deps Deps) (*Session, error) {
	if deps.Notifications == nil || deps.Relay == nil || deps.Dispatcher == nil {
		return nil, errors.New("session deps must not be nil")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Session{
		bell:   bell,
		deps:   deps,
		status: StatusIdle,
	}

	sup, err := timeout.New(deps.Window, s.timeoutClose)
	if err != nil {
		return nil, err
	}
	s.supervisor = sup

	return s, nil
}

// Ring moves idle -> ringing. A ring in any other state is a silent
// no-op.
func (s *Session) Ring() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusIdle {
		return
	}
	s.status = StatusRinging
	s.lastActivity = time.Now().UTC()
}

// SubmitIntake moves ringing -> chatting: it persists the notification,
// seeds the first visitor message, dispatches the webhook without
// blocking the transition, opens the realtime tail and arms the
// inactivity timer.
func (s *Session) SubmitIntake(ctx context.Context, info model.VisitorInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRinging {
		return ErrNotRinging
	}

	info.Name = strings.TrimSpace(info.Name)
	info.Message = strings.TrimSpace(info.Message)
	if info.Name == "" {
		return apperrors.NewValidation("name", "must not be empty")
	}

	notification := model.Notification{
		ID:             uuid.NewString(),
		DoorbellID:     s.bell.ID,
		VisitorName:    info.Name,
		VisitorMessage: info.Message,
		Status:         model.StatusActive,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.deps.Notifications.CreateNotification(ctx, notification); err != nil {
		return apperrors.NewStoreWrite("create notification", err)
	}

	s.status = StatusChatting
	s.visitor = info
	s.notificationID = notification.ID
	s.messages = nil
	s.seen = make(map[string]struct{})
	s.lastActivity = time.Now().UTC()

	seed := info.Message
	if seed == "" {
		seed = fmt.Sprintf("%s is at the door.", info.Name)
	}
	msg, err := s.deps.Relay.Send(ctx, notification.ID, model.SenderVisitor, seed)
	if err != nil {
		// The transition already happened optimistically; the caller
		// sees the failed write and reconciles or closes.
		return err
	}
	s.appendLocked(msg)

	go s.dispatchWebhook(info, notification.ID)

	sub, err := s.deps.Relay.Subscribe(ctx, notification.ID)
	if err != nil {
		// Chat still works without the live tail; callers fall back to
		// Reconcile for owner replies.
		s.deps.Logger.Error("session: subscribe failed", "notification_id", notification.ID, "err", err)
	} else {
		s.sub = sub
		go s.consume(sub)
	}

	s.supervisor.Reset()

	return nil
}

// Send relays one visitor message on the active session.
func (s *Session) Send(ctx context.Context, content string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusChatting {
		return model.Message{}, ErrNotChatting
	}

	msg, err := s.deps.Relay.Send(ctx, s.notificationID, model.SenderVisitor, content)
	if err != nil {
		return model.Message{}, err
	}

	s.appendLocked(msg)
	s.lastActivity = time.Now().UTC()
	s.supervisor.Reset()

	return msg, nil
}

// Close returns the session to idle from any state, marking the
// notification closed, cancelling the realtime tail and the timeout
// timer, and clearing in-memory state. Closing an idle session is a
// no-op: no duplicate store writes.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusIdle {
		s.mu.Unlock()
		return nil
	}

	notificationID := s.notificationID
	sub := s.sub

	s.status = StatusIdle
	s.visitor = model.VisitorInfo{}
	s.notificationID = ""
	s.messages = nil
	s.seen = nil
	s.sub = nil
	s.supervisor.Stop()
	s.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			s.deps.Logger.Warn("session: subscription close failed", "err", err)
		}
	}

	if notificationID != "" {
		if err := s.deps.Notifications.CloseNotification(ctx, notificationID); err != nil {
			return apperrors.NewStoreWrite("close notification", err)
		}
	}

	return nil
}

// Reconcile replaces the in-memory message list with a full ordered
// re-read from the store. This is the recovery path after a gap on the
// push channel.
func (s *Session) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusChatting {
		return ErrNotChatting
	}

	history, err := s.deps.Relay.History(ctx, s.notificationID)
	if err != nil {
		return err
	}

	s.messages = history
	s.seen = make(map[string]struct{}, len(history))
	for _, m := range history {
		s.seen[m.ID] = struct{}{}
	}

	return nil
}

// Status reports the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// NotificationID is empty until intake has completed.
func (s *Session) NotificationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notificationID
}

// Visitor returns the intake identity for the active session.
func (s *Session) Visitor() model.VisitorInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visitor
}

// Doorbell returns the ring target this session is bound to.
func (s *Session) Doorbell() model.Doorbell {
	return s.bell
}

// Messages returns a copy of the merged in-memory message list.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastActivity reports when the session last saw qualifying activity.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// appendLocked records a message in the merged list, deduplicating by
// id so a locally appended message and its pushed echo count once.
func (s *Session) appendLocked(msg model.Message) {
	if _, ok := s.seen[msg.ID]; ok {
		return
	}
	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)
}

func (s *Session) consume(sub relay.Subscription) {
	for msg := range sub.Messages() {
		s.ingest(msg)
	}
	if err := sub.Err(); err != nil {
		s.deps.Logger.Warn("session: realtime channel dropped, full re-read required",
			"err", apperrors.NewSubscription(err))
	}
}

func (s *Session) ingest(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Messages must never leak into a dead or reused session.
	if s.status != StatusChatting || msg.NotificationID != s.notificationID {
		return
	}

	before := len(s.messages)
	s.appendLocked(msg)
	if len(s.messages) == before {
		return
	}

	s.lastActivity = time.Now().UTC()
	s.supervisor.Reset()
}

func (s *Session) dispatchWebhook(info model.VisitorInfo, notificationID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.deps.Dispatcher.Notify(ctx, s.bell, info, notificationID); err != nil {
		s.deps.Logger.Error("session: webhook dispatch failed",
			"doorbell_id", s.bell.ID, "notification_id", notificationID, "err", err)
	}
}

func (s *Session) timeoutClose() {
	if s.Status() != StatusChatting {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.deps.Logger.Info("session: inactivity window elapsed, closing",
		"notification_id", s.NotificationID())
	if err := s.Close(ctx); err != nil {
		s.deps.Logger.Error("session: timeout close failed", "err", err)
	}
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/client"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/repo"
)

func newTestManager(t *testing.T, f *fixture, window time.Duration) *Manager {
	t.Helper()

	dispatcher := client.NewDispatcher("http://localhost:8080", nil, nil)
	return NewManager(f.store, f.store, f.relay, dispatcher, window, nil)
}

func TestManager_Ring_CreatesRingingSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m := newTestManager(t, f, time.Minute)

	token, s, err := m.Ring(context.Background(), "bell-1")
	if err != nil {
		t.Fatalf("Ring() error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty session token")
	}
	if got := s.Status(); got != StatusRinging {
		t.Fatalf("expected ringing session, got %q", got)
	}

	got, err := m.Get(token)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != s {
		t.Fatalf("Get returned a different session")
	}
}

func TestManager_Ring_UnknownDoorbell(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m := newTestManager(t, f, time.Minute)

	_, _, err := m.Ring(context.Background(), "no-such-bell")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestManager_Ring_DisabledDoorbell(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.store.PutDoorbell(model.Doorbell{ID: "bell-off", UserID: "user-1", Enabled: false})
	m := newTestManager(t, f, time.Minute)

	_, _, err := m.Ring(context.Background(), "bell-off")
	if !errors.Is(err, ErrDoorbellDisabled) {
		t.Fatalf("expected ErrDoorbellDisabled, got %v", err)
	}
}

func TestManager_IndependentSessionsPerDoorbell(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m := newTestManager(t, f, time.Minute)
	ctx := context.Background()

	// Two visitors ringing the same doorbell get independent sessions.
	tokenA, sA, err := m.Ring(ctx, "bell-1")
	if err != nil {
		t.Fatalf("Ring() A error: %v", err)
	}
	tokenB, sB, err := m.Ring(ctx, "bell-1")
	if err != nil {
		t.Fatalf("Ring() B error: %v", err)
	}
	if tokenA == tokenB {
		t.Fatalf("expected distinct tokens")
	}

	if err := sA.SubmitIntake(ctx, model.VisitorInfo{Name: "Alice"}); err != nil {
		t.Fatalf("A SubmitIntake() error: %v", err)
	}
	if err := sB.SubmitIntake(ctx, model.VisitorInfo{Name: "Bob"}); err != nil {
		t.Fatalf("B SubmitIntake() error: %v", err)
	}

	if sA.NotificationID() == sB.NotificationID() {
		t.Fatalf("expected independent notifications per visitor")
	}

	if err := m.Close(ctx, tokenA); err != nil {
		t.Fatalf("Close(A) error: %v", err)
	}
	if got := sB.Status(); got != StatusChatting {
		t.Fatalf("closing A must not touch B, got %q", got)
	}

	_ = m.Close(ctx, tokenB)
}

func TestManager_Close_RemovesSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m := newTestManager(t, f, time.Minute)
	ctx := context.Background()

	token, _, err := m.Ring(ctx, "bell-1")
	if err != nil {
		t.Fatalf("Ring() error: %v", err)
	}

	if err := m.Close(ctx, token); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := m.Get(token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session to be forgotten, got %v", err)
	}
	if err := m.Close(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on double close, got %v", err)
	}
}

func TestManager_PruneIdle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m := newTestManager(t, f, 100*time.Millisecond)
	ctx := context.Background()

	_, s, err := m.Ring(ctx, "bell-1")
	if err != nil {
		t.Fatalf("Ring() error: %v", err)
	}
	if err := s.SubmitIntake(ctx, model.VisitorInfo{Name: "Alice"}); err != nil {
		t.Fatalf("SubmitIntake() error: %v", err)
	}

	// Ringing/chatting sessions are kept.
	if n := m.PruneIdle(); n != 0 {
		t.Fatalf("expected nothing pruned while chatting, got %d", n)
	}

	waitFor(t, 2*time.Second, func() bool {
		return s.Status() == StatusIdle
	}, "timeout to idle the session")

	if n := m.PruneIdle(); n != 1 {
		t.Fatalf("expected 1 pruned session, got %d", n)
	}
	if got := m.Count(); got != 0 {
		t.Fatalf("expected empty manager, got %d sessions", got)
	}
}

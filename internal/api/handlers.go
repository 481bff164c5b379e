package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/JuanAmorAKD/digital-doorbell-chat/internal/errors"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/relay"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/repo"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/session"
)

// Handler is the HTTP glue around the in-process doorbell core. The
// visitor side drives a session by token; the owner side works directly
// against notifications, mirroring the chat deep link.
type Handler struct {
	manager       *session.Manager
	relay         *relay.Relay
	notifications repo.NotificationRepository
	logger        *slog.Logger
}

func NewHandler(m *session.Manager, r *relay.Relay, n repo.NotificationRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{manager: m, relay: r, notifications: n, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) Ring(w http.ResponseWriter, r *http.Request) {
	doorbellID := chi.URLParam(r, "doorbellID")

	token, s, err := h.manager.Ring(r.Context(), doorbellID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_token": token,
		"status":        s.Status(),
	})
}

type intakeRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (h *Handler) Intake(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := s.SubmitIntake(r.Context(), model.VisitorInfo{Name: req.Name, Message: req.Message}); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          s.Status(),
		"notification_id": s.NotificationID(),
	})
}

type sendRequest struct {
	Content string `json:"content"`
}

func (h *Handler) VisitorSend(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	msg, err := s.Send(r.Context(), req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) SessionMessages(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": s.Status(),
		"items":  s.Messages(),
	})
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": session.StatusIdle})
}

// OwnerMessages is the owner-side full ordered read, also the fallback
// after any realtime gap.
func (h *Handler) OwnerMessages(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")

	if _, err := h.notifications.GetNotification(r.Context(), notificationID); err != nil {
		h.writeError(w, err)
		return
	}

	items, err := h.relay.History(r.Context(), notificationID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) OwnerSend(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")

	n, err := h.notifications.GetNotification(r.Context(), notificationID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if n.Status != model.StatusActive {
		http.Error(w, "notification is closed", http.StatusConflict)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	msg, err := h.relay.Send(r.Context(), notificationID, model.SenderOwner, req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) CloseNotification(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")

	if _, err := h.notifications.GetNotification(r.Context(), notificationID); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.notifications.CloseNotification(r.Context(), notificationID); err != nil {
		h.writeError(w, apperrors.NewStoreWrite("close notification", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": model.StatusClosed})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, session.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrNotRinging),
		errors.Is(err, session.ErrNotChatting),
		errors.Is(err, session.ErrDoorbellDisabled):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

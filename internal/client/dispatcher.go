// Package client sends the outbound webhook alert raised when a visitor
// session starts. Delivery is fire-and-forget, at-most-once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/cache"
	apperrors "github.com/JuanAmorAKD/digital-doorbell-chat/internal/errors"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
)

const (
	webhookUsername = "Digital Doorbell"
	embedTitle      = "Visitor Information"
	embedColor      = 3447003
	embedFooter     = "Respond to this message to chat with the visitor"
	noMessageText   = "No message provided."
)

// Dispatcher posts one alert per session start to the doorbell's
// configured endpoint. The chat origin is explicit construction-time
// configuration; swap the Dispatcher to change it.
type Dispatcher struct {
	origin string
	guard  cache.DispatchGuard
	client *http.Client
	logger *slog.Logger
}

// NewDispatcher builds a Dispatcher. origin is the base URL deep links
// are built from. guard may be nil, in which case at-most-once is only
// as strong as the caller's single invocation.
func NewDispatcher(origin string, guard cache.DispatchGuard, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		origin: strings.TrimRight(origin, "/"),
		guard:  guard,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type webhookPayload struct {
	Username string         `json:"username"`
	Content  string         `json:"content"`
	Embeds   []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []webhookField `json:"fields"`
	Footer      webhookFooter  `json:"footer"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookFooter struct {
	Text string `json:"text"`
}

// ChatLink builds the deep link the owner follows into the session.
func (d *Dispatcher) ChatLink(notificationID string) string {
	return fmt.Sprintf("%s/chat/%s", d.origin, notificationID)
}

// Notify sends the session-start alert. A doorbell without an endpoint
// is a no-op. Failures are returned as dispatch errors for logging; they
// must never block or reverse the session transition that triggered
// them, and they are never retried.
func (d *Dispatcher) Notify(ctx context.Context, bell model.Doorbell, info model.VisitorInfo, notificationID string) error {
	if bell.WebhookURL == "" {
		return nil
	}

	if d.guard != nil {
		first, err := d.guard.FirstDispatch(ctx, notificationID)
		if err != nil {
			// Guard trouble must not suppress the alert; worst case is
			// a duplicate, and we prefer a ring the owner hears twice.
			d.logger.Warn("dispatch guard unavailable", "notification_id", notificationID, "err", err)
		} else if !first {
			d.logger.Info("webhook already dispatched", "notification_id", notificationID)
			return nil
		}
	}

	description := info.Message
	if strings.TrimSpace(description) == "" {
		description = noMessageText
	}

	payload := webhookPayload{
		Username: webhookUsername,
		Content:  fmt.Sprintf("\U0001F514 **%s** is at the door!", info.Name),
		Embeds: []webhookEmbed{
			{
				Title:       embedTitle,
				Description: description,
				Color:       embedColor,
				Fields: []webhookField{
					{Name: "chat link", Value: d.ChatLink(notificationID), Inline: true},
				},
				Footer: webhookFooter{Text: embedFooter},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewDispatch(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bell.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewDispatch(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return apperrors.NewDispatch(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewDispatch(
			fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(respBody)))
	}

	return nil
}

package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/model"
)

// ErrNotFound is returned when a doorbell or notification row does not
// exist.
var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) GetDoorbell(ctx context.Context, id string) (model.Doorbell, error) {
	const query = `
		SELECT id, user_id, name, webhook_url, enabled, created_at
		FROM doorbells
		WHERE id = $1
	`

	var (
		bell       model.Doorbell
		webhookURL *string
	)
	err := s.db.QueryRow(ctx, query, id).Scan(
		&bell.ID, &bell.UserID, &bell.Name, &webhookURL, &bell.Enabled, &bell.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Doorbell{}, fmt.Errorf("doorbell %s: %w", id, ErrNotFound)
		}
		return model.Doorbell{}, fmt.Errorf("get doorbell failed: %w", err)
	}
	if webhookURL != nil {
		bell.WebhookURL = *webhookURL
	}

	return bell, nil
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n model.Notification) error {
	const query = `
		INSERT INTO notifications (id, doorbell_id, visitor_name, visitor_message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var visitorMessage *string
	if n.VisitorMessage != "" {
		visitorMessage = &n.VisitorMessage
	}

	_, err := s.db.Exec(ctx, query,
		n.ID, n.DoorbellID, n.VisitorName, visitorMessage, string(n.Status), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetNotification(ctx context.Context, id string) (model.Notification, error) {
	const query = `
		SELECT id, doorbell_id, visitor_name, visitor_message, status, created_at
		FROM notifications
		WHERE id = $1
	`

	var (
		n              model.Notification
		visitorMessage *string
		status         string
	)
	err := s.db.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.DoorbellID, &n.VisitorName, &visitorMessage, &status, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Notification{}, fmt.Errorf("notification %s: %w", id, ErrNotFound)
		}
		return model.Notification{}, fmt.Errorf("get notification failed: %w", err)
	}
	if visitorMessage != nil {
		n.VisitorMessage = *visitorMessage
	}
	n.Status = model.NotificationStatus(status)

	return n, nil
}

func (s *PostgresStore) CloseNotification(ctx context.Context, id string) error {
	const query = `
		UPDATE notifications
		SET status = 'closed'
		WHERE id = $1 AND status = 'active'
	`

	// Zero rows affected means the notification was already closed (or
	// never existed); close stays idempotent either way.
	_, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("close notification failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, m model.Message) error {
	const query = `
		INSERT INTO messages (id, notification_id, sender, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query,
		m.ID, m.NotificationID, string(m.Sender), m.Content, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, notificationID string) ([]model.Message, error) {
	const query = `
		SELECT id, notification_id, sender, content, created_at
		FROM messages
		WHERE notification_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.Query(ctx, query, notificationID)
	if err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var (
			m      model.Message
			sender string
		)
		if err := rows.Scan(&m.ID, &m.NotificationID, &sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message failed: %w", err)
		}
		m.Sender = model.Sender(sender)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("message rows failed: %w", err)
	}

	return out, nil
}

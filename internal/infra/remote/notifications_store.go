package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type notificationRow struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Title     map[string]string `json:"title"`
	Message   map[string]string `json:"message"`
	Type      string            `json:"type"`
	Icon      string            `json:"icon,omitempty"`
	Read      bool              `json:"read"`
	Urgent    bool              `json:"urgent"`
	CreatedAt string            `json:"created_at"`
	ExpiresAt string            `json:"expires_at,omitempty"`
}

func (r notificationRow) toDomain() domain.Notification {
	return domain.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      r.Type,
		Icon:      r.Icon,
		Read:      r.Read,
		Urgent:    r.Urgent,
		CreatedAt: parseTimestamp(r.CreatedAt),
		ExpiresAt: parseTimestamp(r.ExpiresAt),
	}
}

// CreateNotification inserts a notification document.
func (c *Client) CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Remote.CreateNotification")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", n.UserID))

	row := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    n.UserID,
		"title":      n.Title,
		"message":    n.Message,
		"type":       n.Type,
		"read":       false,
		"urgent":     n.Urgent,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if n.Icon != "" {
		row["icon"] = n.Icon
	}
	if n.ExpiresAt > 0 {
		row["expires_at"] = formatTimestamp(n.ExpiresAt)
	}

	var created *domain.Notification
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "notifications", row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[notificationRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result returned from notifications insert")
		}
		result := rows[0].toDomain()
		created = &result
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/notifications", Err: err}
	}
	return created, nil
}

// ListNotifications fetches all of one user's notifications. Expiry
// filtering and display ordering happen in the service layer.
func (c *Client) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Remote.ListNotifications")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var notifications []domain.Notification
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("notifications?user_id=eq.%s&order=created_at.desc", userID)
		body, err := c.doGet(ctx, "notifications", path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[notificationRow](body)
		if err != nil {
			return err
		}
		notifications = make([]domain.Notification, 0, len(rows))
		for _, r := range rows {
			notifications = append(notifications, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/notifications", Err: err}
	}
	return notifications, nil
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Remote.MarkNotificationRead")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doPatch(ctx, "notifications",
			fmt.Sprintf("notifications?id=eq.%s&user_id=eq.%s", id, userID),
			map[string]any{"read": true},
		)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/notifications", Err: err}
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification of a user.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Remote.MarkAllNotificationsRead")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doPatch(ctx, "notifications",
			fmt.Sprintf("notifications?user_id=eq.%s&read=eq.false", userID),
			map[string]any{"read": true},
		)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/notifications", Err: err}
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/port"
	"github.com/fintrackhq/fintrack-go/internal/syncer"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var notifTracer = otel.Tracer("service/notifications")

// NotificationService serves in-app notifications: expired ones are
// filtered out and the rest ordered urgent first, then unread, then
// newest.
type NotificationService struct {
	store  port.NotificationStore
	sync   *syncer.Supervisor
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a new notification service.
func NewNotificationService(store port.NotificationStore, sync *syncer.Supervisor, logger *zap.Logger) *NotificationService {
	return &NotificationService{store: store, sync: sync, logger: logger, now: time.Now}
}

// List returns the user's visible notifications. On remote failure the
// synced offline view answers, marked degraded; expiry filtering
// applies either way.
func (s *NotificationService) List(ctx context.Context, userID string) ([]domain.Notification, bool, error) {
	ctx, span := notifTracer.Start(ctx, "NotificationService.List")
	defer span.End()

	list, err := s.store.ListNotifications(ctx, userID)
	if err == nil {
		return s.present(list), false, nil
	}

	if s.sync != nil {
		if us := s.sync.Peek(userID); us != nil {
			if cached := us.Notifications.Current(); len(cached) > 0 {
				s.logger.Warn("notifications: remote list failed, serving synced view",
					zap.String("user_id", userID),
					zap.Error(err),
				)
				return s.present(cached), true, nil
			}
		}
	}
	return nil, false, fmt.Errorf("list notifications: %w", err)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	ctx, span := notifTracer.Start(ctx, "NotificationService.MarkRead")
	defer span.End()

	if err := s.store.MarkNotificationRead(ctx, userID, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx, span := notifTracer.Start(ctx, "NotificationService.MarkAllRead")
	defer span.End()

	if err := s.store.MarkAllNotificationsRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Create publishes a notification to one user. Admin-only at the API
// layer.
func (s *NotificationService) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	ctx, span := notifTracer.Start(ctx, "NotificationService.Create")
	defer span.End()

	if n.UserID == "" {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "is required"}
	}
	if len(n.Title) == 0 {
		return nil, &domain.ErrValidation{Field: "title", Message: "is required"}
	}
	switch n.Type {
	case domain.NotificationInfo, domain.NotificationSuccess,
		domain.NotificationWarning, domain.NotificationError:
	case "":
		n.Type = domain.NotificationInfo
	default:
		return nil, &domain.ErrValidation{Field: "type", Message: "unknown notification type"}
	}

	created, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return created, nil
}

// present drops expired entries and sorts for display.
func (s *NotificationService) present(list []domain.Notification) []domain.Notification {
	now := s.now()
	visible := make([]domain.Notification, 0, len(list))
	for _, n := range list {
		if n.Expired(now) {
			continue
		}
		visible = append(visible, n)
	}
	domain.SortNotifications(visible)
	return visible
}

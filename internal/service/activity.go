package service

import (
	"context"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityService appends audit-log entries. Writes are strictly
// best-effort: a failed append is logged and swallowed so the primary
// operation never fails or blocks on it.
type ActivityService struct {
	store  port.ActivityStore
	logger *zap.Logger
}

// NewActivityService creates a new activity service.
func NewActivityService(store port.ActivityStore, logger *zap.Logger) *ActivityService {
	return &ActivityService{store: store, logger: logger}
}

// Record appends one entry. It never returns an error.
func (s *ActivityService) Record(ctx context.Context, userID, action, entityType, entityID, details string) {
	if s == nil || s.store == nil {
		return
	}

	entry := &domain.ActivityEntry{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  time.Now().UnixMilli(),
	}

	if err := s.store.AppendActivity(ctx, entry); err != nil {
		s.logger.Warn("activity: append failed (ignored)",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.Error(err),
		)
	}
}

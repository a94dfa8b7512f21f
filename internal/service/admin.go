package service

import (
	"context"
	"fmt"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var adminTracer = otel.Tracer("service/admin")

// AdminService covers the operations reserved for administrators:
// toggling accounts and adjusting per-user project quotas. Site status
// changes live on the AccessGate, notification publishing on the
// NotificationService.
type AdminService struct {
	users    port.UserStore
	gate     *AccessGate
	activity *ActivityService
	mirror   port.MirrorStore
	logger   *zap.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(users port.UserStore, gate *AccessGate, activity *ActivityService, mirror port.MirrorStore, logger *zap.Logger) *AdminService {
	return &AdminService{users: users, gate: gate, activity: activity, mirror: mirror, logger: logger}
}

// GetUser looks up one profile.
func (s *AdminService) GetUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.GetUser")
	defer span.End()

	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if profile == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return profile, nil
}

// SetUserActive enables or disables an account. The gate's profile
// cache is invalidated so the change applies on the user's next
// request, not after the cache TTL.
func (s *AdminService) SetUserActive(ctx context.Context, adminID, userID string, active bool) error {
	ctx, span := adminTracer.Start(ctx, "AdminService.SetUserActive")
	defer span.End()

	if err := s.users.UpdateUser(ctx, userID, map[string]any{"is_active": active}); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.gate.Invalidate(userID)

	s.activity.Record(ctx, adminID, domain.ActionUpdate, "user", userID,
		fmt.Sprintf("is_active=%t", active))
	s.logger.Info("admin: account toggled",
		zap.String("admin_id", adminID),
		zap.String("user_id", userID),
		zap.Bool("active", active),
	)
	return nil
}

// ResetMirror wipes the local mirror on every backend. Sync controllers
// repopulate it from live snapshots, so the cost is one degraded window
// per user, not data loss.
func (s *AdminService) ResetMirror(ctx context.Context, adminID string) error {
	ctx, span := adminTracer.Start(ctx, "AdminService.ResetMirror")
	defer span.End()

	if err := s.mirror.Clear(ctx); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}

	s.activity.Record(ctx, adminID, domain.ActionDelete, "mirror", "", "local mirror reset")
	s.logger.Info("admin: local mirror reset", zap.String("admin_id", adminID))
	return nil
}

// SetProjectLimit adjusts a user's project quota. Zero means unlimited.
func (s *AdminService) SetProjectLimit(ctx context.Context, adminID, userID string, limit int) error {
	ctx, span := adminTracer.Start(ctx, "AdminService.SetProjectLimit")
	defer span.End()

	if limit < 0 {
		return &domain.ErrValidation{Field: "project_limit", Message: "must not be negative"}
	}
	if err := s.users.UpdateUser(ctx, userID, map[string]any{"project_limit": limit}); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.gate.Invalidate(userID)

	s.activity.Record(ctx, adminID, domain.ActionUpdate, "user", userID,
		fmt.Sprintf("project_limit=%d", limit))
	return nil
}

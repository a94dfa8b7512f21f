package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/infra/observability"
	"github.com/fintrackhq/fintrack-go/internal/port"
	"github.com/fintrackhq/fintrack-go/internal/syncer"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var projTracer = otel.Tracer("service/projects")

// ProjectService handles projects: creation with a per-user quota and
// case-insensitive name uniqueness, renames, and cascade deletion of
// the project's transactions.
type ProjectService struct {
	projects port.ProjectStore
	txns     port.TransactionStore
	users    port.UserStore
	sync     *syncer.Supervisor
	activity *ActivityService
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(projects port.ProjectStore, txns port.TransactionStore, users port.UserStore, sync *syncer.Supervisor, activity *ActivityService, metrics *observability.Metrics, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		txns:     txns,
		users:    users,
		sync:     sync,
		activity: activity,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *ProjectService) Create(ctx context.Context, userID, name string) (*domain.Project, error) {
	ctx, span := projTracer.Start(ctx, "ProjectService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}

	existing, err := s.projects.ListProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	for _, p := range existing {
		if strings.EqualFold(p.Name, name) {
			return nil, &domain.ErrDuplicate{Resource: "project", Value: name}
		}
	}

	if s.users != nil {
		profile, err := s.users.GetUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get profile: %w", err)
		}
		if profile != nil && profile.ProjectLimit > 0 && len(existing) >= profile.ProjectLimit {
			return nil, &domain.ErrQuotaExceeded{Resource: "projects", Limit: profile.ProjectLimit}
		}
	}

	created, err := s.projects.CreateProject(ctx, &domain.Project{UserID: userID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.activity.Record(ctx, userID, domain.ActionCreate, "project", created.ID, name)
	s.logger.Info("project created",
		zap.String("id", created.ID),
		zap.String("user_id", userID),
	)
	return created, nil
}

func (s *ProjectService) Rename(ctx context.Context, userID, id, name string) error {
	ctx, span := projTracer.Start(ctx, "ProjectService.Rename")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.ErrValidation{Field: "name", Message: "is required"}
	}

	existing, err := s.projects.ListProjects(ctx, userID)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	found := false
	for _, p := range existing {
		if p.ID == id {
			found = true
			continue
		}
		if strings.EqualFold(p.Name, name) {
			return &domain.ErrDuplicate{Resource: "project", Value: name}
		}
	}
	if !found {
		return &domain.ErrNotFound{Resource: "project", ID: id}
	}

	if err := s.projects.UpdateProject(ctx, userID, id, map[string]any{"name": name}); err != nil {
		return fmt.Errorf("rename project: %w", err)
	}

	s.activity.Record(ctx, userID, domain.ActionUpdate, "project", id, name)
	return nil
}

// Delete removes a project and every transaction assigned to it, in
// both collections. The cascade is not atomic: a failure mid-way leaves
// the project in place with some transactions already gone, and the
// caller retries. Orphaned transactions are never created because the
// project itself is deleted last.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := projTracer.Start(ctx, "ProjectService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", id))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("project_cascade_delete", time.Since(start))
	}()

	deleted := 0
	for _, kind := range []string{domain.KindExpense, domain.KindRevenue} {
		list, err := s.txns.ListTransactionsByProject(ctx, kind, userID, id)
		if err != nil {
			return fmt.Errorf("list %s for cascade: %w", kind, err)
		}
		for _, t := range list {
			if err := s.txns.DeleteTransaction(ctx, kind, userID, t.ID); err != nil {
				return fmt.Errorf("cascade delete %s %s: %w", kind, t.ID, err)
			}
			deleted++
		}
	}

	if err := s.projects.DeleteProject(ctx, userID, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	s.activity.Record(ctx, userID, domain.ActionDelete, "project", id,
		fmt.Sprintf("cascade removed %d transactions", deleted))
	s.logger.Info("project deleted",
		zap.String("id", id),
		zap.String("user_id", userID),
		zap.Int("cascaded_transactions", deleted),
	)
	return nil
}

// List returns the user's projects, newest first, falling back to the
// synced offline view when the remote store fails.
func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, bool, error) {
	ctx, span := projTracer.Start(ctx, "ProjectService.List")
	defer span.End()

	list, err := s.projects.ListProjects(ctx, userID)
	if err == nil {
		domain.SortProjects(list)
		return list, false, nil
	}

	if s.sync != nil {
		if us := s.sync.Peek(userID); us != nil {
			if cached := us.Projects.Current(); len(cached) > 0 {
				s.logger.Warn("projects: remote list failed, serving synced view",
					zap.String("user_id", userID),
					zap.Error(err),
				)
				return cached, true, nil
			}
		}
	}
	return nil, false, fmt.Errorf("list projects: %w", err)
}

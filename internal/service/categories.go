package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var catTracer = otel.Tracer("service/categories")

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CategoryService merges the compiled-in category set with the user's
// custom categories. A custom category that shares a built-in's name
// (case-insensitively) overrides its icon and color instead of
// appearing twice.
type CategoryService struct {
	store    port.CategoryStore
	activity *ActivityService
	logger   *zap.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(store port.CategoryStore, activity *ActivityService, logger *zap.Logger) *CategoryService {
	return &CategoryService{store: store, activity: activity, logger: logger}
}

// List returns the merged category set for display.
func (s *CategoryService) List(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := catTracer.Start(ctx, "CategoryService.List")
	defer span.End()

	custom, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return domain.MergeCategories(custom), nil
}

func (s *CategoryService) Create(ctx context.Context, userID string, c *domain.Category) (*domain.Category, error) {
	ctx, span := catTracer.Start(ctx, "CategoryService.Create")
	defer span.End()

	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}
	if c.Color != "" && !hexColorRe.MatchString(c.Color) {
		return nil, &domain.ErrValidation{Field: "color", Message: "must be a hex color like #e74c3c"}
	}

	existing, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for _, e := range existing {
		if strings.EqualFold(e.Name, c.Name) {
			return nil, &domain.ErrDuplicate{Resource: "category", Value: c.Name}
		}
	}

	c.UserID = userID
	c.Builtin = false
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.activity.Record(ctx, userID, domain.ActionCreate, "category", created.ID, created.Name)
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id string, updates map[string]any) error {
	ctx, span := catTracer.Start(ctx, "CategoryService.Update")
	defer span.End()

	if len(updates) == 0 {
		return &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}
	if color, ok := updates["color"].(string); ok && color != "" && !hexColorRe.MatchString(color) {
		return &domain.ErrValidation{Field: "color", Message: "must be a hex color like #e74c3c"}
	}

	if err := s.store.UpdateCategory(ctx, userID, id, updates); err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	s.activity.Record(ctx, userID, domain.ActionUpdate, "category", id, "")
	return nil
}

// Delete removes a custom category. Built-ins are compiled in and can
// only be overridden, never deleted.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := catTracer.Start(ctx, "CategoryService.Delete")
	defer span.End()

	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.activity.Record(ctx, userID, domain.ActionDelete, "category", id, "")
	return nil
}

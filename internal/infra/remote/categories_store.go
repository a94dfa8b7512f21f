package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type categoryRow struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Icon:      r.Icon,
		Color:     r.Color,
		CreatedAt: parseTimestamp(r.CreatedAt),
	}
}

// CreateCategory inserts a custom category document.
func (c *Client) CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Remote.CreateCategory")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", cat.UserID))

	row := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    cat.UserID,
		"name":       cat.Name,
		"icon":       cat.Icon,
		"color":      cat.Color,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}

	var created *domain.Category
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "categories", row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[categoryRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result returned from categories insert")
		}
		result := rows[0].toDomain()
		created = &result
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/categories", Err: err}
	}
	return created, nil
}

// UpdateCategory applies a partial update to one custom category.
func (c *Client) UpdateCategory(ctx context.Context, userID, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Remote.UpdateCategory")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doPatch(ctx, "categories", fmt.Sprintf("categories?id=eq.%s&user_id=eq.%s", id, userID), updates)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/categories", Err: err}
	}
	return nil
}

// DeleteCategory removes one custom category.
func (c *Client) DeleteCategory(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Remote.DeleteCategory")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, "categories", fmt.Sprintf("categories?id=eq.%s&user_id=eq.%s", id, userID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/categories", Err: err}
	}
	return nil
}

// ListCategories fetches one user's custom categories.
func (c *Client) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Remote.ListCategories")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var categories []domain.Category
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("categories?user_id=eq.%s&order=created_at.asc", userID)
		body, err := c.doGet(ctx, "categories", path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[categoryRow](body)
		if err != nil {
			return err
		}
		categories = make([]domain.Category, 0, len(rows))
		for _, r := range rows {
			categories = append(categories, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/categories", Err: err}
	}
	return categories, nil
}

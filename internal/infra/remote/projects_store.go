package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type projectRow struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func (r projectRow) toDomain() domain.Project {
	return domain.Project{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		CreatedAt: parseTimestamp(r.CreatedAt),
	}
}

// CreateProject inserts a new project document.
func (c *Client) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Remote.CreateProject")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", p.UserID))

	row := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    p.UserID,
		"name":       p.Name,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}

	var created *domain.Project
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "projects", row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[projectRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result returned from projects insert")
		}
		result := rows[0].toDomain()
		created = &result
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/projects", Err: err}
	}
	return created, nil
}

// UpdateProject applies a partial update to one project.
func (c *Client) UpdateProject(ctx context.Context, userID, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Remote.UpdateProject")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doPatch(ctx, "projects", fmt.Sprintf("projects?id=eq.%s&user_id=eq.%s", id, userID), updates)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/projects", Err: err}
	}
	return nil
}

// DeleteProject removes one project document. Dependent transactions are
// deleted by the service layer before this call.
func (c *Client) DeleteProject(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Remote.DeleteProject")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, "projects", fmt.Sprintf("projects?id=eq.%s&user_id=eq.%s", id, userID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/projects", Err: err}
	}
	return nil
}

// ListProjects fetches all of one user's projects.
func (c *Client) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Remote.ListProjects")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var projects []domain.Project
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("projects?user_id=eq.%s&order=created_at.desc", userID)
		body, err := c.doGet(ctx, "projects", path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[projectRow](body)
		if err != nil {
			return err
		}
		projects = make([]domain.Project, 0, len(rows))
		for _, r := range rows {
			projects = append(projects, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/projects", Err: err}
	}
	return projects, nil
}

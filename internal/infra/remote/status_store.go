package remote

import (
	"context"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
)

type statusRow struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// GetSiteStatus reads the singleton site-status document. A missing
// document means normal operation.
func (c *Client) GetSiteStatus(ctx context.Context) (*domain.SiteStatus, error) {
	ctx, span := tracer.Start(ctx, "Remote.GetSiteStatus")
	defer span.End()

	status := &domain.SiteStatus{Status: domain.SiteStatusNormal}
	err := c.execute(ctx, func() error {
		body, err := c.doGet(ctx, "site_status", "site_status?limit=1")
		if err != nil {
			return err
		}
		rows, err := decodeRows[statusRow](body)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			status = &domain.SiteStatus{
				Status:    rows[0].Status,
				Message:   rows[0].Message,
				UpdatedAt: parseTimestamp(rows[0].UpdatedAt),
			}
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/site_status", Err: err}
	}
	return status, nil
}

// SetSiteStatus overwrites the singleton site-status document.
func (c *Client) SetSiteStatus(ctx context.Context, status, message string) error {
	ctx, span := tracer.Start(ctx, "Remote.SetSiteStatus")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doPatch(ctx, "site_status", "site_status?id=eq.1", map[string]any{
			"status":     status,
			"message":    message,
			"updated_at": time.Now().UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/site_status", Err: err}
	}
	return nil
}

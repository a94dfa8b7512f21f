package remote

import (
	"context"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"github.com/google/uuid"
)

// AppendActivity writes one audit-log entry. Callers treat failures as
// best-effort; this method still reports them so the service layer can
// log and swallow.
func (c *Client) AppendActivity(ctx context.Context, e *domain.ActivityEntry) error {
	ctx, span := tracer.Start(ctx, "Remote.AppendActivity")
	defer span.End()

	ts := e.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	row := map[string]any{
		"id":          uuid.New().String(),
		"user_id":     e.UserID,
		"action":      e.Action,
		"entity_type": e.EntityType,
		"details":     e.Details,
		"timestamp":   formatTimestamp(ts),
	}
	if e.EntityID != "" {
		row["entity_id"] = e.EntityID
	}

	err := c.execute(ctx, func() error {
		_, err := c.doPost(ctx, "activity_logs", row)
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/activity_logs", Err: err}
	}
	return nil
}

package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// transactionRow maps a document of the expenses/revenues collections.
type transactionRow struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	Description   string  `json:"description,omitempty"`
	Date          string  `json:"date"`
	PaymentMethod string  `json:"payment_method"`
	Type          string  `json:"type,omitempty"`
	ProjectID     string  `json:"project_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func (r transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:            r.ID,
		UserID:        r.UserID,
		Amount:        r.Amount,
		Category:      r.Category,
		Description:   r.Description,
		Date:          parseTimestamp(r.Date),
		PaymentMethod: r.PaymentMethod,
		Type:          r.Type,
		ProjectID:     r.ProjectID,
		CreatedAt:     parseTimestamp(r.CreatedAt),
	}
}

// CreateTransaction inserts a new expense or revenue document.
func (c *Client) CreateTransaction(ctx context.Context, kind string, t *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Remote.CreateTransaction")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", kind),
		attribute.String("user.id", t.UserID),
	)

	row := map[string]any{
		"id":             uuid.New().String(),
		"user_id":        t.UserID,
		"amount":         t.Amount,
		"category":       t.Category,
		"date":           formatTimestamp(t.Date),
		"payment_method": t.PaymentMethod,
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}
	if t.Description != "" {
		row["description"] = t.Description
	}
	if t.Type != "" {
		row["type"] = t.Type
	}
	if t.ProjectID != "" {
		row["project_id"] = t.ProjectID
	}

	var created *domain.Transaction
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, kind, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[transactionRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result returned from %s insert", kind)
		}
		result := rows[0].toDomain()
		created = &result
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/" + kind, Err: err}
	}
	return created, nil
}

// UpdateTransaction applies a partial update to one document, scoped to
// the owning user.
func (c *Client) UpdateTransaction(ctx context.Context, kind, userID, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Remote.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("collection", kind))

	// JSON-decoded bodies carry the millisecond date as float64;
	// in-process callers pass int64.
	switch date := updates["date"].(type) {
	case float64:
		updates["date"] = formatTimestamp(int64(date))
	case int64:
		updates["date"] = formatTimestamp(date)
	}

	err := c.execute(ctx, func() error {
		return c.doPatch(ctx, kind, fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s", kind, id, userID), updates)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/" + kind, Err: err}
	}
	return nil
}

// DeleteTransaction removes one document, scoped to the owning user.
func (c *Client) DeleteTransaction(ctx context.Context, kind, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Remote.DeleteTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("collection", kind))

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, kind, fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s", kind, id, userID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/" + kind, Err: err}
	}
	return nil
}

// ListTransactions fetches all of one user's documents in a collection.
func (c *Client) ListTransactions(ctx context.Context, kind, userID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Remote.ListTransactions")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", kind),
		attribute.String("user.id", userID),
	)

	var transactions []domain.Transaction
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("%s?user_id=eq.%s&order=date.desc", kind, userID)
		body, err := c.doGet(ctx, kind, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[transactionRow](body)
		if err != nil {
			return err
		}
		transactions = make([]domain.Transaction, 0, len(rows))
		for _, r := range rows {
			transactions = append(transactions, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/" + kind, Err: err}
	}
	return transactions, nil
}

// ListTransactionsByProject fetches one user's documents referencing a
// project. Used by the cascading project delete.
func (c *Client) ListTransactionsByProject(ctx context.Context, kind, userID, projectID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Remote.ListTransactionsByProject")
	defer span.End()
	span.SetAttributes(attribute.String("collection", kind))

	var transactions []domain.Transaction
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("%s?user_id=eq.%s&project_id=eq.%s", kind, userID, projectID)
		body, err := c.doGet(ctx, kind, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[transactionRow](body)
		if err != nil {
			return err
		}
		transactions = make([]domain.Transaction, 0, len(rows))
		for _, r := range rows {
			transactions = append(transactions, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/" + kind, Err: err}
	}
	return transactions, nil
}

package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
)

type refreshTokenRow struct {
	TokenHash string `json:"token_hash"`
	UserID    string `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

// StoreRefreshToken inserts a hashed refresh token.
func (c *Client) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Remote.StoreRefreshToken")
	defer span.End()

	err := c.execute(ctx, func() error {
		_, err := c.doPost(ctx, "refresh_tokens", map[string]any{
			"token_hash": tokenHash,
			"user_id":    userID,
			"expires_at": expiresAt.UTC().Format(time.RFC3339),
			"created_at": time.Now().UTC().Format(time.RFC3339),
		})
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/refresh_tokens", Err: err}
	}
	return nil
}

// GetRefreshToken looks up a stored token by its hash. Returns nil
// without error when the token is unknown or already revoked.
func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error) {
	ctx, span := tracer.Start(ctx, "Remote.GetRefreshToken")
	defer span.End()

	var record *domain.RefreshTokenRecord
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("refresh_tokens?token_hash=eq.%s&limit=1", tokenHash)
		body, err := c.doGet(ctx, "refresh_tokens", path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[refreshTokenRow](body)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			record = &domain.RefreshTokenRecord{
				TokenHash: rows[0].TokenHash,
				UserID:    rows[0].UserID,
				ExpiresAt: parseTimestamp(rows[0].ExpiresAt),
			}
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/refresh_tokens", Err: err}
	}
	return record, nil
}

// RevokeRefreshToken removes one stored token.
func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Remote.RevokeRefreshToken")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, "refresh_tokens", fmt.Sprintf("refresh_tokens?token_hash=eq.%s", tokenHash))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/refresh_tokens", Err: err}
	}
	return nil
}

// RevokeAllRefreshTokens removes every stored token of one user,
// forcing a fresh login on all devices.
func (c *Client) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Remote.RevokeAllRefreshTokens")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, "refresh_tokens", fmt.Sprintf("refresh_tokens?user_id=eq.%s", userID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/refresh_tokens", Err: err}
	}
	return nil
}

package remote

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type userRow struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	IsAdmin      bool   `json:"is_admin"`
	IsActive     *bool  `json:"is_active"` // null means active
	ProjectLimit int    `json:"project_limit"`
	CreatedAt    string `json:"created_at"`
}

func (r userRow) toDomain() domain.UserProfile {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return domain.UserProfile{
		UserID:       r.UserID,
		Username:     r.Username,
		Email:        r.Email,
		IsAdmin:      r.IsAdmin,
		IsActive:     active,
		ProjectLimit: r.ProjectLimit,
		CreatedAt:    parseTimestamp(r.CreatedAt),
	}
}

// GetUser fetches one profile by user id.
func (c *Client) GetUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Remote.GetUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var profile *domain.UserProfile
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("user_profiles?user_id=eq.%s&limit=1", userID)
		body, err := c.doGet(ctx, "user_profiles", path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[userRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "user", ID: userID}
		}
		result := rows[0].toDomain()
		profile = &result
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/user_profiles", Err: err}
	}
	return profile, nil
}

// GetUserByUsername fetches one profile by its unique username.
// Returns nil without error when no such user exists.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Remote.GetUserByUsername")
	defer span.End()

	var profile *domain.UserProfile
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("user_profiles?username=eq.%s&limit=1", url.QueryEscape(username))
		body, err := c.doGet(ctx, "user_profiles", path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[userRow](body)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			result := rows[0].toDomain()
			profile = &result
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/user_profiles", Err: err}
	}
	return profile, nil
}

// CreateUser inserts a profile plus its credential row.
func (c *Client) CreateUser(ctx context.Context, u *domain.UserProfile, passwordHash string) (*domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Remote.CreateUser")
	defer span.End()

	userID := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)

	var created *domain.UserProfile
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "user_profiles", map[string]any{
			"user_id":    userID,
			"username":   u.Username,
			"email":      u.Email,
			"is_admin":   false,
			"is_active":  true,
			"created_at": now,
		})
		if err != nil {
			return err
		}
		rows, err := decodeRows[userRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result returned from user_profiles insert")
		}

		if _, err := c.doPost(ctx, "user_credentials", map[string]any{
			"user_id":       userID,
			"password_hash": passwordHash,
			"created_at":    now,
		}); err != nil {
			return err
		}

		result := rows[0].toDomain()
		created = &result
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "remote/user_profiles", Err: err}
	}
	return created, nil
}

type credentialRow struct {
	UserID       string `json:"user_id"`
	PasswordHash string `json:"password_hash"`
}

// GetPasswordHash fetches the stored bcrypt hash for a user.
func (c *Client) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	ctx, span := tracer.Start(ctx, "Remote.GetPasswordHash")
	defer span.End()

	var hash string
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("user_credentials?user_id=eq.%s&limit=1", userID)
		body, err := c.doGet(ctx, "user_credentials", path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[credentialRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "credentials", ID: userID}
		}
		hash = rows[0].PasswordHash
		return nil
	})
	if err != nil {
		return "", &domain.ErrExternalService{Service: "remote/user_credentials", Err: err}
	}
	return hash, nil
}

// UpdateUser applies a partial update to one profile. Username is
// immutable and rejected here as a safety net.
func (c *Client) UpdateUser(ctx context.Context, userID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Remote.UpdateUser")
	defer span.End()

	if _, ok := updates["username"]; ok {
		return &domain.ErrValidation{Field: "username", Message: "username is immutable"}
	}

	err := c.execute(ctx, func() error {
		return c.doPatch(ctx, "user_profiles", fmt.Sprintf("user_profiles?user_id=eq.%s", userID), updates)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "remote/user_profiles", Err: err}
	}
	return nil
}

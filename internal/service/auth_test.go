package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"go.uber.org/zap"
)

type fakeTokenStore struct {
	tokens map[string]*domain.RefreshTokenRecord
	err    error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]*domain.RefreshTokenRecord)}
}

func (f *fakeTokenStore) StoreRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.tokens[tokenHash] = &domain.RefreshTokenRecord{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt.UnixMilli(),
	}
	return nil
}

func (f *fakeTokenStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshTokenRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens[tokenHash], nil
}

func (f *fakeTokenStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	delete(f.tokens, tokenHash)
	return nil
}

func (f *fakeTokenStore) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	for hash, rec := range f.tokens {
		if rec.UserID == userID {
			delete(f.tokens, hash)
		}
	}
	return nil
}

func newAuthService(users *fakeUserStore) *AuthService {
	return NewAuthService(users, newFakeTokenStore(), "test-secret", time.Hour, 24*time.Hour, zap.NewNop())
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(newFakeUserStore())

	profile, err := svc.Register(ctx, &domain.RegisterRequest{
		Username: "Alice_01", // normalized to lowercase
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profile.Username != "alice_01" {
		t.Fatalf("expected lowercase username, got %q", profile.Username)
	}
	if !profile.IsActive {
		t.Fatal("new accounts start active")
	}

	resp, err := svc.Login(ctx, &domain.LoginRequest{Username: "alice_01", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("malformed login response: %+v", resp)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Sub != profile.UserID || claims.Username != "alice_01" {
		t.Fatalf("claims do not match the profile: %+v", claims)
	}
}

func TestAuth_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(newFakeUserStore())

	cases := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{"short username", domain.RegisterRequest{Username: "ab", Email: "a@b.c", Password: "longenough"}},
		{"bad characters", domain.RegisterRequest{Username: "has space", Email: "a@b.c", Password: "longenough"}},
		{"bad email", domain.RegisterRequest{Username: "alice", Email: "nope", Password: "longenough"}},
		{"short password", domain.RegisterRequest{Username: "alice", Email: "a@b.c", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tc.req)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAuth_RegisterRejectsTakenUsername(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(newFakeUserStore())

	if _, err := svc.Register(ctx, &domain.RegisterRequest{
		Username: "alice", Email: "a@b.c", Password: "longenough",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(ctx, &domain.RegisterRequest{
		Username: "ALICE", Email: "other@b.c", Password: "longenough",
	})
	var dup *domain.ErrDuplicate
	if !errors.As(err, &dup) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAuth_LoginFailures(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := newAuthService(users)

	if _, err := svc.Register(ctx, &domain.RegisterRequest{
		Username: "alice", Email: "a@b.c", Password: "longenough",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var unauthorized *domain.ErrUnauthorized
	if _, err := svc.Login(ctx, &domain.LoginRequest{Username: "nobody", Password: "x"}); !errors.As(err, &unauthorized) {
		t.Fatalf("unknown user: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "wrong"}); !errors.As(err, &unauthorized) {
		t.Fatalf("wrong password: expected ErrUnauthorized, got %v", err)
	}
}

func TestAuth_LoginDisabledAccount(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := newAuthService(users)

	profile, err := svc.Register(ctx, &domain.RegisterRequest{
		Username: "alice", Email: "a@b.c", Password: "longenough",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	users.profiles[profile.UserID].IsActive = false

	_, err = svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "longenough"})
	var disabled *domain.ErrAccountDisabled
	if !errors.As(err, &disabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}

	// A disabled admin can still log in.
	users.profiles[profile.UserID].IsAdmin = true
	if _, err := svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "longenough"}); err != nil {
		t.Fatalf("disabled admin should log in: %v", err)
	}
}

func TestAuth_RefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := newAuthService(users)

	if _, err := svc.Register(ctx, &domain.RegisterRequest{
		Username: "alice", Email: "a@b.c", Password: "longenough",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "longenough"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.RefreshToken == "" {
		t.Fatal("login must issue a refresh token")
	}

	refreshed, err := svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == "" || refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh must rotate the refresh token")
	}
	if _, err := svc.ValidateAccessToken(refreshed.AccessToken); err != nil {
		t.Fatalf("refreshed access token invalid: %v", err)
	}

	// The old token was consumed by the rotation.
	var unauthorized *domain.ErrUnauthorized
	if _, err := svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: login.RefreshToken}); !errors.As(err, &unauthorized) {
		t.Fatalf("replayed token: expected ErrUnauthorized, got %v", err)
	}
}

func TestAuth_RefreshRejectsDisabledAccount(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := newAuthService(users)

	profile, err := svc.Register(ctx, &domain.RegisterRequest{
		Username: "alice", Email: "a@b.c", Password: "longenough",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "longenough"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	users.profiles[profile.UserID].IsActive = false

	_, err = svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	var disabled *domain.ErrAccountDisabled
	if !errors.As(err, &disabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestAuth_LogoutRevokesRefreshTokens(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(newFakeUserStore())

	if _, err := svc.Register(ctx, &domain.RegisterRequest{
		Username: "alice", Email: "a@b.c", Password: "longenough",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "longenough"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, login.User.UserID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	var unauthorized *domain.ErrUnauthorized
	if _, err := svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: login.RefreshToken}); !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestAuth_RejectsForeignAndMangledTokens(t *testing.T) {
	svc := newAuthService(newFakeUserStore())

	if _, err := svc.ValidateAccessToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for garbage token")
	}

	other := NewAuthService(newFakeUserStore(), newFakeTokenStore(), "different-secret", time.Hour, 24*time.Hour, zap.NewNop())
	token, err := other.signAccessToken(&domain.UserProfile{UserID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

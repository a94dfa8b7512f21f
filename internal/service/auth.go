package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost  = 12
	minPassword = 8
)

var usernameRe = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

// AuthService handles registration, login, refresh-token rotation and
// JWT access tokens.
type AuthService struct {
	users      port.UserStore
	tokens     port.TokenStore
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(users port.UserStore, tokens port.TokenStore, jwtSecret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserProfile, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if !usernameRe.MatchString(req.Username) {
		return nil, &domain.ErrValidation{Field: "username", Message: "3-32 lowercase letters, digits or underscores"}
	}
	if !strings.Contains(req.Email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "invalid email address"}
	}
	if len(req.Password) < minPassword {
		return nil, &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPassword)}
	}

	existing, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrDuplicate{Resource: "username", Value: req.Username}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profile := &domain.UserProfile{
		Username: req.Username,
		Email:    req.Email,
		IsActive: true,
	}
	created, err := s.users.CreateUser(ctx, profile, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", created.UserID),
		zap.String("username", created.Username),
	)
	return created, nil
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()
	span.SetAttributes(attribute.String("username", req.Username))

	username := strings.ToLower(strings.TrimSpace(req.Username))
	profile, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if profile == nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	hash, err := s.users.GetPasswordHash(ctx, profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: failed password attempt",
			zap.String("user_id", profile.UserID),
		)
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	// Disabled non-admin accounts cannot obtain a session at all; the
	// access gate re-checks on every request for already-issued tokens.
	if !profile.IsActive && !profile.IsAdmin {
		return nil, &domain.ErrAccountDisabled{UserID: profile.UserID}
	}

	resp, err := s.issueTokenPair(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", profile.UserID))
	return resp, nil
}

// ============================================================
// Refresh — POST /v1/auth/refresh
// ============================================================

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued. Disabled non-admin accounts cannot refresh.
func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	if req.RefreshToken == "" {
		return nil, &domain.ErrValidation{Field: "refresh_token", Message: "is required"}
	}

	tokenHash := hashToken(req.RefreshToken)
	stored, err := s.tokens.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if stored == nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid refresh token"}
	}

	// One-time use: revoke before any further checks so a rejected
	// token cannot be replayed.
	_ = s.tokens.RevokeRefreshToken(ctx, tokenHash)

	if stored.ExpiresAt <= time.Now().UnixMilli() {
		s.logger.Warn("refresh: expired token used", zap.String("user_id", stored.UserID))
		return nil, &domain.ErrUnauthorized{Message: "refresh token expired"}
	}

	profile, err := s.users.GetUser(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if profile == nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid refresh token"}
	}
	if !profile.IsActive && !profile.IsAdmin {
		return nil, &domain.ErrAccountDisabled{UserID: profile.UserID}
	}

	return s.issueTokenPair(ctx, profile)
}

// Logout revokes every refresh token of the user. Access tokens stay
// valid until they expire; they are short-lived by configuration.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if err := s.tokens.RevokeAllRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, profile *domain.UserProfile) (*domain.LoginResponse, error) {
	access, err := s.signAccessToken(profile)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokens.StoreRefreshToken(ctx, profile.UserID, refreshHash, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         profile,
	}, nil
}

// ============================================================
// Token validation — used by middleware
// ============================================================

// JWTClaims are the custom claims carried by access tokens.
type JWTClaims struct {
	Sub      string `json:"sub"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}
	return claims, nil
}

func (s *AuthService) signAccessToken(profile *domain.UserProfile) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:      profile.UserID,
		Username: profile.Username,
		Admin:    profile.IsAdmin,
		Type:     "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "fintrack-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// generateRefreshToken returns an opaque token and the hash under which
// it is stored.
func generateRefreshToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/fintrackhq/fintrack-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const (
	userIDKey  contextKey = "userID"
	isAdminKey contextKey = "isAdmin"
)

// JWTAuthMiddleware validates Bearer tokens and injects the user
// identity into the request context.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing authentication token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims, err := authSvc.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Sub)
			ctx = context.WithValue(ctx, isAdminKey, claims.Admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GateMiddleware runs the access gate on every authenticated request:
// disabled accounts and non-admins during maintenance are turned away
// before any handler runs.
func GateMiddleware(gate *service.AccessGate, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "missing authentication token")
				return
			}
			if err := gate.Check(r.Context(), userID); err != nil {
				handleServiceError(w, err, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnlyMiddleware rejects non-admin tokens.
func AdminOnlyMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdminFromContext(r.Context()) {
				logger.Warn("admin route denied",
					zap.String("path", r.URL.Path),
					zap.String("user_id", UserIDFromContext(r.Context())),
				)
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// IsAdminFromContext reports whether the token carried the admin flag.
func IsAdminFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(isAdminKey).(bool)
	return v
}

package handler

import (
	"context"
	"net/http"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/service"
	"github.com/fintrackhq/fintrack-go/internal/syncer"

	"go.uber.org/zap"
)

// ============================================================
// Auth Handlers
// ============================================================

func authRegisterHandler(svc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/register")
		defer span.End()

		var req domain.RegisterRequest
		if !decodeBody(w, r, &req) {
			return
		}

		profile, err := svc.Register(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, profile)
	}
}

// authLoginHandler authenticates and, on success, starts the user's
// sync controllers under appCtx so they outlive this request.
func authLoginHandler(appCtx context.Context, svc *service.AuthService, sync *syncer.Supervisor, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := svc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if sync != nil {
			sync.Ensure(appCtx, resp.User.UserID)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func authRefreshHandler(svc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/refresh")
		defer span.End()

		var req domain.RefreshRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := svc.Refresh(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func authLogoutHandler(svc *service.AuthService, sync *syncer.Supervisor, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		userID := UserIDFromContext(ctx)
		if sync != nil {
			sync.Deactivate(userID)
		}
		if err := svc.Logout(ctx, userID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("user logged out", zap.String("user_id", userID))
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	}
}

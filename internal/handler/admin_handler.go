package handler

import (
	"net/http"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/infra/observability"
	"github.com/fintrackhq/fintrack-go/internal/service"
	"github.com/fintrackhq/fintrack-go/internal/syncer"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Site status and Admin Handlers
// ============================================================

func siteStatusHandler(gate *service.AccessGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, gate.Status())
	}
}

func setSiteStatusHandler(gate *service.AccessGate, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/admin/status")
		defer span.End()

		var req struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := gate.SetStatus(ctx, req.Status, req.Message); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, gate.Status())
	}
}

func adminGetUserHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/users/{userId}")
		defer span.End()

		profile, err := svc.GetUser(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func adminSetUserActiveHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/admin/users/{userId}/active")
		defer span.End()

		var req struct {
			Active bool `json:"active"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		err := svc.SetUserActive(ctx, UserIDFromContext(ctx), chi.URLParam(r, "userId"), req.Active)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user_id": chi.URLParam(r, "userId"), "active": req.Active})
	}
}

func adminSetProjectLimitHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/admin/users/{userId}/project-limit")
		defer span.End()

		var req struct {
			ProjectLimit int `json:"project_limit"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		err := svc.SetProjectLimit(ctx, UserIDFromContext(ctx), chi.URLParam(r, "userId"), req.ProjectLimit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user_id": chi.URLParam(r, "userId"), "project_limit": req.ProjectLimit})
	}
}

func adminResetMirrorHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/mirror/reset")
		defer span.End()

		if err := svc.ResetMirror(ctx, UserIDFromContext(ctx)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

func adminCreateNotificationHandler(svc *service.NotificationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/notifications")
		defer span.End()

		var n domain.Notification
		if !decodeBody(w, r, &n) {
			return
		}

		created, err := svc.Create(ctx, &n)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func adminSyncStatsHandler(metrics *observability.Metrics) http.HandlerFunc {
	collections := []string{
		domain.KindExpense, domain.KindRevenue, "projects", "notifications",
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSyncStats(collections))
	}
}

// syncStatusHandler reports whether the caller's collections are being
// served live or from the local mirror.
func syncStatusHandler(sync *syncer.Supervisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromContext(r.Context())

		if sync == nil {
			writeJSON(w, http.StatusOK, map[string]any{"active": false})
			return
		}
		us := sync.Peek(userID)
		if us == nil {
			writeJSON(w, http.StatusOK, map[string]any{"active": false})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"active": true,
			"degraded": map[string]bool{
				domain.KindExpense: us.Expenses.Degraded(),
				domain.KindRevenue: us.Revenues.Degraded(),
				"projects":         us.Projects.Degraded(),
				"notifications":    us.Notifications.Degraded(),
			},
		})
	}
}

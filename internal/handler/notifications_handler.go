package handler

import (
	"net/http"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Notification Handlers
// ============================================================

func listNotificationsHandler(svc *service.NotificationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/notifications")
		defer span.End()

		list, degraded, err := svc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if list == nil {
			list = []domain.Notification{}
		}
		writeList(w, degraded, list)
	}
}

func markNotificationReadHandler(svc *service.NotificationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/notifications/{id}/read")
		defer span.End()

		err := svc.MarkRead(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
	}
}

func markAllNotificationsReadHandler(svc *service.NotificationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/notifications/read-all")
		defer span.End()

		err := svc.MarkAllRead(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
	}
}

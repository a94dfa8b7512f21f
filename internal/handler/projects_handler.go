package handler

import (
	"net/http"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Project Handlers
// ============================================================

type projectRequest struct {
	Name string `json:"name"`
}

func listProjectsHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects")
		defer span.End()

		list, degraded, err := svc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if list == nil {
			list = []domain.Project{}
		}
		writeList(w, degraded, list)
	}
}

func createProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projects")
		defer span.End()

		var req projectRequest
		if !decodeBody(w, r, &req) {
			return
		}

		created, err := svc.Create(ctx, UserIDFromContext(ctx), req.Name)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func renameProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/projects/{id}")
		defer span.End()

		var req projectRequest
		if !decodeBody(w, r, &req) {
			return
		}

		err := svc.Rename(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"), req.Name)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
	}
}

func deleteProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/projects/{id}")
		defer span.End()

		err := svc.Delete(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package handler

import (
	"net/http"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Category Handlers
// ============================================================

func listCategoriesHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/categories")
		defer span.End()

		list, err := svc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/categories")
		defer span.End()

		var cat domain.Category
		if !decodeBody(w, r, &cat) {
			return
		}

		created, err := svc.Create(ctx, UserIDFromContext(ctx), &cat)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/categories/{id}")
		defer span.End()

		var updates map[string]any
		if !decodeBody(w, r, &updates) {
			return
		}

		err := svc.Update(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

func deleteCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/categories/{id}")
		defer span.End()

		err := svc.Delete(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

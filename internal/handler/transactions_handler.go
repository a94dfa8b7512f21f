package handler

import (
	"net/http"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Transaction Handlers (expenses and revenues)
// ============================================================

func listTransactionsHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/{kind}")
		defer span.End()

		kind := chi.URLParam(r, "kind")
		list, degraded, err := svc.List(ctx, kind, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if list == nil {
			list = []domain.Transaction{}
		}
		writeList(w, degraded, list)
	}
}

func createTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/{kind}")
		defer span.End()

		var txn domain.Transaction
		if !decodeBody(w, r, &txn) {
			return
		}

		created, err := svc.Create(ctx, chi.URLParam(r, "kind"), UserIDFromContext(ctx), &txn)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/{kind}/{id}")
		defer span.End()

		var updates map[string]any
		if !decodeBody(w, r, &updates) {
			return
		}

		err := svc.Update(ctx, chi.URLParam(r, "kind"), UserIDFromContext(ctx), chi.URLParam(r, "id"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

func deleteTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/{kind}/{id}")
		defer span.End()

		err := svc.Delete(ctx, chi.URLParam(r, "kind"), UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func transactionSummaryHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/summary")
		defer span.End()

		summary, err := svc.Summary(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func listProjectTransactionsHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{id}/{kind}")
		defer span.End()

		list, err := svc.ListByProject(ctx, chi.URLParam(r, "kind"), UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if list == nil {
			list = []domain.Transaction{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeList marks responses served from the local mirror so clients can
// surface an offline indicator.
func writeList(w http.ResponseWriter, degraded bool, data any) {
	if degraded {
		w.Header().Set("X-Fintrack-Degraded", "true")
	}
	writeJSON(w, http.StatusOK, data)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var duplicate *domain.ErrDuplicate
	var permission *domain.ErrPermission
	var external *domain.ErrExternalService
	var circuitOpen *domain.ErrCircuitOpen
	var unauthorized *domain.ErrUnauthorized
	var forbidden *domain.ErrForbidden
	var disabled *domain.ErrAccountDisabled
	var maintenance *domain.ErrMaintenance
	var quota *domain.ErrQuotaExceeded
	var badBackup *domain.ErrBadBackup

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &duplicate):
		logger.Debug("duplicate resource", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &quota):
		logger.Debug("quota exceeded", zap.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &badBackup):
		logger.Debug("invalid backup", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &disabled):
		logger.Warn("account disabled", zap.String("user_id", disabled.UserID))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &maintenance):
		logger.Info("request during maintenance", zap.String("status", maintenance.Status))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &permission):
		logger.Warn("remote permission error", zap.Error(err))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream store unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

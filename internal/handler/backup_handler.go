package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Backup Handlers
// ============================================================

// maxBackupSize bounds uploaded documents (8 MiB).
const maxBackupSize = 8 << 20

func backupExportHandler(svc *service.BackupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/backup/export")
		defer span.End()

		b, err := svc.Export(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		filename := fmt.Sprintf("fintrack-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		writeJSON(w, http.StatusOK, b)
	}
}

func backupImportHandler(svc *service.BackupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/backup/import")
		defer span.End()

		data, err := io.ReadAll(io.LimitReader(r.Body, maxBackupSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}

		b, err := svc.Import(ctx, data)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "valid",
			"expenses": len(b.Expenses),
			"revenues": len(b.Revenues),
			"projects": len(b.Projects),
		})
	}
}

// Package handler exposes the HTTP API: public auth and status routes,
// the authenticated finance endpoints behind the access gate, and the
// admin surface.
package handler

import (
	"context"
	"net/http"

	"github.com/fintrackhq/fintrack-go/internal/infra/observability"
	"github.com/fintrackhq/fintrack-go/internal/service"
	"github.com/fintrackhq/fintrack-go/internal/syncer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router serves.
type Services struct {
	Auth          *service.AuthService
	Transactions  *service.TransactionService
	Projects      *service.ProjectService
	Categories    *service.CategoryService
	Notifications *service.NotificationService
	Backup        *service.BackupService
	Admin         *service.AdminService
	Gate          *service.AccessGate
	Sync          *syncer.Supervisor
}

// NewRouter creates the HTTP router with all routes and middleware.
// appCtx bounds the lifetime of the per-user sync controllers started
// at login; it is the process context, not a request context.
func NewRouter(appCtx context.Context, svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Fintrack-Degraded"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(svcs.Gate))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Public: site status, so clients can render the maintenance
		// page without a session.
		r.Get("/status", siteStatusHandler(svcs.Gate))

		// Public auth routes.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(svcs.Auth, logger))
			r.Post("/login", authLoginHandler(appCtx, svcs.Auth, svcs.Sync, logger))
			r.Post("/refresh", authRefreshHandler(svcs.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(svcs.Auth, logger))
				r.Post("/logout", authLogoutHandler(svcs.Auth, svcs.Sync, logger))
			})
		})

		// Authenticated finance endpoints, behind the access gate.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))
			r.Use(GateMiddleware(svcs.Gate, logger))

			// Expenses and revenues share one handler set, the kind
			// segment picks the collection.
			r.Route("/{kind:expenses|revenues}", func(r chi.Router) {
				r.Get("/", listTransactionsHandler(svcs.Transactions, logger))
				r.Post("/", createTransactionHandler(svcs.Transactions, logger))
				r.Patch("/{id}", updateTransactionHandler(svcs.Transactions, logger))
				r.Delete("/{id}", deleteTransactionHandler(svcs.Transactions, logger))
			})
			r.Get("/transactions/summary", transactionSummaryHandler(svcs.Transactions, logger))

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", listProjectsHandler(svcs.Projects, logger))
				r.Post("/", createProjectHandler(svcs.Projects, logger))
				r.Put("/{id}", renameProjectHandler(svcs.Projects, logger))
				r.Delete("/{id}", deleteProjectHandler(svcs.Projects, logger))
				r.Get("/{id}/{kind:expenses|revenues}", listProjectTransactionsHandler(svcs.Transactions, logger))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", listCategoriesHandler(svcs.Categories, logger))
				r.Post("/", createCategoryHandler(svcs.Categories, logger))
				r.Patch("/{id}", updateCategoryHandler(svcs.Categories, logger))
				r.Delete("/{id}", deleteCategoryHandler(svcs.Categories, logger))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", listNotificationsHandler(svcs.Notifications, logger))
				r.Post("/{id}/read", markNotificationReadHandler(svcs.Notifications, logger))
				r.Post("/read-all", markAllNotificationsReadHandler(svcs.Notifications, logger))
			})

			r.Get("/backup/export", backupExportHandler(svcs.Backup, logger))
			r.Post("/backup/import", backupImportHandler(svcs.Backup, logger))

			r.Get("/sync/status", syncStatusHandler(svcs.Sync))
		})

		// Admin surface. The gate is skipped: admins operate during
		// maintenance.
		r.Route("/admin", func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))
			r.Use(AdminOnlyMiddleware(logger))

			r.Put("/status", setSiteStatusHandler(svcs.Gate, logger))
			r.Get("/users/{userId}", adminGetUserHandler(svcs.Admin, logger))
			r.Put("/users/{userId}/active", adminSetUserActiveHandler(svcs.Admin, logger))
			r.Put("/users/{userId}/project-limit", adminSetProjectLimitHandler(svcs.Admin, logger))
			r.Post("/notifications", adminCreateNotificationHandler(svcs.Notifications, logger))
			r.Post("/mirror/reset", adminResetMirrorHandler(svcs.Admin, logger))
			r.Get("/sync/stats", adminSyncStatsHandler(metrics))
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler(gate *service.AccessGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":      "ready",
			"site_status": gate.Status().Status,
		})
	}
}

// Package service provides the business logic layer (use cases) for the
// finance tracker: transactions, projects, categories, notifications,
// the access gate, backups and authentication.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/infra/observability"
	"github.com/fintrackhq/fintrack-go/internal/port"
	"github.com/fintrackhq/fintrack-go/internal/syncer"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var txnTracer = otel.Tracer("service/transactions")

// TransactionService handles expense and revenue records. Reads prefer
// the remote store; when it fails, the user's synced in-memory view
// (backed by the local mirror) answers instead.
type TransactionService struct {
	store    port.TransactionStore
	sync     *syncer.Supervisor
	activity *ActivityService
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewTransactionService creates a new transaction service. sync may be
// nil, in which case reads have no offline fallback.
func NewTransactionService(store port.TransactionStore, sync *syncer.Supervisor, activity *ActivityService, metrics *observability.Metrics, logger *zap.Logger) *TransactionService {
	return &TransactionService{store: store, sync: sync, activity: activity, metrics: metrics, logger: logger}
}

func validKind(kind string) error {
	if kind != domain.KindExpense && kind != domain.KindRevenue {
		return &domain.ErrValidation{Field: "kind", Message: "must be expenses or revenues"}
	}
	return nil
}

func validateTransaction(kind string, t *domain.Transaction) error {
	if t.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}
	if t.Category == "" {
		return &domain.ErrValidation{Field: "category", Message: "is required"}
	}
	if t.Date <= 0 {
		return &domain.ErrValidation{Field: "date", Message: "is required"}
	}
	if kind == domain.KindExpense && t.Type != "" &&
		t.Type != domain.ExpenseTypeFixed && t.Type != domain.ExpenseTypeVariable {
		return &domain.ErrValidation{Field: "type", Message: "must be fixed or variable"}
	}
	if kind == domain.KindRevenue && t.Type != "" {
		return &domain.ErrValidation{Field: "type", Message: "only expenses carry a type"}
	}
	return nil
}

func (s *TransactionService) Create(ctx context.Context, kind, userID string, t *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("kind", kind))

	if err := validKind(kind); err != nil {
		return nil, err
	}
	if err := validateTransaction(kind, t); err != nil {
		return nil, err
	}
	t.UserID = userID

	created, err := s.store.CreateTransaction(ctx, kind, t)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}

	s.activity.Record(ctx, userID, domain.ActionCreate, kind, created.ID,
		fmt.Sprintf("%s %.2f in %s", kind, created.Amount, created.Category))

	s.logger.Info("transaction created",
		zap.String("kind", kind),
		zap.String("id", created.ID),
		zap.String("user_id", userID),
	)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, kind, userID, id string, updates map[string]any) error {
	ctx, span := txnTracer.Start(ctx, "TransactionService.Update")
	defer span.End()

	if err := validKind(kind); err != nil {
		return err
	}
	if len(updates) == 0 {
		return &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}
	if amount, ok := updates["amount"].(float64); ok && amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}

	if err := s.store.UpdateTransaction(ctx, kind, userID, id, updates); err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}

	s.activity.Record(ctx, userID, domain.ActionUpdate, kind, id, "")
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, kind, userID, id string) error {
	ctx, span := txnTracer.Start(ctx, "TransactionService.Delete")
	defer span.End()

	if err := validKind(kind); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, kind, userID, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}

	s.activity.Record(ctx, userID, domain.ActionDelete, kind, id, "")
	return nil
}

// List returns the user's records for one kind, newest first. When the
// remote store fails the synced offline view answers, marked degraded.
func (s *TransactionService) List(ctx context.Context, kind, userID string) ([]domain.Transaction, bool, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionService.List")
	defer span.End()
	span.SetAttributes(attribute.String("kind", kind))

	if err := validKind(kind); err != nil {
		return nil, false, err
	}

	list, err := s.store.ListTransactions(ctx, kind, userID)
	if err == nil {
		domain.SortTransactions(list)
		return list, false, nil
	}

	s.metrics.IncrExternalError("remote/" + kind)
	if cached, ok := s.offlineView(kind, userID); ok {
		s.logger.Warn("transactions: remote list failed, serving synced view",
			zap.String("kind", kind),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return cached, true, nil
	}
	return nil, false, fmt.Errorf("list %s: %w", kind, err)
}

func (s *TransactionService) ListByProject(ctx context.Context, kind, userID, projectID string) ([]domain.Transaction, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionService.ListByProject")
	defer span.End()

	if err := validKind(kind); err != nil {
		return nil, err
	}
	list, err := s.store.ListTransactionsByProject(ctx, kind, userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("list %s by project: %w", kind, err)
	}
	domain.SortTransactions(list)
	return list, nil
}

// Summary aggregates both kinds for the dashboard. Expenses and
// revenues are fetched concurrently.
func (s *TransactionService) Summary(ctx context.Context, userID string) (*domain.TransactionSummary, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionService.Summary")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("summary", time.Since(start))
	}()

	var expenses, revenues []domain.Transaction
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListTransactions(gCtx, domain.KindExpense, userID)
		return err
	})
	g.Go(func() error {
		var err error
		revenues, err = s.store.ListTransactions(gCtx, domain.KindRevenue, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	summary := &domain.TransactionSummary{
		ByCategory:   make(map[string]float64),
		ExpenseCount: len(expenses),
		RevenueCount: len(revenues),
	}
	for _, e := range expenses {
		summary.TotalExpenses += e.Amount
		summary.ByCategory[e.Category] += e.Amount
	}
	for _, r := range revenues {
		summary.TotalRevenues += r.Amount
	}
	summary.Balance = summary.TotalRevenues - summary.TotalExpenses
	return summary, nil
}

func (s *TransactionService) offlineView(kind, userID string) ([]domain.Transaction, bool) {
	if s.sync == nil {
		return nil, false
	}
	us := s.sync.Peek(userID)
	if us == nil {
		return nil, false
	}
	var c *syncer.Controller[domain.Transaction]
	switch kind {
	case domain.KindExpense:
		c = us.Expenses
	case domain.KindRevenue:
		c = us.Revenues
	default:
		return nil, false
	}
	list := c.Current()
	if len(list) == 0 {
		return nil, false
	}
	return list, true
}

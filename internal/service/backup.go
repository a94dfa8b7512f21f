package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var backupTracer = otel.Tracer("service/backup")

// BackupService exports a user's data as a single portable document and
// validates uploaded ones. Import checks shape only; restoring data
// into the remote store is out of scope, the validated document is
// handed back for the client to act on.
type BackupService struct {
	txns     port.TransactionStore
	projects port.ProjectStore
	logger   *zap.Logger
}

// NewBackupService creates a new backup service.
func NewBackupService(txns port.TransactionStore, projects port.ProjectStore, logger *zap.Logger) *BackupService {
	return &BackupService{txns: txns, projects: projects, logger: logger}
}

// Export collects the user's expenses, revenues and projects
// concurrently into one document.
func (s *BackupService) Export(ctx context.Context, userID string) (*domain.Backup, error) {
	ctx, span := backupTracer.Start(ctx, "BackupService.Export")
	defer span.End()

	b := &domain.Backup{
		Version:    domain.BackupVersion,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b.Expenses, err = s.txns.ListTransactions(gCtx, domain.KindExpense, userID)
		return err
	})
	g.Go(func() error {
		var err error
		b.Revenues, err = s.txns.ListTransactions(gCtx, domain.KindRevenue, userID)
		return err
	})
	g.Go(func() error {
		var err error
		b.Projects, err = s.projects.ListProjects(gCtx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	if b.Expenses == nil {
		b.Expenses = []domain.Transaction{}
	}
	if b.Revenues == nil {
		b.Revenues = []domain.Transaction{}
	}
	if b.Projects == nil {
		b.Projects = []domain.Project{}
	}

	s.logger.Info("backup exported",
		zap.String("user_id", userID),
		zap.Int("expenses", len(b.Expenses)),
		zap.Int("revenues", len(b.Revenues)),
		zap.Int("projects", len(b.Projects)),
	)
	return b, nil
}

// Import parses and shape-validates an uploaded backup document. It
// returns the parsed document on success and ErrBadBackup otherwise.
func (s *BackupService) Import(ctx context.Context, data []byte) (*domain.Backup, error) {
	_, span := backupTracer.Start(ctx, "BackupService.Import")
	defer span.End()

	var b domain.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &domain.ErrBadBackup{Reason: "not a JSON document"}
	}

	if b.Version != domain.BackupVersion {
		return nil, &domain.ErrBadBackup{Reason: fmt.Sprintf("unsupported version %d", b.Version)}
	}
	if b.ExportDate == "" {
		return nil, &domain.ErrBadBackup{Reason: "missing exportDate"}
	}
	if _, err := time.Parse(time.RFC3339, b.ExportDate); err != nil {
		return nil, &domain.ErrBadBackup{Reason: "exportDate is not RFC 3339"}
	}

	for i, t := range b.Expenses {
		if err := checkBackupTransaction(t); err != nil {
			return nil, &domain.ErrBadBackup{Reason: fmt.Sprintf("expenses[%d]: %v", i, err)}
		}
	}
	for i, t := range b.Revenues {
		if err := checkBackupTransaction(t); err != nil {
			return nil, &domain.ErrBadBackup{Reason: fmt.Sprintf("revenues[%d]: %v", i, err)}
		}
	}
	for i, p := range b.Projects {
		if p.ID == "" || p.Name == "" {
			return nil, &domain.ErrBadBackup{Reason: fmt.Sprintf("projects[%d]: missing id or name", i)}
		}
	}

	return &b, nil
}

func checkBackupTransaction(t domain.Transaction) error {
	if t.ID == "" {
		return fmt.Errorf("missing id")
	}
	if t.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if t.Category == "" {
		return fmt.Errorf("missing category")
	}
	if t.Date <= 0 {
		return fmt.Errorf("missing date")
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"go.uber.org/zap"
)

func TestBackupExport_IncludesAllCollections(t *testing.T) {
	ctx := context.Background()
	txns := newFakeTxnStore()
	projects := &fakeProjectStore{}

	txns.CreateTransaction(ctx, domain.KindExpense, &domain.Transaction{UserID: "u1", Amount: 5, Category: "Food", Date: 1})
	txns.CreateTransaction(ctx, domain.KindRevenue, &domain.Transaction{UserID: "u1", Amount: 100, Category: "Salary", Date: 2})
	txns.CreateTransaction(ctx, domain.KindExpense, &domain.Transaction{UserID: "u2", Amount: 9, Category: "Food", Date: 3})
	projects.CreateProject(ctx, &domain.Project{UserID: "u1", Name: "trip"})

	svc := NewBackupService(txns, projects, zap.NewNop())
	b, err := svc.Export(ctx, "u1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if b.Version != domain.BackupVersion {
		t.Fatalf("expected version %d, got %d", domain.BackupVersion, b.Version)
	}
	if _, err := time.Parse(time.RFC3339, b.ExportDate); err != nil {
		t.Fatalf("exportDate not RFC 3339: %q", b.ExportDate)
	}
	if len(b.Expenses) != 1 || len(b.Revenues) != 1 || len(b.Projects) != 1 {
		t.Fatalf("wrong counts: %d expenses, %d revenues, %d projects",
			len(b.Expenses), len(b.Revenues), len(b.Projects))
	}

	// An exported document must pass its own import validation.
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := svc.Import(ctx, raw); err != nil {
		t.Fatalf("round trip import: %v", err)
	}
}

func TestBackupExport_EmptyAccountYieldsEmptyArrays(t *testing.T) {
	svc := NewBackupService(newFakeTxnStore(), &fakeProjectStore{}, zap.NewNop())
	b, err := svc.Export(context.Background(), "u1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if b.Expenses == nil || b.Revenues == nil || b.Projects == nil {
		t.Fatal("empty collections must serialize as [], not null")
	}
}

func TestBackupImport_RejectsMalformedDocuments(t *testing.T) {
	svc := NewBackupService(newFakeTxnStore(), &fakeProjectStore{}, zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		name string
		doc  string
	}{
		{"not json", `{{{`},
		{"wrong version", `{"version":99,"exportDate":"2026-01-02T15:04:05Z","expenses":[],"revenues":[],"projects":[]}`},
		{"missing export date", `{"version":1,"expenses":[],"revenues":[],"projects":[]}`},
		{"bad export date", `{"version":1,"exportDate":"yesterday","expenses":[],"revenues":[],"projects":[]}`},
		{"expense without id", `{"version":1,"exportDate":"2026-01-02T15:04:05Z","expenses":[{"amount":5,"category":"Food","date":1}],"revenues":[],"projects":[]}`},
		{"negative amount", `{"version":1,"exportDate":"2026-01-02T15:04:05Z","expenses":[{"id":"e1","amount":-5,"category":"Food","date":1}],"revenues":[],"projects":[]}`},
		{"project without name", `{"version":1,"exportDate":"2026-01-02T15:04:05Z","expenses":[],"revenues":[],"projects":[{"id":"p1"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Import(ctx, []byte(tc.doc))
			var bad *domain.ErrBadBackup
			if !errors.As(err, &bad) {
				t.Fatalf("expected ErrBadBackup, got %v", err)
			}
		})
	}
}

func TestBackupImport_AcceptsValidDocument(t *testing.T) {
	svc := NewBackupService(newFakeTxnStore(), &fakeProjectStore{}, zap.NewNop())

	doc := `{
		"version": 1,
		"exportDate": "2026-01-02T15:04:05Z",
		"expenses": [{"id":"e1","amount":12.5,"category":"Food","date":1700000000000}],
		"revenues": [{"id":"r1","amount":900,"category":"Salary","date":1700000000000}],
		"projects": [{"id":"p1","name":"trip"}]
	}`

	b, err := svc.Import(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(b.Expenses) != 1 || len(b.Revenues) != 1 || len(b.Projects) != 1 {
		t.Fatal("parsed document lost records")
	}
}

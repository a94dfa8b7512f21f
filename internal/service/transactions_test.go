package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/infra/observability"

	"go.uber.org/zap"
)

func newTxnService(txns *fakeTxnStore, activity *fakeActivityStore) *TransactionService {
	logger := zap.NewNop()
	return NewTransactionService(txns, nil,
		NewActivityService(activity, logger),
		observability.NewMetrics(), logger)
}

func TestTransactionCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTxnService(newFakeTxnStore(), &fakeActivityStore{})

	cases := []struct {
		name string
		kind string
		txn  domain.Transaction
	}{
		{"bad kind", "wallets", domain.Transaction{Amount: 5, Category: "Food", Date: 1}},
		{"zero amount", domain.KindExpense, domain.Transaction{Amount: 0, Category: "Food", Date: 1}},
		{"negative amount", domain.KindExpense, domain.Transaction{Amount: -3, Category: "Food", Date: 1}},
		{"missing category", domain.KindExpense, domain.Transaction{Amount: 5, Date: 1}},
		{"missing date", domain.KindExpense, domain.Transaction{Amount: 5, Category: "Food"}},
		{"unknown expense type", domain.KindExpense, domain.Transaction{Amount: 5, Category: "Food", Date: 1, Type: "recurring"}},
		{"type on revenue", domain.KindRevenue, domain.Transaction{Amount: 5, Category: "Salary", Date: 1, Type: "fixed"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.kind, "u1", &tc.txn)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestTransactionCreate_RecordsActivity(t *testing.T) {
	ctx := context.Background()
	activity := &fakeActivityStore{}
	svc := newTxnService(newFakeTxnStore(), activity)

	created, err := svc.Create(ctx, domain.KindExpense, "u1", &domain.Transaction{
		Amount: 12.5, Category: "Food", Date: 1700000000000, Type: domain.ExpenseTypeVariable,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.UserID != "u1" {
		t.Fatalf("malformed created record: %+v", created)
	}
	if activity.count() != 1 {
		t.Fatalf("expected one activity entry, got %d", activity.count())
	}
}

func TestTransactionCreate_SurvivesActivityFailure(t *testing.T) {
	ctx := context.Background()
	activity := &fakeActivityStore{err: errors.New("audit table down")}
	svc := newTxnService(newFakeTxnStore(), activity)

	if _, err := svc.Create(ctx, domain.KindRevenue, "u1", &domain.Transaction{
		Amount: 100, Category: "Salary", Date: 1,
	}); err != nil {
		t.Fatalf("activity failure must not fail the create: %v", err)
	}
}

func TestTransactionList_SortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	txns := newFakeTxnStore()
	svc := newTxnService(txns, &fakeActivityStore{})

	for _, date := range []int64{100, 300, 200} {
		if _, err := svc.Create(ctx, domain.KindExpense, "u1", &domain.Transaction{
			Amount: 1, Category: "Food", Date: date,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, degraded, err := svc.List(ctx, domain.KindExpense, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if degraded {
		t.Fatal("unexpected degraded flag")
	}
	if got[0].Date != 300 || got[1].Date != 200 || got[2].Date != 100 {
		t.Fatalf("expected newest first, got dates %d, %d, %d", got[0].Date, got[1].Date, got[2].Date)
	}
}

func TestTransactionList_ErrorWithoutFallbackPropagates(t *testing.T) {
	ctx := context.Background()
	txns := newFakeTxnStore()
	txns.listErr = errors.New("remote down")
	svc := newTxnService(txns, &fakeActivityStore{})

	if _, _, err := svc.List(ctx, domain.KindExpense, "u1"); err == nil {
		t.Fatal("expected error when the store fails and no sync view exists")
	}
}

func TestTransactionSummary(t *testing.T) {
	ctx := context.Background()
	txns := newFakeTxnStore()
	svc := newTxnService(txns, &fakeActivityStore{})

	seed := []struct {
		kind     string
		amount   float64
		category string
	}{
		{domain.KindExpense, 50, "Food"},
		{domain.KindExpense, 30, "Food"},
		{domain.KindExpense, 20, "Transport"},
		{domain.KindRevenue, 500, "Salary"},
	}
	for _, s := range seed {
		if _, err := svc.Create(ctx, s.kind, "u1", &domain.Transaction{
			Amount: s.amount, Category: s.category, Date: 1,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	sum, err := svc.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalExpenses != 100 || sum.TotalRevenues != 500 || sum.Balance != 400 {
		t.Fatalf("wrong totals: %+v", sum)
	}
	if sum.ByCategory["Food"] != 80 || sum.ByCategory["Transport"] != 20 {
		t.Fatalf("wrong category breakdown: %v", sum.ByCategory)
	}
	if sum.ExpenseCount != 3 || sum.RevenueCount != 1 {
		t.Fatalf("wrong counts: %+v", sum)
	}
}

func TestTransactionUpdate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTxnService(newFakeTxnStore(), &fakeActivityStore{})

	var validation *domain.ErrValidation
	if err := svc.Update(ctx, domain.KindExpense, "u1", "x", nil); !errors.As(err, &validation) {
		t.Fatalf("empty update: expected ErrValidation, got %v", err)
	}
	if err := svc.Update(ctx, domain.KindExpense, "u1", "x", map[string]any{"amount": -1.0}); !errors.As(err, &validation) {
		t.Fatalf("negative amount: expected ErrValidation, got %v", err)
	}
}

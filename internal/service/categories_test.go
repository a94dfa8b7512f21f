package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"go.uber.org/zap"
)

type fakeCategoryStore struct {
	mu     sync.Mutex
	data   []domain.Category
	nextID int
}

func (f *fakeCategoryStore) CreateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	created := *c
	created.ID = fmt.Sprintf("cat-%d", f.nextID)
	f.data = append(f.data, created)
	return &created, nil
}

func (f *fakeCategoryStore) UpdateCategory(_ context.Context, userID, id string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.data {
		if c.ID == id && c.UserID == userID {
			if icon, ok := updates["icon"].(string); ok {
				f.data[i].Icon = icon
			}
			if color, ok := updates["color"].(string); ok {
				f.data[i].Color = color
			}
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "category", ID: id}
}

func (f *fakeCategoryStore) DeleteCategory(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.data {
		if c.ID == id && c.UserID == userID {
			f.data = append(f.data[:i:i], f.data[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "category", ID: id}
}

func (f *fakeCategoryStore) ListCategories(_ context.Context, userID string) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Category
	for _, c := range f.data {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func newCategoryService(store *fakeCategoryStore) *CategoryService {
	logger := zap.NewNop()
	return NewCategoryService(store, NewActivityService(&fakeActivityStore{}, logger), logger)
}

func TestCategoryList_MergesBuiltins(t *testing.T) {
	ctx := context.Background()
	store := &fakeCategoryStore{}
	svc := newCategoryService(store)

	if _, err := svc.Create(ctx, "u1", &domain.Category{Name: "food", Icon: "pizza", Color: "#112233"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	merged, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(merged) != len(domain.BuiltinCategories) {
		t.Fatalf("override should not grow the list: got %d", len(merged))
	}
	if merged[0].Name != "Food" || merged[0].Icon != "pizza" {
		t.Fatalf("built-in Food not overridden: %+v", merged[0])
	}
}

func TestCategoryCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newCategoryService(&fakeCategoryStore{})

	var validation *domain.ErrValidation
	if _, err := svc.Create(ctx, "u1", &domain.Category{Name: "  "}); !errors.As(err, &validation) {
		t.Fatalf("blank name: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, "u1", &domain.Category{Name: "Pets", Color: "red"}); !errors.As(err, &validation) {
		t.Fatalf("bad color: expected ErrValidation, got %v", err)
	}

	var dup *domain.ErrDuplicate
	if _, err := svc.Create(ctx, "u1", &domain.Category{Name: "Pets", Color: "#aabbcc"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", &domain.Category{Name: "PETS"}); !errors.As(err, &dup) {
		t.Fatalf("duplicate: expected ErrDuplicate, got %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/infra/cache"

	"go.uber.org/zap"
)

func newGate(users *fakeUserStore, status *fakeStatusStore, watcher *fakeWatcher) *AccessGate {
	return NewAccessGate(users, status, watcher,
		cache.New[*domain.UserProfile](time.Minute), zap.NewNop())
}

func seedUsers() *fakeUserStore {
	users := newFakeUserStore()
	users.profiles["member"] = &domain.UserProfile{UserID: "member", IsActive: true}
	users.profiles["admin"] = &domain.UserProfile{UserID: "admin", IsActive: true, IsAdmin: true}
	users.profiles["disabled"] = &domain.UserProfile{UserID: "disabled", IsActive: false}
	users.profiles["disabled-admin"] = &domain.UserProfile{UserID: "disabled-admin", IsActive: false, IsAdmin: true}
	return users
}

func TestGate_NormalOperation(t *testing.T) {
	gate := newGate(seedUsers(), &fakeStatusStore{}, newFakeWatcher())

	if err := gate.Check(context.Background(), "member"); err != nil {
		t.Fatalf("active member should pass: %v", err)
	}
}

func TestGate_DisabledAccountDenied(t *testing.T) {
	gate := newGate(seedUsers(), &fakeStatusStore{}, newFakeWatcher())

	err := gate.Check(context.Background(), "disabled")
	var disabled *domain.ErrAccountDisabled
	if !errors.As(err, &disabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestGate_AdminBypassesDisabledAndMaintenance(t *testing.T) {
	gate := newGate(seedUsers(), &fakeStatusStore{}, newFakeWatcher())
	gate.setStatus(domain.SiteStatus{Status: domain.SiteStatusMaintenance})

	for _, id := range []string{"admin", "disabled-admin"} {
		if err := gate.Check(context.Background(), id); err != nil {
			t.Fatalf("admin %s should bypass every gate: %v", id, err)
		}
	}
}

func TestGate_MaintenanceDeniesMembers(t *testing.T) {
	gate := newGate(seedUsers(), &fakeStatusStore{}, newFakeWatcher())

	for _, status := range []string{domain.SiteStatusMaintenance, domain.SiteStatusDevelopment} {
		gate.setStatus(domain.SiteStatus{Status: status})

		err := gate.Check(context.Background(), "member")
		var maint *domain.ErrMaintenance
		if !errors.As(err, &maint) {
			t.Fatalf("status %s: expected ErrMaintenance, got %v", status, err)
		}
		if maint.Status != status {
			t.Fatalf("expected status %s carried in the error, got %s", status, maint.Status)
		}
	}
}

func TestGate_RunAppliesWatchedStatus(t *testing.T) {
	watcher := newFakeWatcher()
	status := &fakeStatusStore{status: domain.SiteStatus{Status: domain.SiteStatusNormal}}
	gate := newGate(seedUsers(), status, watcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		gate.Run(ctx)
		close(done)
	}()

	watcher.statuses <- domain.SiteStatus{Status: domain.SiteStatusMaintenance, Message: "upgrading"}

	deadline := time.Now().Add(2 * time.Second)
	for gate.Status().Status != domain.SiteStatusMaintenance {
		if time.Now().After(deadline) {
			t.Fatal("gate never applied the watched status")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A subscription error keeps the last known status.
	watcher.errs <- errors.New("poll failed")
	time.Sleep(50 * time.Millisecond)
	if gate.Status().Status != domain.SiteStatusMaintenance {
		t.Fatal("subscription error must not reset the status")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestGate_SetStatusAppliesImmediately(t *testing.T) {
	gate := newGate(seedUsers(), &fakeStatusStore{}, newFakeWatcher())

	if err := gate.SetStatus(context.Background(), domain.SiteStatusMaintenance, "back soon"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if gate.Status().Status != domain.SiteStatusMaintenance {
		t.Fatal("status change should apply locally without waiting for the poll")
	}

	if err := gate.SetStatus(context.Background(), "offline", ""); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}

func TestGate_InvalidateDropsCachedProfile(t *testing.T) {
	users := seedUsers()
	gate := newGate(users, &fakeStatusStore{}, newFakeWatcher())
	ctx := context.Background()

	if err := gate.Check(ctx, "member"); err != nil {
		t.Fatalf("initial check: %v", err)
	}

	// Deactivate behind the cache's back; the stale entry still passes.
	users.profiles["member"].IsActive = false
	if err := gate.Check(ctx, "member"); err != nil {
		t.Fatalf("cached profile should still pass: %v", err)
	}

	gate.Invalidate("member")
	var disabled *domain.ErrAccountDisabled
	if err := gate.Check(ctx, "member"); !errors.As(err, &disabled) {
		t.Fatalf("expected ErrAccountDisabled after invalidate, got %v", err)
	}
}

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/infra/cache"
	"github.com/fintrackhq/fintrack-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var gateTracer = otel.Tracer("service/gate")

// AccessGate decides, per request, whether an authenticated user may
// use the application. Two conditions deny access: the account was
// deactivated by an admin, or the site is in maintenance/development
// mode. Admins bypass both so they can operate during an outage.
//
// The site status is live-subscribed; until the first value arrives the
// gate assumes normal operation rather than locking everyone out.
type AccessGate struct {
	users    port.UserStore
	status   port.StatusStore
	watcher  port.SnapshotWatcher
	profiles *cache.InMemory[*domain.UserProfile]
	logger   *zap.Logger

	mu      sync.RWMutex
	current domain.SiteStatus
	loaded  bool
}

// NewAccessGate creates the gate. profiles caches remote lookups so the
// per-request check stays cheap.
func NewAccessGate(users port.UserStore, status port.StatusStore, watcher port.SnapshotWatcher, profiles *cache.InMemory[*domain.UserProfile], logger *zap.Logger) *AccessGate {
	return &AccessGate{
		users:    users,
		status:   status,
		watcher:  watcher,
		profiles: profiles,
		logger:   logger,
		current:  domain.SiteStatus{Status: domain.SiteStatusNormal},
	}
}

// Run subscribes to site-status changes until ctx is cancelled. Safe to
// call once at startup; the gate works (assuming normal status) even if
// it is never started.
func (g *AccessGate) Run(ctx context.Context) error {
	if st, err := g.status.GetSiteStatus(ctx); err == nil && st != nil {
		g.setStatus(*st)
	} else if err != nil {
		g.logger.Warn("gate: initial status read failed, assuming normal", zap.Error(err))
	}

	statuses, errs := g.watcher.WatchSiteStatus(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-statuses:
			if !ok {
				return nil
			}
			g.setStatus(st)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			// Keep the last known status; a flapping subscription must
			// not flip the site in and out of maintenance.
			g.logger.Warn("gate: status subscription error", zap.Error(err))
		}
	}
}

// Check allows or denies the user. It returns nil, ErrAccountDisabled
// or ErrMaintenance.
func (g *AccessGate) Check(ctx context.Context, userID string) error {
	ctx, span := gateTracer.Start(ctx, "AccessGate.Check")
	defer span.End()

	profile, err := g.profile(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return &domain.ErrUnauthorized{Message: "unknown user"}
	}

	if profile.IsAdmin {
		return nil
	}

	if !profile.IsActive {
		return &domain.ErrAccountDisabled{UserID: userID}
	}

	if st := g.Status(); st.Status != domain.SiteStatusNormal {
		return &domain.ErrMaintenance{Status: st.Status}
	}
	return nil
}

// Status returns the last known site status.
func (g *AccessGate) Status() domain.SiteStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// SetStatus updates the remote flag (admin operation) and applies it
// locally right away instead of waiting for the next poll.
func (g *AccessGate) SetStatus(ctx context.Context, status, message string) error {
	ctx, span := gateTracer.Start(ctx, "AccessGate.SetStatus")
	defer span.End()

	switch status {
	case domain.SiteStatusNormal, domain.SiteStatusMaintenance, domain.SiteStatusDevelopment:
	default:
		return &domain.ErrValidation{Field: "status", Message: "unknown site status"}
	}

	if err := g.status.SetSiteStatus(ctx, status, message); err != nil {
		return fmt.Errorf("set site status: %w", err)
	}
	g.setStatus(domain.SiteStatus{Status: status, Message: message})
	return nil
}

// Invalidate drops a user's cached profile, forcing the next Check to
// re-read it. Admin flag flips take effect immediately through this.
func (g *AccessGate) Invalidate(userID string) {
	g.profiles.Delete(userID)
}

func (g *AccessGate) profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if p, ok := g.profiles.Get(userID); ok {
		return p, nil
	}
	p, err := g.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if p != nil {
		g.profiles.Set(userID, p)
	}
	return p, nil
}

func (g *AccessGate) setStatus(st domain.SiteStatus) {
	g.mu.Lock()
	changed := g.current.Status != st.Status || !g.loaded
	g.current = st
	g.loaded = true
	g.mu.Unlock()

	if changed {
		g.logger.Info("gate: site status",
			zap.String("status", st.Status),
			zap.String("message", st.Message),
		)
	}
}

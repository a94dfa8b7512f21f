package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/infra/observability"
	"github.com/fintrackhq/fintrack-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserSync bundles the four collection controllers that run while a
// user's session is active.
type UserSync struct {
	Expenses      *Controller[domain.Transaction]
	Revenues      *Controller[domain.Transaction]
	Projects      *Controller[domain.Project]
	Notifications *Controller[domain.Notification]

	cancel context.CancelFunc
}

// Supervisor owns the per-user controller sets: one set is started when
// a session becomes active and torn down on logout. The four
// subscriptions are independent streams; no ordering is guaranteed
// across collections.
type Supervisor struct {
	watcher       port.SnapshotWatcher
	mirror        port.MirrorStore
	metrics       *observability.Metrics
	logger        *zap.Logger
	flushInterval time.Duration

	mu    sync.Mutex
	users map[string]*UserSync
}

// NewSupervisor creates a supervisor over the given live-query source
// and mirror store.
func NewSupervisor(watcher port.SnapshotWatcher, mirrorStore port.MirrorStore, flushInterval time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		watcher:       watcher,
		mirror:        mirrorStore,
		metrics:       metrics,
		logger:        logger,
		flushInterval: flushInterval,
		users:         make(map[string]*UserSync),
	}
}

// Ensure returns the running controller set for a user, starting it if
// absent. baseCtx bounds the lifetime of all controllers (normally the
// process context); individual users are torn down via Deactivate.
func (s *Supervisor) Ensure(baseCtx context.Context, userID string) *UserSync {
	s.mu.Lock()
	defer s.mu.Unlock()

	if us, ok := s.users[userID]; ok {
		return us
	}

	ctx, cancel := context.WithCancel(baseCtx)

	us := &UserSync{
		Expenses: NewController(domain.KindExpense, userID,
			func(ctx context.Context) (<-chan []domain.Transaction, <-chan error) {
				return s.watcher.WatchTransactions(ctx, domain.KindExpense, userID)
			},
			s.mirror, s.flushInterval, domain.SortTransactions,
			func(t domain.Transaction) string { return t.ID },
			s.metrics, s.logger),
		Revenues: NewController(domain.KindRevenue, userID,
			func(ctx context.Context) (<-chan []domain.Transaction, <-chan error) {
				return s.watcher.WatchTransactions(ctx, domain.KindRevenue, userID)
			},
			s.mirror, s.flushInterval, domain.SortTransactions,
			func(t domain.Transaction) string { return t.ID },
			s.metrics, s.logger),
		Projects: NewController("projects", userID,
			func(ctx context.Context) (<-chan []domain.Project, <-chan error) {
				return s.watcher.WatchProjects(ctx, userID)
			},
			s.mirror, s.flushInterval, domain.SortProjects,
			func(p domain.Project) string { return p.ID },
			s.metrics, s.logger),
		Notifications: NewController("notifications", userID,
			func(ctx context.Context) (<-chan []domain.Notification, <-chan error) {
				return s.watcher.WatchNotifications(ctx, userID)
			},
			s.mirror, s.flushInterval, domain.SortNotifications,
			func(n domain.Notification) string { return n.ID },
			s.metrics, s.logger),
		cancel: cancel,
	}
	s.users[userID] = us

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return us.Expenses.Run(gCtx) })
	g.Go(func() error { return us.Revenues.Run(gCtx) })
	g.Go(func() error { return us.Projects.Run(gCtx) })
	g.Go(func() error { return us.Notifications.Run(gCtx) })

	go func() {
		if err := g.Wait(); err != nil {
			s.logger.Error("sync: controller group exited",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
		s.mu.Lock()
		if s.users[userID] == us {
			delete(s.users, userID)
		}
		s.mu.Unlock()
	}()

	s.logger.Info("sync: controllers started", zap.String("user_id", userID))
	return us
}

// Peek returns the user's running controller set, or nil if none is
// active. Unlike Ensure it never starts one; read paths use it to fall
// back to the synced in-memory view without side effects.
func (s *Supervisor) Peek(userID string) *UserSync {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID]
}

// Deactivate stops a user's controllers: live queries are unsubscribed
// and flush timers cleared via context cancellation.
func (s *Supervisor) Deactivate(userID string) {
	s.mu.Lock()
	us, ok := s.users[userID]
	if ok {
		delete(s.users, userID)
	}
	s.mu.Unlock()

	if ok {
		us.cancel()
		s.logger.Info("sync: controllers stopped", zap.String("user_id", userID))
	}
}

// Shutdown tears down every active user.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	users := s.users
	s.users = make(map[string]*UserSync)
	s.mu.Unlock()

	for _, us := range users {
		us.cancel()
	}
}

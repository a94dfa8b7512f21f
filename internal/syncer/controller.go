// Package syncer keeps per-user in-memory views of the remote
// collections in step with the store's live queries, writing each
// snapshot through to the local mirror and falling back to the mirror
// when the subscription degrades.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/infra/observability"
	"github.com/fintrackhq/fintrack-go/internal/port"

	"go.uber.org/zap"
)

// WatchFunc opens the live query a controller consumes.
type WatchFunc[T any] func(ctx context.Context) (<-chan []T, <-chan error)

// Controller mirrors one collection for one user. It publishes the
// sorted current list in memory (read by the API layer on every list
// request) and persists it to the mirror store: once per applied
// snapshot and again on a short defensive flush interval. Both writes
// are idempotent full replacements keyed by user, so overlap is
// harmless.
type Controller[T any] struct {
	collection    string
	userID        string
	watch         WatchFunc[T]
	mirror        port.MirrorStore
	metrics       *observability.Metrics
	logger        *zap.Logger
	flushInterval time.Duration
	sortFn        func([]T)
	idFn          func(T) string

	mu       sync.RWMutex
	current  []T
	degraded bool

	updates chan []T
}

// NewController creates a controller for one collection+user.
func NewController[T any](collection, userID string, watch WatchFunc[T], mirrorStore port.MirrorStore, flushInterval time.Duration, sortFn func([]T), idFn func(T) string, metrics *observability.Metrics, logger *zap.Logger) *Controller[T] {
	if flushInterval <= 0 {
		flushInterval = 500 * time.Millisecond
	}
	return &Controller[T]{
		collection:    collection,
		userID:        userID,
		watch:         watch,
		mirror:        mirrorStore,
		metrics:       metrics,
		logger:        logger,
		flushInterval: flushInterval,
		sortFn:        sortFn,
		idFn:          idFn,
		updates:       make(chan []T, 1),
	}
}

// Current returns a copy of the in-memory list.
func (c *Controller[T]) Current() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.current))
	copy(out, c.current)
	return out
}

// Degraded reports whether the list is being served from the local
// mirror because the live subscription errored.
func (c *Controller[T]) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

// Updates exposes the published lists as a stream. The channel holds
// only the latest list; slow consumers see the freshest state, not
// every intermediate one.
func (c *Controller[T]) Updates() <-chan []T {
	return c.updates
}

// Run drives the controller until ctx is cancelled. Network and
// permission errors never propagate; they degrade to cached data.
func (c *Controller[T]) Run(ctx context.Context) error {
	// Optimistic display: publish the mirror's copy before the first
	// network response arrives.
	if cached, ok := c.loadMirror(ctx); ok {
		c.publish(cached, true)
	}

	snapshots, errs := c.watch(ctx)

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			c.applySnapshot(ctx, snap)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			c.handleSubscriptionError(ctx, err)

		case <-ticker.C:
			// Defensive periodic flush, idempotent with the
			// snapshot-triggered write.
			if list := c.Current(); len(list) > 0 {
				c.saveMirror(ctx, list)
			}
		}
	}
}

func (c *Controller[T]) applySnapshot(ctx context.Context, snap []T) {
	c.sortFn(snap)
	c.publish(snap, false)
	c.metrics.IncrSyncSnapshot(c.collection)

	// Write-through happens off the apply path so a slow disk never
	// delays the next snapshot.
	list := make([]T, len(snap))
	copy(list, snap)
	go c.saveMirror(ctx, list)
}

func (c *Controller[T]) handleSubscriptionError(ctx context.Context, err error) {
	var perm *domain.ErrPermission
	if errors.As(err, &perm) {
		// Expected while the session is (re)authenticating; not worth
		// alerting anyone.
		c.logger.Debug("sync: permission error suppressed",
			zap.String("collection", c.collection),
			zap.String("user_id", c.userID),
		)
		return
	}

	c.metrics.IncrExternalError("remote/" + c.collection)

	if cached, ok := c.loadMirror(ctx); ok {
		c.publish(cached, true)
		c.metrics.IncrMirrorFallback(c.collection)
		c.logger.Info("sync: subscription error, serving from local cache",
			zap.String("collection", c.collection),
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
		return
	}

	c.logger.Error("sync: subscription error and local cache empty",
		zap.String("collection", c.collection),
		zap.String("user_id", c.userID),
		zap.Error(err),
	)
}

func (c *Controller[T]) publish(list []T, degraded bool) {
	c.mu.Lock()
	c.current = list
	c.degraded = degraded
	c.mu.Unlock()

	// Replace any unconsumed update with the newest list.
	select {
	case c.updates <- list:
	default:
		select {
		case <-c.updates:
		default:
		}
		select {
		case c.updates <- list:
		default:
		}
	}
}

// loadMirror decodes the user's cached rows. Returns ok only for a
// non-empty, decodable cache.
func (c *Controller[T]) loadMirror(ctx context.Context) ([]T, bool) {
	records, err := c.mirror.Load(ctx, c.collection, c.userID)
	if err != nil {
		c.logger.Warn("sync: mirror load failed",
			zap.String("collection", c.collection),
			zap.Error(err),
		)
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}

	list := make([]T, 0, len(records))
	for _, r := range records {
		var item T
		if err := json.Unmarshal(r.Data, &item); err != nil {
			c.logger.Warn("sync: corrupt mirror record skipped",
				zap.String("collection", c.collection),
				zap.String("id", r.ID),
				zap.Error(err),
			)
			continue
		}
		list = append(list, item)
	}
	if len(list) == 0 {
		return nil, false
	}
	c.sortFn(list)
	return list, true
}

// saveMirror replaces the user's cached rows with the given list.
// Failures are logged, never propagated.
func (c *Controller[T]) saveMirror(ctx context.Context, list []T) {
	records := make([]port.MirrorRecord, 0, len(list))
	for _, item := range list {
		data, err := json.Marshal(item)
		if err != nil {
			c.logger.Warn("sync: failed to encode mirror record",
				zap.String("collection", c.collection),
				zap.Error(err),
			)
			continue
		}
		records = append(records, port.MirrorRecord{
			ID:     c.idFn(item),
			UserID: c.userID,
			Data:   data,
		})
	}

	if err := c.mirror.Save(ctx, c.collection, c.userID, records); err != nil {
		c.logger.Warn("sync: mirror write failed",
			zap.String("collection", c.collection),
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
		return
	}
	c.metrics.IncrMirrorWrite(c.collection)
}

// Package mirror implements the local offline cache: a full per-user
// mirror of the remote collections, written through on every snapshot
// and read back when the live subscription fails.
//
// Two backends exist — an embedded sqlite database and a flat-file JSON
// store — composed behind one interface so callers never scatter
// fallback logic (the Store tries sqlite first and degrades to files).
package mirror

import (
	"context"
	"errors"

	"github.com/fintrackhq/fintrack-go/internal/infra/observability"
	"github.com/fintrackhq/fintrack-go/internal/port"

	"go.uber.org/zap"
)

// Store is the dual-backend mirror. primary may be nil, in which case
// every call goes straight to the fallback.
type Store struct {
	primary  port.MirrorStore
	fallback port.MirrorStore
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewStore composes the two backends.
func NewStore(primary, fallback port.MirrorStore, metrics *observability.Metrics, logger *zap.Logger) *Store {
	return &Store{
		primary:  primary,
		fallback: fallback,
		metrics:  metrics,
		logger:   logger,
	}
}

// Save replaces one user's rows in a collection. If the primary backend
// fails the fallback is tried; only failure of both is reported.
func (s *Store) Save(ctx context.Context, collection, userID string, records []port.MirrorRecord) error {
	var primaryErr error
	if s.primary != nil {
		primaryErr = s.primary.Save(ctx, collection, userID, records)
		if primaryErr == nil {
			return nil
		}
		s.metrics.IncrMirrorError("sqlite")
		s.logger.Warn("mirror: primary save failed, using flat-file fallback",
			zap.String("collection", collection),
			zap.Error(primaryErr),
		)
	}

	if err := s.fallback.Save(ctx, collection, userID, records); err != nil {
		s.metrics.IncrMirrorError("flatfile")
		return errors.Join(primaryErr, err)
	}
	return nil
}

// Load returns one user's rows, empty if the collection holds none.
// A failing primary degrades to the fallback; both failing returns the
// joined error.
func (s *Store) Load(ctx context.Context, collection, userID string) ([]port.MirrorRecord, error) {
	var primaryErr error
	if s.primary != nil {
		records, err := s.primary.Load(ctx, collection, userID)
		if err == nil {
			return records, nil
		}
		primaryErr = err
		s.metrics.IncrMirrorError("sqlite")
		s.logger.Warn("mirror: primary load failed, using flat-file fallback",
			zap.String("collection", collection),
			zap.Error(err),
		)
	}

	records, err := s.fallback.Load(ctx, collection, userID)
	if err != nil {
		s.metrics.IncrMirrorError("flatfile")
		return nil, errors.Join(primaryErr, err)
	}
	return records, nil
}

// Clear wipes both backends. Used on full logout/reset.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	if s.primary != nil {
		if err := s.primary.Clear(ctx); err != nil {
			s.metrics.IncrMirrorError("sqlite")
			errs = append(errs, err)
		}
	}
	if err := s.fallback.Clear(ctx); err != nil {
		s.metrics.IncrMirrorError("flatfile")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

package remote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"

	"go.uber.org/zap"
)

// Live queries.
//
// The store has no push channel of its own, so a watcher polls the
// user-scoped query and emits the full result set whenever the payload
// changes — the same contract as a hosted live query: subscribers always
// receive complete snapshots, never deltas. Errors go to a side channel
// without closing the stream; the poller keeps going until ctx is
// cancelled.

// watch runs the poll loop. fetch returns the current result set and
// fingerprint; the first successful fetch is always emitted.
func watch[T any](ctx context.Context, interval time.Duration, logger *zap.Logger, name string, fetch func(context.Context) ([]T, error), out chan<- []T, errs chan<- error) {
	defer close(out)
	defer close(errs)

	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	poll := func() {
		rows, err := fetch(ctx)
		if err != nil {
			select {
			case errs <- err:
			default:
				// Consumer hasn't drained the previous error; drop this
				// one rather than stall the poll loop.
			}
			return
		}

		sig, err := fingerprint(rows)
		if err != nil {
			logger.Error("watch: failed to fingerprint snapshot",
				zap.String("collection", name),
				zap.Error(err),
			)
			return
		}
		if sig == last && last != "" {
			return
		}
		last = sig

		select {
		case out <- rows:
		case <-ctx.Done():
		}
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

func fingerprint(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WatchTransactions opens a live query on one user's expenses or
// revenues.
func (c *Client) WatchTransactions(ctx context.Context, kind, userID string) (<-chan []domain.Transaction, <-chan error) {
	out := make(chan []domain.Transaction, 1)
	errs := make(chan error, 1)
	go watch(ctx, c.pollInterval, c.logger, kind, func(ctx context.Context) ([]domain.Transaction, error) {
		return c.ListTransactions(ctx, kind, userID)
	}, out, errs)
	return out, errs
}

// WatchProjects opens a live query on one user's projects.
func (c *Client) WatchProjects(ctx context.Context, userID string) (<-chan []domain.Project, <-chan error) {
	out := make(chan []domain.Project, 1)
	errs := make(chan error, 1)
	go watch(ctx, c.pollInterval, c.logger, "projects", func(ctx context.Context) ([]domain.Project, error) {
		return c.ListProjects(ctx, userID)
	}, out, errs)
	return out, errs
}

// WatchNotifications opens a live query on one user's notifications.
func (c *Client) WatchNotifications(ctx context.Context, userID string) (<-chan []domain.Notification, <-chan error) {
	out := make(chan []domain.Notification, 1)
	errs := make(chan error, 1)
	go watch(ctx, c.pollInterval, c.logger, "notifications", func(ctx context.Context) ([]domain.Notification, error) {
		return c.ListNotifications(ctx, userID)
	}, out, errs)
	return out, errs
}

// WatchSiteStatus opens a live query on the singleton site-status flag.
func (c *Client) WatchSiteStatus(ctx context.Context) (<-chan domain.SiteStatus, <-chan error) {
	out := make(chan []domain.SiteStatus, 1)
	errs := make(chan error, 1)
	go watch(ctx, c.pollInterval, c.logger, "site_status", func(ctx context.Context) ([]domain.SiteStatus, error) {
		s, err := c.GetSiteStatus(ctx)
		if err != nil {
			return nil, err
		}
		return []domain.SiteStatus{*s}, nil
	}, out, errs)

	single := make(chan domain.SiteStatus, 1)
	go func() {
		defer close(single)
		for snap := range out {
			if len(snap) == 0 {
				continue
			}
			select {
			case single <- snap[0]:
			case <-ctx.Done():
			}
		}
	}()
	return single, errs
}

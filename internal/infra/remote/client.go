// Package remote provides a client for the hosted document store
// (PostgREST-compatible API). It is the single gateway for all durable
// state: CRUD per collection, query-by-equality filtering, and
// poll-driven live queries that push full result-set snapshots.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("remote")

// Client wraps HTTP calls to the remote document store.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	serviceKey   string
	pollInterval time.Duration
	cb           *gobreaker.CircuitBreaker
	cfg          resilience.Config
	bulkhead     *resilience.Bulkhead
	logger       *zap.Logger
}

// NewClient creates a remote store client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceKey string, pollInterval time.Duration, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 50
	}
	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		apiKey:       apiKey,
		serviceKey:   serviceKey,
		pollInterval: pollInterval,
		cb:           cb,
		cfg:          cfg,
		bulkhead:     resilience.NewBulkhead(maxConcurrency),
		logger:       logger,
	}
}

// execute runs fn under the bulkhead, circuit breaker and retry policy.
// Permission errors are marked permanent so they are neither retried nor
// hammering the breaker's half-open window.
func (c *Client) execute(ctx context.Context, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	return err
}

// classifyStatus maps a non-2xx response to a typed error. 401/403
// become ErrPermission so the sync layer can suppress alerting instead
// of substring-matching error text.
func (c *Client) classifyStatus(table string, status int, body []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &resilience.Permanent{Err: &domain.ErrPermission{
			Collection: table,
			Err:        fmt.Errorf("remote store returned status %d", status),
		}}
	}
	return fmt.Errorf("remote store returned status %d: %s", status, string(body))
}

// doGet executes an authenticated read against the store.
func (c *Client) doGet(ctx context.Context, table, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("remote: failed to create request",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	c.setHeaders(req, "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("remote: GET request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("remote: failed to read response body",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("remote: GET non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, c.classifyStatus(table, resp.StatusCode, body)
	}

	c.logger.Debug("remote: GET OK",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

func (c *Client) setHeaders(req *http.Request, prefer string) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
}

// ============================================================
// Timestamp mapping
//
// The store keeps its native timestamp type (RFC 3339 on the wire); the
// domain uses epoch milliseconds everywhere.
// ============================================================

func parseTimestamp(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return 0
		}
	}
	return t.UnixMilli()
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// decodeRows unmarshals a PostgREST array response, treating an empty
// body as an empty result set.
func decodeRows[T any](body []byte) ([]T, error) {
	if len(body) == 0 || string(body) == "[]" {
		return []T{}, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

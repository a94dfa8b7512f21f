// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/domain"
)

// TransactionStore persists expense and revenue records in the remote
// document store. kind is domain.KindExpense or domain.KindRevenue.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, kind string, t *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, kind, userID, id string, updates map[string]any) error
	DeleteTransaction(ctx context.Context, kind, userID, id string) error
	ListTransactions(ctx context.Context, kind, userID string) ([]domain.Transaction, error)
	ListTransactionsByProject(ctx context.Context, kind, userID, projectID string) ([]domain.Transaction, error)
}

// ProjectStore persists projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error)
	UpdateProject(ctx context.Context, userID, id string, updates map[string]any) error
	DeleteProject(ctx context.Context, userID, id string) error
	ListProjects(ctx context.Context, userID string) ([]domain.Project, error)
}

// CategoryStore persists user-defined categories. Built-ins are compiled
// into the binary and never stored.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, userID, id string, updates map[string]any) error
	DeleteCategory(ctx context.Context, userID, id string) error
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

// ActivityStore appends audit-log entries. Callers treat failures as
// best-effort.
type ActivityStore interface {
	AppendActivity(ctx context.Context, e *domain.ActivityEntry) error
}

// UserStore looks up and mutates user profiles.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.UserProfile, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserProfile, error)
	CreateUser(ctx context.Context, u *domain.UserProfile, passwordHash string) (*domain.UserProfile, error)
	GetPasswordHash(ctx context.Context, userID string) (string, error)
	UpdateUser(ctx context.Context, userID string, updates map[string]any) error
}

// TokenStore persists hashed refresh tokens. Lookups return nil without
// error when no matching token exists.
type TokenStore interface {
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// StatusStore reads and writes the remote site-status flag.
type StatusStore interface {
	GetSiteStatus(ctx context.Context) (*domain.SiteStatus, error)
	SetSiteStatus(ctx context.Context, status, message string) error
}

// SnapshotWatcher opens live queries against the remote store. Each
// watcher pushes the full current result set whenever it changes and
// reports subscription errors on the second channel without closing the
// stream. Both channels close when ctx is cancelled.
type SnapshotWatcher interface {
	WatchTransactions(ctx context.Context, kind, userID string) (<-chan []domain.Transaction, <-chan error)
	WatchProjects(ctx context.Context, userID string) (<-chan []domain.Project, <-chan error)
	WatchNotifications(ctx context.Context, userID string) (<-chan []domain.Notification, <-chan error)
	WatchSiteStatus(ctx context.Context) (<-chan domain.SiteStatus, <-chan error)
}

// MirrorRecord is one row of the local mirror: an opaque JSON-encoded
// entity keyed by id and owner.
type MirrorRecord struct {
	ID     string
	UserID string
	Data   []byte
}

// MirrorStore is the local offline cache. Save replaces only the given
// user's rows in a collection; other users and other collections are
// untouched. Clear wipes everything.
type MirrorStore interface {
	Save(ctx context.Context, collection, userID string, records []MirrorRecord) error
	Load(ctx context.Context, collection, userID string) ([]MirrorRecord, error)
	Clear(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

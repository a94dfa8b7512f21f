// Package domain defines the core business entities for the finance
// tracker. These models are independent of the remote document store and
// represent the canonical data structures used throughout the service.
package domain

import "time"

// Transaction kinds. Expenses and revenues share one shape and live in
// separate remote collections.
const (
	KindExpense = "expenses"
	KindRevenue = "revenues"
)

// Expense type values (expenses only).
const (
	ExpenseTypeFixed    = "fixed"
	ExpenseTypeVariable = "variable"
)

// ============================================================
// Transactions
// ============================================================

// Transaction represents a single expense or revenue record.
// Date and CreatedAt are normalized to epoch milliseconds on read so the
// client never sees the store-native timestamp type.
type Transaction struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	Description   string  `json:"description,omitempty"`
	Date          int64   `json:"date"`
	PaymentMethod string  `json:"payment_method"`
	Type          string  `json:"type,omitempty"` // expenses only
	ProjectID     string  `json:"project_id,omitempty"`
	CreatedAt     int64   `json:"created_at"`
}

// TransactionSummary aggregates one user's transactions for the
// dashboard charts.
type TransactionSummary struct {
	TotalExpenses float64            `json:"total_expenses"`
	TotalRevenues float64            `json:"total_revenues"`
	Balance       float64            `json:"balance"`
	ByCategory    map[string]float64 `json:"by_category"`
	ExpenseCount  int                `json:"expense_count"`
	RevenueCount  int                `json:"revenue_count"`
}

// ============================================================
// Projects
// ============================================================

// Project groups transactions. Names are unique per user,
// case-insensitively. Deleting a project cascades to its transactions.
type Project struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// ============================================================
// Categories
// ============================================================

// Category is a display descriptor for transaction categories. Built-in
// categories are compiled in; custom ones belong to a user. A custom
// category whose name matches a built-in overrides its icon and color.
type Category struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"` // hex, e.g. "#e74c3c"
	Builtin   bool   `json:"builtin,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// ============================================================
// Notifications
// ============================================================

// Notification types.
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Notification is an in-app message. Title and Message are keyed by
// locale ("en", "pt", ...). Expired notifications are never shown.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Title     map[string]string `json:"title"`
	Message   map[string]string `json:"message"`
	Type      string            `json:"type"`
	Icon      string            `json:"icon,omitempty"`
	Read      bool              `json:"read"`
	Urgent    bool              `json:"urgent"`
	CreatedAt int64             `json:"created_at"`
	ExpiresAt int64             `json:"expires_at,omitempty"` // 0 = never
}

// Expired reports whether the notification is past its expiry at the
// given instant.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt > 0 && n.ExpiresAt <= now.UnixMilli()
}

// ============================================================
// Activity log
// ============================================================

// Activity actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ActivityEntry is one append-only audit record. Writes are best-effort:
// a failed activity write never fails the primary operation.
type ActivityEntry struct {
	ID         string `json:"id,omitempty"`
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id,omitempty"`
	Details    string `json:"details,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// ============================================================
// Users / site status
// ============================================================

// UserProfile drives authentication, the admin bypass, the
// disabled-account gate and the project quota.
type UserProfile struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"` // unique, immutable
	Email        string `json:"email"`
	IsAdmin      bool   `json:"is_admin"`
	IsActive     bool   `json:"is_active"`
	ProjectLimit int    `json:"project_limit,omitempty"` // 0 = unlimited
	CreatedAt    int64  `json:"created_at"`
}

// Site status values. Anything other than normal denies non-admin users.
const (
	SiteStatusNormal      = "normal"
	SiteStatusMaintenance = "maintenance"
	SiteStatusDevelopment = "development"
)

// SiteStatus is the remote maintenance flag, live-subscribed by the
// access gate.
type SiteStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

// ============================================================
// Backup
// ============================================================

// Backup is the export/import document format. Import is validated for
// shape only; it does not write back to the remote store.
type Backup struct {
	Version    int           `json:"version"`
	ExportDate string        `json:"exportDate"`
	Expenses   []Transaction `json:"expenses"`
	Revenues   []Transaction `json:"revenues"`
	Projects   []Project     `json:"projects"`
}

// BackupVersion is the current export format version.
const BackupVersion = 1

// ============================================================
// Auth
// ============================================================

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates by username + password.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest trades a refresh token for a fresh token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse carries the signed token pair and the profile the
// client needs to bootstrap.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"` // seconds
	User         *UserProfile `json:"user"`
}

// RefreshTokenRecord is a stored refresh token. Only the SHA-256 hash of
// the opaque token ever leaves the process.
type RefreshTokenRecord struct {
	TokenHash string `json:"token_hash"`
	UserID    string `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
}

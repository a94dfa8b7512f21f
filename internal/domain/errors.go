package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrDuplicate indicates a uniqueness violation (e.g. project name).
type ErrDuplicate struct {
	Resource string
	Value    string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Resource, e.Value)
}

// ErrPermission indicates the remote store rejected the request for
// auth reasons. The sync layer treats this as an expected transient
// state and suppresses user-visible alerting.
type ErrPermission struct {
	Collection string
	Err        error
}

func (e *ErrPermission) Error() string {
	return fmt.Sprintf("permission denied on %s: %v", e.Collection, e.Err)
}

func (e *ErrPermission) Unwrap() error {
	return e.Err
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrAccountDisabled indicates the account was deactivated by an admin.
// Admins bypass this check.
type ErrAccountDisabled struct {
	UserID string
}

func (e *ErrAccountDisabled) Error() string {
	return "account disabled"
}

// ErrMaintenance indicates the site is in maintenance or development
// mode and the user is not an admin.
type ErrMaintenance struct {
	Status string
}

func (e *ErrMaintenance) Error() string {
	return fmt.Sprintf("site unavailable: %s", e.Status)
}

// ErrQuotaExceeded indicates a per-user quota was hit (project limit).
type ErrQuotaExceeded struct {
	Resource string
	Limit    int
}

func (e *ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("%s quota exceeded: limit %d", e.Resource, e.Limit)
}

// ErrBadBackup indicates an uploaded backup document failed shape
// validation.
type ErrBadBackup struct {
	Reason string
}

func (e *ErrBadBackup) Error() string {
	return fmt.Sprintf("invalid backup document: %s", e.Reason)
}

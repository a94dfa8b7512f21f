package service

// Shared in-memory fakes for the service tests.

import (
	"context"
	"fmt"
	"sync"

	"github.com/fintrackhq/fintrack-go/internal/domain"
)

type fakeTxnStore struct {
	mu      sync.Mutex
	data    map[string][]domain.Transaction // by kind
	nextID  int
	listErr error
	delErr  error
}

func newFakeTxnStore() *fakeTxnStore {
	return &fakeTxnStore{data: make(map[string][]domain.Transaction)}
}

func (f *fakeTxnStore) CreateTransaction(_ context.Context, kind string, t *domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	created := *t
	created.ID = fmt.Sprintf("%s-%d", kind, f.nextID)
	f.data[kind] = append(f.data[kind], created)
	return &created, nil
}

func (f *fakeTxnStore) UpdateTransaction(_ context.Context, kind, userID, id string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.data[kind] {
		if t.ID == id && t.UserID == userID {
			if amount, ok := updates["amount"].(float64); ok {
				f.data[kind][i].Amount = amount
			}
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: kind, ID: id}
}

func (f *fakeTxnStore) DeleteTransaction(_ context.Context, kind, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	list := f.data[kind]
	for i, t := range list {
		if t.ID == id && t.UserID == userID {
			f.data[kind] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: kind, ID: id}
}

func (f *fakeTxnStore) ListTransactions(_ context.Context, kind, userID string) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Transaction
	for _, t := range f.data[kind] {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTxnStore) ListTransactionsByProject(_ context.Context, kind, userID, projectID string) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Transaction
	for _, t := range f.data[kind] {
		if t.UserID == userID && t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeProjectStore struct {
	mu      sync.Mutex
	data    []domain.Project
	nextID  int
	listErr error
}

func (f *fakeProjectStore) CreateProject(_ context.Context, p *domain.Project) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	created := *p
	created.ID = fmt.Sprintf("proj-%d", f.nextID)
	f.data = append(f.data, created)
	return &created, nil
}

func (f *fakeProjectStore) UpdateProject(_ context.Context, userID, id string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.data {
		if p.ID == id && p.UserID == userID {
			if name, ok := updates["name"].(string); ok {
				f.data[i].Name = name
			}
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "project", ID: id}
}

func (f *fakeProjectStore) DeleteProject(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.data {
		if p.ID == id && p.UserID == userID {
			f.data = append(f.data[:i:i], f.data[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "project", ID: id}
}

func (f *fakeProjectStore) ListProjects(_ context.Context, userID string) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Project
	for _, p := range f.data {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	mu       sync.Mutex
	profiles map[string]*domain.UserProfile
	hashes   map[string]string
	nextID   int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		profiles: make(map[string]*domain.UserProfile),
		hashes:   make(map[string]string),
	}
}

func (f *fakeUserStore) GetUser(_ context.Context, userID string) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, u *domain.UserProfile, passwordHash string) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	created := *u
	created.UserID = fmt.Sprintf("user-%d", f.nextID)
	f.profiles[created.UserID] = &created
	f.hashes[created.UserID] = passwordHash
	cp := created
	return &cp, nil
}

func (f *fakeUserStore) GetPasswordHash(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[userID]
	if !ok {
		return "", &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	return h, nil
}

func (f *fakeUserStore) UpdateUser(_ context.Context, userID string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if active, ok := updates["is_active"].(bool); ok {
		p.IsActive = active
	}
	if limit, ok := updates["project_limit"].(int); ok {
		p.ProjectLimit = limit
	}
	return nil
}

type fakeNotifStore struct {
	mu      sync.Mutex
	data    []domain.Notification
	nextID  int
	listErr error
}

func (f *fakeNotifStore) CreateNotification(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	created := *n
	created.ID = fmt.Sprintf("notif-%d", f.nextID)
	f.data = append(f.data, created)
	return &created, nil
}

func (f *fakeNotifStore) ListNotifications(_ context.Context, userID string) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Notification
	for _, n := range f.data {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifStore) MarkNotificationRead(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.data {
		if n.ID == id && n.UserID == userID {
			f.data[i].Read = true
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "notification", ID: id}
}

func (f *fakeNotifStore) MarkAllNotificationsRead(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.data {
		if n.UserID == userID {
			f.data[i].Read = true
		}
	}
	return nil
}

type fakeActivityStore struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
	err     error
}

func (f *fakeActivityStore) AppendActivity(_ context.Context, e *domain.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeActivityStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeStatusStore struct {
	mu     sync.Mutex
	status domain.SiteStatus
	setErr error
}

func (f *fakeStatusStore) GetSiteStatus(context.Context) (*domain.SiteStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := f.status
	return &cp, nil
}

func (f *fakeStatusStore) SetSiteStatus(_ context.Context, status, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.status = domain.SiteStatus{Status: status, Message: message}
	return nil
}

// fakeWatcher feeds site-status values to the gate.
type fakeWatcher struct {
	statuses chan domain.SiteStatus
	errs     chan error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		statuses: make(chan domain.SiteStatus, 4),
		errs:     make(chan error, 4),
	}
}

func (f *fakeWatcher) WatchTransactions(ctx context.Context, kind, userID string) (<-chan []domain.Transaction, <-chan error) {
	return make(chan []domain.Transaction), make(chan error)
}

func (f *fakeWatcher) WatchProjects(ctx context.Context, userID string) (<-chan []domain.Project, <-chan error) {
	return make(chan []domain.Project), make(chan error)
}

func (f *fakeWatcher) WatchNotifications(ctx context.Context, userID string) (<-chan []domain.Notification, <-chan error) {
	return make(chan []domain.Notification), make(chan error)
}

func (f *fakeWatcher) WatchSiteStatus(ctx context.Context) (<-chan domain.SiteStatus, <-chan error) {
	return f.statuses, f.errs
}

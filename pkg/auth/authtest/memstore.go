// Package authtest provides an in-memory auth.CredentialStore for tests.
package authtest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/folio/pkg/auth"
)

type roleAssignment struct {
	role      auth.Role
	active    bool
	createdAt time.Time
}

type record struct {
	user  auth.User
	hash  string
	roles []roleAssignment
}

// MemStore is a mutex-guarded map-backed CredentialStore and StatusChecker
type MemStore struct {
	mu      sync.Mutex
	byID    map[string]*record
	byEmail map[string]string
	now     func() time.Time

	// TouchErr, when set, is returned by TouchLastLogin
	TouchErr error
	// Err, when set, is returned by every method
	Err error
}

var (
	_ auth.CredentialStore = (*MemStore)(nil)
	_ auth.StatusChecker   = (*MemStore)(nil)
)

// NewMemStore returns an empty store
func NewMemStore() *MemStore {
	return &MemStore{
		byID:    make(map[string]*record),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// EmailExists implements auth.CredentialStore
func (s *MemStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.byEmail[email]
	return ok, nil
}

// CreateUser implements auth.CredentialStore
func (s *MemStore) CreateUser(_ context.Context, nu auth.NewUser) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if _, ok := s.byEmail[nu.Email]; ok {
		return nil, auth.ErrDuplicateAccount
	}

	now := s.now()
	rec := &record{
		user: auth.User{
			ID:        uuid.NewString(),
			Email:     nu.Email,
			FirstName: nu.FirstName,
			LastName:  nu.LastName,
			PenName:   nu.PenName,
			Country:   nu.Country,
			Status:    auth.AccountActive,
			CreatedAt: now,
		},
		hash:  nu.PasswordHash,
		roles: []roleAssignment{{role: nu.Role, active: true, createdAt: now}},
	}
	s.byID[rec.user.ID] = rec
	s.byEmail[nu.Email] = rec.user.ID

	u := rec.user
	return &u, nil
}

// FindCredentials implements auth.CredentialStore
func (s *MemStore) FindCredentials(_ context.Context, email string) (*auth.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	id, ok := s.byEmail[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	rec := s.byID[id]

	active := make([]roleAssignment, 0, len(rec.roles))
	for _, ra := range rec.roles {
		if ra.active {
			active = append(active, ra)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].createdAt.Equal(active[j].createdAt) {
			return active[i].createdAt.After(active[j].createdAt)
		}
		return active[i].role < active[j].role
	})
	roles := make([]auth.Role, len(active))
	for i, ra := range active {
		roles[i] = ra.role
	}

	return &auth.Credentials{User: rec.user, PasswordHash: rec.hash, ActiveRoles: roles}, nil
}

// TouchLastLogin implements auth.CredentialStore
func (s *MemStore) TouchLastLogin(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TouchErr != nil {
		return s.TouchErr
	}
	rec, ok := s.byID[userID]
	if !ok {
		return auth.ErrNotFound
	}
	now := s.now()
	rec.user.LastLoginAt = &now
	return nil
}

// GetProfile implements auth.CredentialStore
func (s *MemStore) GetProfile(_ context.Context, userID string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	rec, ok := s.byID[userID]
	if !ok {
		return nil, auth.ErrNotFound
	}
	u := rec.user
	u.Roles = nil
	for _, ra := range rec.roles {
		if ra.active {
			u.Roles = append(u.Roles, ra.role)
		}
	}
	sort.Slice(u.Roles, func(i, j int) bool { return u.Roles[i] < u.Roles[j] })
	return &u, nil
}

// AccountStatus implements auth.StatusChecker
func (s *MemStore) AccountStatus(_ context.Context, userID string) (auth.AccountStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	rec, ok := s.byID[userID]
	if !ok {
		return "", auth.ErrNotFound
	}
	return rec.user.Status, nil
}

// SetStatus changes the account status of userID
func (s *MemStore) SetStatus(userID string, status auth.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[userID]
	if !ok {
		return errors.New("authtest: unknown user " + userID)
	}
	rec.user.Status = status
	return nil
}

// GrantRole adds or reactivates a role for userID, activated at the given time
func (s *MemStore) GrantRole(userID string, role auth.Role, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[userID]
	if !ok {
		return errors.New("authtest: unknown user " + userID)
	}
	for i := range rec.roles {
		if rec.roles[i].role == role {
			rec.roles[i].active = true
			rec.roles[i].createdAt = at
			return nil
		}
	}
	rec.roles = append(rec.roles, roleAssignment{role: role, active: true, createdAt: at})
	return nil
}

// RevokeRole deactivates a role for userID
func (s *MemStore) RevokeRole(userID string, role auth.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[userID]
	if !ok {
		return errors.New("authtest: unknown user " + userID)
	}
	for i := range rec.roles {
		if rec.roles[i].role == role {
			rec.roles[i].active = false
		}
	}
	return nil
}

// Count returns the number of stored users
func (s *MemStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

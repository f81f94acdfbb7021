package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/folio/pkg/observability"
)

// CredentialStore persists accounts and role assignments. Implementations
// return ErrNotFound for missing rows and ErrDuplicateAccount for an email
// uniqueness violation.
type CredentialStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	// CreateUser inserts the user and its single role assignment atomically
	CreateUser(ctx context.Context, nu NewUser) (*User, error)
	FindCredentials(ctx context.Context, email string) (*Credentials, error)
	TouchLastLogin(ctx context.Context, userID string) error
	// GetProfile loads a user with all active roles
	GetProfile(ctx context.Context, userID string) (*User, error)
}

// StatusChecker reads the current account status of a user
type StatusChecker interface {
	AccountStatus(ctx context.Context, userID string) (AccountStatus, error)
}

// Service implements registration, login and the current-user lookup
type Service struct {
	store  CredentialStore
	tokens *TokenService
	hasher *PasswordHasher
	audit  *AuditLogger
	logger *observability.Logger
}

// NewService wires the credential lifecycle. audit may be nil.
func NewService(store CredentialStore, tokens *TokenService, hasher *PasswordHasher, audit *AuditLogger, logger *observability.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		audit:  audit,
		logger: logger,
	}
}

// Register creates an account holding req.Role and returns a session
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.audit.Failure(ctx, ActionRegister, req.Email, err)
		return nil, err
	}

	exists, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if exists {
		s.audit.Failure(ctx, ActionRegister, req.Email, ErrDuplicateAccount)
		return nil, ErrDuplicateAccount
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, NewUser{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PenName:      req.PenName,
		Country:      req.Country,
		Role:         req.Role,
	})
	if err != nil {
		// a concurrent registration can pass the pre-check and lose the insert
		if errors.Is(err, ErrDuplicateAccount) {
			s.audit.Failure(ctx, ActionRegister, req.Email, ErrDuplicateAccount)
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.Role = req.Role

	token, err := s.tokens.Issue(Identity{UserID: user.ID, Email: user.Email, Role: req.Role})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEvent{Action: ActionRegister, Outcome: OutcomeSuccess, UserID: user.ID, Role: req.Role})
	return &Session{User: user, Token: token}, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password both yield ErrInvalidCredentials; account status is only
// revealed after the password matched.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.audit.Failure(ctx, ActionLogin, req.Email, err)
		return nil, err
	}

	creds, err := s.store.FindCredentials(ctx, req.Email)
	if errors.Is(err, ErrNotFound) {
		s.hasher.CompareDummy(req.Password)
		s.audit.Failure(ctx, ActionLogin, req.Email, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	if err := s.hasher.Compare(creds.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			observability.FromContextOr(ctx, s.logger).WithError(err).
				WithField("subject_id", creds.User.ID).
				Error("Stored password hash is unusable")
		}
		s.audit.Failure(ctx, ActionLogin, req.Email, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if creds.User.Status != AccountActive {
		s.audit.Failure(ctx, ActionLogin, req.Email, ErrAccountInactive)
		return nil, ErrAccountInactive
	}

	role, err := SelectRole(creds.ActiveRoles, req.Role)
	if err != nil {
		s.audit.Failure(ctx, ActionLogin, req.Email, err)
		return nil, err
	}

	if err := s.store.TouchLastLogin(ctx, creds.User.ID); err != nil {
		observability.FromContextOr(ctx, s.logger).WithError(err).
			WithField("subject_id", creds.User.ID).
			Warn("Failed to record last login")
	}

	user := creds.User
	user.Role = role

	token, err := s.tokens.Issue(Identity{UserID: user.ID, Email: user.Email, Role: role})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEvent{Action: ActionLogin, Outcome: OutcomeSuccess, UserID: user.ID, Role: role})
	return &Session{User: &user, Token: token}, nil
}

// Me loads the profile of the authenticated identity
func (s *Service) Me(ctx context.Context, identity *Identity) (*User, error) {
	if identity == nil {
		return nil, ErrMissingToken
	}
	user, err := s.store.GetProfile(ctx, identity.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

// SelectRole picks the session role. A requested role must be among the
// active roles. Without a request the first active role wins; callers pass
// roles ordered most recently activated first. No active roles yields an
// empty role, which every RequireRole gate rejects.
func SelectRole(active []Role, requested Role) (Role, error) {
	if requested != "" {
		for _, r := range active {
			if r == requested {
				return r, nil
			}
		}
		return "", ErrRoleNotHeld
	}
	if len(active) == 0 {
		return "", nil
	}
	return active[0], nil
}

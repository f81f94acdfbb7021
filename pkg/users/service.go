package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/observability"
)

// Service implements profile reads and updates
type Service struct {
	store  Store
	logger *observability.Logger
}

// NewService creates a users service
func NewService(store Store, logger *observability.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Profile returns the caller's own profile with active roles
func (s *Service) Profile(ctx context.Context, identity *auth.Identity) (*auth.User, error) {
	if identity == nil {
		return nil, auth.ErrMissingToken
	}
	user, err := s.store.GetProfile(ctx, identity.UserID)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's profile
func (s *Service) UpdateProfile(ctx context.Context, identity *auth.Identity, req UpdateRequest) (*auth.User, error) {
	if identity == nil {
		return nil, auth.ErrMissingToken
	}
	req.Normalize()
	if err := auth.FromValidation(req.Validate()); err != nil {
		return nil, err
	}
	if req.Empty() {
		return s.Profile(ctx, identity)
	}

	user, err := s.store.UpdateProfile(ctx, identity.UserID, req)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	observability.FromContextOr(ctx, s.logger).
		WithField("user_id", identity.UserID).
		Info("Profile updated")
	return user, nil
}

// Public returns the public profile of an active user
func (s *Service) Public(ctx context.Context, userID string) (*PublicProfile, error) {
	profile, err := s.store.GetPublicProfile(ctx, userID)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if profile.Roles == nil {
		profile.Roles = []auth.Role{}
	}
	return profile, nil
}

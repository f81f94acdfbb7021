package works

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/observability"
)

// Service implements the catalogue and author operations on works
type Service struct {
	store  Store
	policy Policy
	logger *observability.Logger
}

// NewService creates a works service
func NewService(store Store, logger *observability.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// List returns published works, newest first
func (s *Service) List(ctx context.Context, f Filter) ([]Work, error) {
	works, err := s.store.ListPublished(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list works: %w", err)
	}
	return works, nil
}

// Get returns a published work and counts the view. A failed view update
// does not fail the read.
func (s *Service) Get(ctx context.Context, workID string) (*Work, error) {
	work, err := s.store.GetPublished(ctx, workID)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, ErrWorkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work: %w", err)
	}

	if err := s.store.IncrementViews(ctx, workID); err != nil {
		observability.FromContextOr(ctx, s.logger).
			WithError(err).
			WithField("work_id", workID).
			Warn("Failed to increment view count")
	}
	return work, nil
}

// Create stores a new draft owned by identity
func (s *Service) Create(ctx context.Context, identity *auth.Identity, req CreateRequest) (*Work, error) {
	if identity == nil {
		return nil, auth.ErrMissingToken
	}
	req.Normalize()
	if err := auth.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	work, err := s.store.Create(ctx, identity.UserID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create work: %w", err)
	}
	return work, nil
}

// Update applies a partial update after checking ownership. Unknown works
// are reported before ownership so the 404/403 split matches the stored state.
func (s *Service) Update(ctx context.Context, identity *auth.Identity, workID string, req UpdateRequest) (*Work, error) {
	owner, status, err := s.store.OwnerOf(ctx, workID)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, ErrWorkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load work owner: %w", err)
	}

	if err := s.policy.CanMutate(identity, owner); err != nil {
		return nil, err
	}
	if status == StatusSuspended {
		return nil, ErrWorkSuspended
	}

	req.Normalize()
	if err := auth.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	work, err := s.store.Update(ctx, workID, req)
	if errors.Is(err, auth.ErrNotFound) {
		// works are never deleted, so the row was suspended since OwnerOf
		return nil, ErrWorkSuspended
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update work: %w", err)
	}
	return work, nil
}

// Mine returns every work of the caller regardless of status
func (s *Service) Mine(ctx context.Context, identity *auth.Identity) ([]Work, error) {
	if identity == nil {
		return nil, auth.ErrMissingToken
	}
	works, err := s.store.ListByAuthor(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list works: %w", err)
	}
	return works, nil
}

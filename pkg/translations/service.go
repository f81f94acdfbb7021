package translations

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/observability"
)

// Service implements translation requests and their review workflow
type Service struct {
	store  Store
	policy Policy
	logger *observability.Logger
}

// NewService creates a translations service
func NewService(store Store, logger *observability.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ListCompleted returns the finished translations of a work
func (s *Service) ListCompleted(ctx context.Context, workID string) ([]Translation, error) {
	list, err := s.store.ListCompleted(ctx, workID)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return list, nil
}

// Create opens a pending translation request assigned to the caller
func (s *Service) Create(ctx context.Context, identity *auth.Identity, req CreateRequest) (*Translation, error) {
	if identity == nil {
		return nil, auth.ErrMissingToken
	}
	req.Normalize()
	if err := auth.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	ok, err := s.store.WorkExists(ctx, req.WorkID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up work: %w", err)
	}
	if !ok {
		return nil, ErrWorkNotFound
	}

	exists, err := s.store.Exists(ctx, req.WorkID, req.TargetLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to check translation: %w", err)
	}
	if exists {
		return nil, ErrTranslationExists
	}

	// the unique constraint still decides when two requests race past the check
	t, err := s.store.Create(ctx, identity.UserID, req)
	if err != nil {
		if errors.Is(err, ErrTranslationExists) {
			return nil, ErrTranslationExists
		}
		return nil, fmt.Errorf("failed to create translation: %w", err)
	}

	observability.FromContextOr(ctx, s.logger).WithFields(map[string]interface{}{
		"translation_id":  t.ID,
		"work_id":         t.WorkID,
		"target_language": t.TargetLanguage,
	}).Info("Translation requested")
	return t, nil
}

// UpdateStatus moves a translation along its workflow
func (s *Service) UpdateStatus(ctx context.Context, identity *auth.Identity, translationID string, req StatusRequest) (*Translation, error) {
	if identity == nil {
		return nil, auth.ErrMissingToken
	}
	if err := auth.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	current, err := s.store.Get(ctx, translationID)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, ErrTranslationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get translation: %w", err)
	}

	if err := s.policy.CanTransition(identity, current, req.Status); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateStatus(ctx, translationID, current.Status, req.Status, req.Notes)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, ErrInvalidTransition.WithMessage("The translation changed status, reload and try again")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update translation: %w", err)
	}

	observability.FromContextOr(ctx, s.logger).WithFields(map[string]interface{}{
		"translation_id": translationID,
		"from":           string(current.Status),
		"to":             string(req.Status),
	}).Info("Translation status changed")
	return updated, nil
}

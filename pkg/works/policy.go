package works

import "github.com/platinummonkey/folio/pkg/auth"

// Policy decides who may mutate a work. Ownership is the only criterion:
// no role, admin included, overrides it.
type Policy struct{}

// CanMutate returns nil when identity owns the work, ErrNotAuthor otherwise
func (Policy) CanMutate(identity *auth.Identity, ownerID string) error {
	if identity == nil {
		return auth.ErrMissingToken
	}
	if ownerID == "" || identity.UserID != ownerID {
		return ErrNotAuthor
	}
	return nil
}

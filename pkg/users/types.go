package users

import (
	"context"

	"github.com/platinummonkey/folio/pkg/auth"
)

// PublicProfile is what anyone may see about an active user. It carries no
// email and no account state.
type PublicProfile struct {
	ID           string      `json:"id"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	PenName      *string     `json:"penName"`
	Country      *string     `json:"country,omitempty"`
	Bio          *string     `json:"bio,omitempty"`
	ProfileImage *string     `json:"profileImage,omitempty"`
	Verified     bool        `json:"verified"`
	Roles        []auth.Role `json:"roles"`
	// WorkCount counts published works only
	WorkCount int `json:"workCount"`
}

// Store persists profiles. Missing rows are reported as auth.ErrNotFound.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*auth.User, error)
	// UpdateProfile overwrites only the non-nil fields of req
	UpdateProfile(ctx context.Context, userID string, req UpdateRequest) (*auth.User, error)
	// GetPublicProfile returns active users only
	GetPublicProfile(ctx context.Context, userID string) (*PublicProfile, error)
}

package postgres

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/observability"
	"github.com/platinummonkey/folio/pkg/users"
)

// SeedFile is the YAML document of demo accounts loaded at startup
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser is one demo account. The first role is assigned at creation;
// the rest are granted afterwards in order.
type SeedUser struct {
	Email     string             `yaml:"email"`
	Password  string             `yaml:"password"`
	FirstName string             `yaml:"firstName"`
	LastName  string             `yaml:"lastName"`
	PenName   string             `yaml:"penName,omitempty"`
	Country   string             `yaml:"country,omitempty"`
	Bio       string             `yaml:"bio,omitempty"`
	Roles     []auth.Role        `yaml:"roles"`
	Status    auth.AccountStatus `yaml:"status,omitempty"`
}

// seedTarget is the part of UserStore seeding needs
type seedTarget interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, nu auth.NewUser) (*auth.User, error)
	GrantRole(ctx context.Context, userID string, role auth.Role) error
	SetStatus(ctx context.Context, userID string, status auth.AccountStatus) error
	UpdateProfile(ctx context.Context, userID string, req users.UpdateRequest) (*auth.User, error)
	// inTx runs fn against a target bound to one transaction
	inTx(ctx context.Context, fn func(tx seedTarget) error) error
}

func (s *UserStore) inTx(ctx context.Context, fn func(tx seedTarget) error) error {
	return s.WithinTx(ctx, func(tx *UserStore) error { return fn(tx) })
}

// LoadSeedFile reads and checks a seed file
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed document and checks every entry
func ParseSeed(data []byte) (*SeedFile, error) {
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, u := range sf.Users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user %d: email and password are required", i)
		}
		if len(u.Roles) == 0 {
			return nil, fmt.Errorf("seed user %s: at least one role is required", u.Email)
		}
		for _, r := range u.Roles {
			if !r.Valid() {
				return nil, fmt.Errorf("seed user %s: unknown role %q", u.Email, r)
			}
		}
		switch u.Status {
		case "", auth.AccountActive, auth.AccountSuspended, auth.AccountDeleted:
		default:
			return nil, fmt.Errorf("seed user %s: unknown status %q", u.Email, u.Status)
		}
	}
	return &sf, nil
}

// Seed creates the accounts of sf that do not exist yet and returns how
// many were created. Existing emails are left untouched. Each account is
// written in its own transaction, so a failure leaves no partial user
// behind for the next run to skip.
func Seed(ctx context.Context, store seedTarget, hasher *auth.PasswordHasher, sf *SeedFile, logger *observability.Logger) (int, error) {
	created := 0
	for _, su := range sf.Users {
		email := auth.NormalizeEmail(su.Email)
		exists, err := store.EmailExists(ctx, email)
		if err != nil {
			return created, err
		}
		if exists {
			logger.WithField("email", email).Debug("Seed user already exists")
			continue
		}

		hash, err := hasher.Hash(su.Password)
		if err != nil {
			return created, err
		}

		var user *auth.User
		err = store.inTx(ctx, func(tx seedTarget) error {
			u, err := seedUser(ctx, tx, email, hash, su)
			user = u
			return err
		})
		if err != nil {
			return created, fmt.Errorf("failed to seed %s: %w", email, err)
		}

		created++
		logger.WithFields(map[string]interface{}{
			"user_id": user.ID,
			"roles":   su.Roles,
		}).Info("Seeded user")
	}
	return created, nil
}

func seedUser(ctx context.Context, tx seedTarget, email, hash string, su SeedUser) (*auth.User, error) {
	user, err := tx.CreateUser(ctx, auth.NewUser{
		Email:        email,
		PasswordHash: hash,
		FirstName:    su.FirstName,
		LastName:     su.LastName,
		PenName:      optional(su.PenName),
		Country:      optional(su.Country),
		Role:         su.Roles[0],
	})
	if err != nil {
		return nil, err
	}

	for _, r := range su.Roles[1:] {
		if err := tx.GrantRole(ctx, user.ID, r); err != nil {
			return nil, err
		}
	}
	if su.Bio != "" {
		if _, err := tx.UpdateProfile(ctx, user.ID, users.UpdateRequest{Bio: &su.Bio}); err != nil {
			return nil, err
		}
	}
	if su.Status != "" && su.Status != auth.AccountActive {
		if err := tx.SetStatus(ctx, user.ID, su.Status); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/users"
)

// UserStore persists accounts and role assignments
type UserStore struct {
	db DBTX
	// pool is nil for a store bound to a transaction
	pool *sql.DB
}

var (
	_ auth.CredentialStore = (*UserStore)(nil)
	_ auth.StatusChecker   = (*UserStore)(nil)
	_ users.Store          = (*UserStore)(nil)
)

// NewUserStore creates a user store
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, pool: db}
}

// WithinTx runs fn against a store bound to one transaction. Called on a
// store that is already bound, fn joins the open transaction.
func (s *UserStore) WithinTx(ctx context.Context, fn func(tx *UserStore) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return WithTx(ctx, s.pool, func(tx DBTX) error {
		return fn(&UserStore{db: tx})
	})
}

const userColumns = `user_id, email, first_name, last_name, pen_name, country_code,
	bio, profile_image_url, verified, account_status, created_at, last_login_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner, extra ...interface{}) (*auth.User, error) {
	var (
		u         auth.User
		penName   sql.NullString
		country   sql.NullString
		bio       sql.NullString
		image     sql.NullString
		status    string
		lastLogin sql.NullTime
	)
	dest := []interface{}{
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &penName, &country,
		&bio, &image, &u.Verified, &status, &u.CreatedAt, &lastLogin,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	u.PenName = nullString(penName)
	u.Country = nullString(country)
	u.Bio = nullString(bio)
	u.ProfileImage = nullString(image)
	u.Status = auth.AccountStatus(status)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// EmailExists implements auth.CredentialStore
func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// CreateUser inserts the user and its role in one transaction. A unique
// violation on email yields auth.ErrDuplicateAccount.
func (s *UserStore) CreateUser(ctx context.Context, nu auth.NewUser) (*auth.User, error) {
	var user *auth.User
	err := s.WithinTx(ctx, func(tx *UserStore) error {
		row := tx.db.QueryRowContext(ctx, `
			INSERT INTO users (email, password_hash, first_name, last_name, pen_name, country_code)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+userColumns,
			nu.Email, nu.PasswordHash, nu.FirstName, nu.LastName, nu.PenName, nu.Country,
		)
		u, err := scanUser(row)
		if err != nil {
			return err
		}

		if _, err := tx.db.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_type, is_active) VALUES ($1, $2, TRUE)`,
			u.ID, string(nu.Role),
		); err != nil {
			return err
		}

		u.Roles = []auth.Role{nu.Role}
		user = u
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, auth.ErrDuplicateAccount.Wrap(err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// FindCredentials implements auth.CredentialStore. Active roles come back
// most recently activated first, ties broken by role_type_enum declaration
// order (author, translator, editor, reader, admin).
func (s *UserStore) FindCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var hash string
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email = $1`, email)
	u, err := scanUser(row, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	roles, err := s.activeRoles(ctx, u.ID, `activated_at DESC, role_type ASC`)
	if err != nil {
		return nil, err
	}

	return &auth.Credentials{User: *u, PasswordHash: hash, ActiveRoles: roles}, nil
}

func (s *UserStore) activeRoles(ctx context.Context, userID, order string) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role_type FROM user_roles WHERE user_id = $1 AND is_active ORDER BY `+order, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	defer rows.Close()

	roles := []auth.Role{}
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, auth.Role(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	return roles, nil
}

// TouchLastLogin implements auth.CredentialStore
func (s *UserStore) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// GetProfile implements auth.CredentialStore and users.Store
func (s *UserStore) GetProfile(ctx context.Context, userID string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	u.Roles, err = s.activeRoles(ctx, userID, `role_type ASC`)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// AccountStatus implements auth.StatusChecker
func (s *UserStore) AccountStatus(ctx context.Context, userID string) (auth.AccountStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT account_status FROM users WHERE user_id = $1`, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", auth.ErrNotFound
		}
		return "", fmt.Errorf("failed to load account status: %w", err)
	}
	return auth.AccountStatus(status), nil
}

// UpdateProfile implements users.Store. Nil fields keep their value.
func (s *UserStore) UpdateProfile(ctx context.Context, userID string, req users.UpdateRequest) (*auth.User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = COALESCE($1, first_name),
		    last_name = COALESCE($2, last_name),
		    pen_name = COALESCE($3, pen_name),
		    bio = COALESCE($4, bio),
		    country_code = COALESCE($5, country_code),
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $6`,
		req.FirstName, req.LastName, req.PenName, req.Bio, req.Country, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, auth.ErrNotFound
	}
	return s.GetProfile(ctx, userID)
}

// GetPublicProfile implements users.Store
func (s *UserStore) GetPublicProfile(ctx context.Context, userID string) (*users.PublicProfile, error) {
	var (
		p       users.PublicProfile
		penName sql.NullString
		country sql.NullString
		bio     sql.NullString
		image   sql.NullString
		roles   []string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT u.user_id, u.first_name, u.last_name, u.pen_name, u.country_code,
		       u.bio, u.profile_image_url, u.verified,
		       COALESCE(array_agg(DISTINCT ur.role_type::text) FILTER (WHERE ur.role_type IS NOT NULL), '{}'),
		       COUNT(DISTINCT w.work_id)
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.user_id AND ur.is_active
		LEFT JOIN works w ON w.author_id = u.user_id AND w.status = 'published'
		WHERE u.user_id = $1 AND u.account_status = 'active'
		GROUP BY u.user_id`, userID,
	).Scan(&p.ID, &p.FirstName, &p.LastName, &penName, &country,
		&bio, &image, &p.Verified, pq.Array(&roles), &p.WorkCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load public profile: %w", err)
	}

	p.PenName = nullString(penName)
	p.Country = nullString(country)
	p.Bio = nullString(bio)
	p.ProfileImage = nullString(image)
	p.Roles = make([]auth.Role, 0, len(roles))
	for _, r := range roles {
		p.Roles = append(p.Roles, auth.Role(r))
	}
	return &p, nil
}

// GrantRole activates role for a user, creating the assignment if needed.
// Reactivating an inactive role makes it the most recently activated one;
// granting an active role changes nothing.
func (s *UserStore) GrantRole(ctx context.Context, userID string, role auth.Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles AS ur (user_id, role_type, is_active) VALUES ($1, $2, TRUE)
		ON CONFLICT (user_id, role_type) DO UPDATE
		SET is_active = TRUE,
		    activated_at = CASE WHEN ur.is_active THEN ur.activated_at ELSE CURRENT_TIMESTAMP END`,
		userID, string(role),
	)
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

// SetStatus changes the account status of a user
func (s *UserStore) SetStatus(ctx context.Context, userID string, status auth.AccountStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET account_status = $1, updated_at = CURRENT_TIMESTAMP WHERE user_id = $2`,
		string(status), userID)
	if err != nil {
		return fmt.Errorf("failed to set account status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

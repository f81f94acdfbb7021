package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/contextkeys"
	"github.com/platinummonkey/folio/pkg/httputil"
)

const bearerPrefix = "Bearer "

// AuthMiddleware verifies bearer tokens and attaches the caller's identity
// to the request context
type AuthMiddleware struct {
	tokens *auth.TokenService
	status auth.StatusChecker
	audit  *auth.AuditLogger
}

// AuthOption configures an AuthMiddleware
type AuthOption func(*AuthMiddleware)

// WithStatusChecker makes the guard reject tokens of accounts that are no
// longer active. Costs one query per protected request.
func WithStatusChecker(sc auth.StatusChecker) AuthOption {
	return func(m *AuthMiddleware) {
		m.status = sc
	}
}

// WithAuditLogger records token and role-check failures
func WithAuditLogger(al *auth.AuditLogger) AuthOption {
	return func(m *AuthMiddleware) {
		m.audit = al
	}
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens *auth.TokenService, opts ...AuthOption) *AuthMiddleware {
	m := &AuthMiddleware{tokens: tokens}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httputil.WriteAppError(w, r, auth.ErrMissingToken, "Authentication error")
			return
		}

		identity, err := m.tokens.Verify(token)
		if err != nil {
			m.audit.Failure(r.Context(), auth.ActionTokenAuth, "", err)
			httputil.WriteAppError(w, r, err, "Authentication error")
			return
		}

		if m.status != nil {
			if err := m.checkStatus(r.Context(), identity); err != nil {
				if auth.KindOf(err) != auth.KindInternal {
					m.audit.Failure(r.Context(), auth.ActionTokenAuth, identity.Email, err)
				}
				httputil.WriteAppError(w, r, err, "Authentication error")
				return
			}
		}

		ctx := contextkeys.WithAuth(r.Context(), identity)
		ctx = contextkeys.WithUserID(ctx, identity.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) checkStatus(ctx context.Context, identity *auth.Identity) error {
	status, err := m.status.AccountStatus(ctx, identity.UserID)
	switch {
	case errors.Is(err, auth.ErrNotFound):
		return auth.ErrInvalidToken
	case err != nil:
		return err
	case status != auth.AccountActive:
		return auth.ErrAccountInactive
	}
	return nil
}

// RequireRole gates next on the session role, recording denials
func (m *AuthMiddleware) RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return requireRole(m.audit, roles)
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// IdentityFromContext returns the identity attached by AuthMiddleware, or nil
func IdentityFromContext(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(contextkeys.AuthKey).(*auth.Identity)
	return identity
}

// GetIdentity extracts the identity from request
func GetIdentity(r *http.Request) *auth.Identity {
	return IdentityFromContext(r.Context())
}

// RequireRole creates middleware that admits only the given session roles.
// It must run behind AuthMiddleware; without an identity it answers 401.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return requireRole(nil, roles)
}

func requireRole(audit *auth.AuditLogger, roles []auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r)
			if identity == nil {
				httputil.WriteAppError(w, r, auth.ErrMissingToken, "Authorization error")
				return
			}

			if !identity.HasRole(roles...) {
				audit.Record(r.Context(), auth.AuditEvent{
					Action:  auth.ActionRoleCheck,
					Outcome: auth.OutcomeDenied,
					UserID:  identity.UserID,
					Role:    identity.Role,
					Reason:  auth.KindForbidden.String(),
				})
				httputil.WriteAppError(w, r, auth.ErrForbidden, "Authorization error")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

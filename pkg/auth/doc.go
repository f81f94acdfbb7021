// Package auth provides credential handling, session tokens and the error
// taxonomy shared by every Folio handler.
//
// # Overview
//
// A user registers with an email, a password and one of the roles author,
// translator or editor. Login verifies the bcrypt hash and issues a signed
// HS256 token carrying {userId, email, role}. The token is verified on every
// protected request by pkg/middleware without touching the database.
//
// # Key Components
//
// TokenService: stateless JWT issue/verify with an injectable clock
//
//	tokens := auth.NewTokenService(&cfg.Auth)
//	token, err := tokens.Issue(auth.Identity{UserID: id, Email: email, Role: auth.RoleAuthor})
//	identity, err := tokens.Verify(token) // ErrTokenExpired or ErrInvalidToken on failure
//
// PasswordHasher: bcrypt with a configurable work factor
//
//	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
//
// Service: Register, Login and Me over a CredentialStore
//
//	svc := auth.NewService(store, tokens, hasher, auditLogger, logger)
//	session, err := svc.Login(ctx, auth.LoginRequest{Email: e, Password: p})
//
// # Role Selection
//
// An account may hold several active roles. Login assumes the role named in
// the request, or the most recently activated one. A named role the account
// does not hold is rejected with ErrRoleNotHeld (403).
//
// # Errors
//
// Every client-visible failure is an *Error with a Kind that maps to an HTTP
// status. Sentinels such as ErrInvalidCredentials carry the exact error and
// message strings clients see; wrong password and unknown email share one
// sentinel so their responses are byte-identical.
//
// # Related Packages
//
//   - pkg/middleware: Auth guard and role gate
//   - pkg/storage/postgres: CredentialStore implementation
//   - pkg/httputil: Renders *Error via WriteAppError
package auth

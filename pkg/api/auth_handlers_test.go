package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/folio/pkg/auth"
)

func TestAuthHandlers_ExampleFlow(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/auth/register", registerBody("Jane@Example.com", auth.RoleAuthor), "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.Equal(t, "User registered successfully", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "jane@example.com", user["email"])
	assert.Equal(t, "author", user["role"])
	assert.NotContains(t, user, "passwordHash")
	token := body["token"].(string)

	identity, err := ts.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAuthor, identity.Role)

	rr = ts.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "jane@example.com", "password": "wrong-password"}, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	body = decode(t, rr)
	assert.Equal(t, "Invalid credentials", body["error"])
	assert.Equal(t, "Email or password is incorrect", body["message"])

	rr = ts.do(t, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode(t, rr)["user"].(map[string]interface{})
	assert.Equal(t, identity.UserID, me["id"])
	assert.Equal(t, []interface{}{"author"}, me["roles"])
}

func TestAuthHandlers_Login(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		ts.do(t, http.MethodPost, "/api/auth/register", registerBody("ada@example.com", auth.RoleTranslator), "").Code)

	rr := ts.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "ADA@example.com", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "translator", body["user"].(map[string]interface{})["role"])
	assert.NotEmpty(t, body["token"])

	assert.Equal(t, 1.0, testutil.ToFloat64(
		ts.metrics.AuthEventsTotal.WithLabelValues(auth.ActionLogin, auth.OutcomeSuccess)))
}

func TestAuthHandlers_UnknownEmailMatchesWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		ts.do(t, http.MethodPost, "/api/auth/register", registerBody("known@example.com", auth.RoleEditor), "").Code)

	wrong := ts.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "known@example.com", "password": "nope-nope"}, "")
	unknown := ts.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "ghost@example.com", "password": "nope-nope"}, "")

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestAuthHandlers_SuspendedAccount(t *testing.T) {
	ts := newTestServer(t, withStatusCheck())

	rr := ts.do(t, http.MethodPost, "/api/auth/register", registerBody("sus@example.com", auth.RoleAuthor), "")
	require.Equal(t, http.StatusCreated, rr.Code)
	token := decode(t, rr)["token"].(string)
	identity, err := ts.tokens.Verify(token)
	require.NoError(t, err)

	require.NoError(t, ts.store.SetStatus(identity.UserID, auth.AccountSuspended))

	rr = ts.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "sus@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Account inactive", decode(t, rr)["error"])

	// the already issued token is refused once status checks are enabled
	rr = ts.do(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuthHandlers_RegisterErrors(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		ts.do(t, http.MethodPost, "/api/auth/register", registerBody("dup@example.com", auth.RoleAuthor), "").Code)

	tests := []struct {
		name      string
		body      interface{}
		wantError string
		wantField string
	}{
		{"duplicate email", registerBody("DUP@example.com", auth.RoleEditor), "User already exists", ""},
		{"admin is not self-registrable", registerBody("adm@example.com", auth.RoleAdmin), "Validation failed", "role"},
		{"bad email", registerBody("not-an-email", auth.RoleAuthor), "Validation failed", "email"},
		{"short password", map[string]interface{}{
			"email": "short@example.com", "password": "123", "firstName": "A", "lastName": "B", "role": "author",
		}, "Validation failed", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPost, "/api/auth/register", tt.body, "")
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			body := decode(t, rr)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantField != "" {
				assert.Contains(t, body["details"], tt.wantField)
			}
		})
	}

	assert.Equal(t, 1, ts.store.Count())
}

func TestAuthHandlers_MalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	ts.srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request body", decode(t, rr)["error"])
}

func TestAuthHandlers_MeRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Authentication required", decode(t, rr)["error"])

	rr = ts.do(t, http.MethodGet, "/api/auth/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid token", decode(t, rr)["error"])
}

func TestAuthHandlers_MeForDeletedUser(t *testing.T) {
	ts := newTestServer(t)

	token, err := ts.tokens.Issue(auth.Identity{UserID: "00000000-0000-0000-0000-000000000000", Email: "x@y.z", Role: auth.RoleAuthor})
	require.NoError(t, err)

	rr := ts.do(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "User not found", decode(t, rr)["error"])
}

func TestAuthHandlers_LoginThrottled(t *testing.T) {
	ts := newTestServer(t, withThrottle(2))
	creds := map[string]string{"email": "slow@example.com", "password": "whatever"}

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/auth/login", creds, "").Code)
	}

	rr := ts.do(t, http.MethodPost, "/api/auth/login", creds, "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests", decode(t, rr)["error"])
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.RateLimitedTotal.WithLabelValues("/api/auth/login")))

	// the guard-protected routes are not throttled
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/auth/me", nil, "").Code)
}

func TestAuthHandlers_ExpiredToken(t *testing.T) {
	ts := newTestServer(t)
	past := time.Now().Add(-2 * time.Hour)
	expired, err := ts.tokens.WithClock(func() time.Time { return past }).
		Issue(auth.Identity{UserID: "u-1", Email: "old@example.com", Role: auth.RoleAuthor})
	require.NoError(t, err)

	rr := ts.do(t, http.MethodGet, "/api/auth/me", nil, expired)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Token expired", decode(t, rr)["error"])
}

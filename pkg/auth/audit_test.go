package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/folio/pkg/observability"
)

type countingRecorder struct {
	events map[string]int
}

func (c *countingRecorder) RecordAuthEvent(event, outcome string) {
	if c.events == nil {
		c.events = make(map[string]int)
	}
	c.events[event+"/"+outcome]++
}

func TestAuditLogger_Record(t *testing.T) {
	var buf bytes.Buffer
	rec := &countingRecorder{}
	al := NewAuditLogger(observability.NewLogger(observability.DebugLevel, &buf), rec)

	al.Record(context.Background(), AuditEvent{
		Action:  ActionLogin,
		Outcome: OutcomeSuccess,
		UserID:  "u-1",
		Role:    RoleAuthor,
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "auth event", entry["msg"])
	assert.Equal(t, true, entry["audit"])
	assert.Equal(t, "login", entry["action"])
	assert.Equal(t, "u-1", entry["subject_id"])
	assert.Equal(t, "author", entry["role"])
	assert.NotContains(t, entry, "email")
	assert.Equal(t, 1, rec.events["login/success"])
}

func TestAuditLogger_Failure(t *testing.T) {
	var buf bytes.Buffer
	rec := &countingRecorder{}
	al := NewAuditLogger(observability.NewLogger(observability.DebugLevel, &buf), rec)

	al.Failure(context.Background(), ActionLogin, "a@x.io", ErrInvalidCredentials)
	al.Failure(context.Background(), ActionLogin, "a@x.io", ErrAccountInactive)
	al.Failure(context.Background(), ActionRoleCheck, "", ErrForbidden)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "warning", first["level"])
	assert.Equal(t, "failure", first["outcome"])
	assert.Equal(t, "invalid_credentials", first["reason"])
	assert.Equal(t, "a@x.io", first["email"])

	assert.Equal(t, 1, rec.events["login/failure"])
	assert.Equal(t, 1, rec.events["login/denied"])
	assert.Equal(t, 1, rec.events["role_check/denied"])
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var al *AuditLogger
	assert.NotPanics(t, func() {
		al.Record(context.Background(), AuditEvent{Action: ActionLogin, Outcome: OutcomeSuccess})
		al.Failure(context.Background(), ActionLogin, "", ErrInvalidCredentials)
	})
}

func TestAuditLogger_NeverLogsSecrets(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(observability.NewLogger(observability.DebugLevel, &buf), nil)
	al.Failure(context.Background(), ActionRegister, "a@x.io", NewValidationError(map[string]string{"password": "too short"}))
	assert.NotContains(t, buf.String(), "hunter")
	assert.Contains(t, buf.String(), "validation_failed")
}

package auth

import (
	"context"

	"github.com/platinummonkey/folio/pkg/observability"
)

// Audit actions
const (
	ActionRegister  = "register"
	ActionLogin     = "login"
	ActionTokenAuth = "token"
	ActionRoleCheck = "role_check"
)

// Audit outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

// EventRecorder counts auth events; *observability.Metrics implements it
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// AuditEvent is one security-relevant auth decision
type AuditEvent struct {
	Action  string
	Outcome string
	UserID  string
	Email   string
	Role    Role
	// Reason is the error kind for failures
	Reason string
}

// AuditLogger writes auth events to the structured log and the metrics
// recorder. Passwords and tokens are never part of an event.
type AuditLogger struct {
	logger   *observability.Logger
	recorder EventRecorder
}

// NewAuditLogger creates an audit logger. recorder may be nil.
func NewAuditLogger(logger *observability.Logger, recorder EventRecorder) *AuditLogger {
	return &AuditLogger{logger: logger, recorder: recorder}
}

// Record logs the event; failures and denials log at warn
func (al *AuditLogger) Record(ctx context.Context, ev AuditEvent) {
	if al == nil {
		return
	}
	if al.recorder != nil {
		al.recorder.RecordAuthEvent(ev.Action, ev.Outcome)
	}

	fields := map[string]interface{}{
		"audit":   true,
		"action":  ev.Action,
		"outcome": ev.Outcome,
	}
	if ev.UserID != "" {
		fields["subject_id"] = ev.UserID
	}
	if ev.Email != "" {
		fields["email"] = ev.Email
	}
	if ev.Role != "" {
		fields["role"] = string(ev.Role)
	}
	if ev.Reason != "" {
		fields["reason"] = ev.Reason
	}

	entry := observability.FromContextOr(ctx, al.logger).WithFields(fields)
	if ev.Outcome == OutcomeSuccess {
		entry.Info("auth event")
		return
	}
	entry.Warn("auth event")
}

// Failure records a failed action classified by err
func (al *AuditLogger) Failure(ctx context.Context, action, email string, err error) {
	outcome := OutcomeFailure
	if k := KindOf(err); k == KindForbidden || k == KindAccountInactive {
		outcome = OutcomeDenied
	}
	al.Record(ctx, AuditEvent{
		Action:  action,
		Outcome: outcome,
		Email:   email,
		Reason:  KindOf(err).String(),
	})
}

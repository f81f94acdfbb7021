package auth

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an Error for transport mapping
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicate
	KindInvalidCredentials
	KindAccountInactive
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindDuplicate:
		return "duplicate"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAccountInactive:
		return "account_inactive"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to a response status
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindDuplicate:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAccountInactive, KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified, client-presentable error. Title and Message are
// sent to clients verbatim as the "error" and "message" fields.
type Error struct {
	Kind    Kind
	Title   string
	Message string
	Fields  map[string]string
	Err     error
}

// NewError creates a classified error
func NewError(kind Kind, title, message string) *Error {
	return &Error{Kind: kind, Title: title, Message: message}
}

// NewValidationError builds a validation error from per-field messages
func NewValidationError(fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}

	return &Error{
		Kind:    KindValidation,
		Title:   ErrValidation.Title,
		Message: strings.Join(parts, "; "),
		Fields:  fields,
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Message, e.Err)
	}
	return e.Title + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind and title, so copies made by
// WithMessage and Wrap still match their sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Title == t.Title
}

// WithMessage returns a copy with a different client message
func (e *Error) WithMessage(message string) *Error {
	c := *e
	c.Message = message
	return &c
}

// Wrap returns a copy carrying cause for logging; the client body is unchanged
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// HTTPStatus implements httputil.APIError
func (e *Error) HTTPStatus() int { return e.Kind.HTTPStatus() }

// Summary implements httputil.APIError
func (e *Error) Summary() string { return e.Title }

// Detail implements httputil.APIError
func (e *Error) Detail() string { return e.Message }

// FieldErrors implements httputil.APIError
func (e *Error) FieldErrors() map[string]string { return e.Fields }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrValidation = NewError(KindValidation,
		"Validation failed", "The request is invalid")

	ErrDuplicateAccount = NewError(KindDuplicate,
		"User already exists", "An account with this email already exists")

	ErrInvalidCredentials = NewError(KindInvalidCredentials,
		"Invalid credentials", "Email or password is incorrect")

	ErrAccountInactive = NewError(KindAccountInactive,
		"Account inactive", "Your account has been suspended or deleted")

	ErrMissingToken = NewError(KindUnauthenticated,
		"Authentication required", "Please provide a valid token")

	ErrInvalidToken = NewError(KindUnauthenticated,
		"Invalid token", "The provided token is invalid")

	ErrTokenExpired = NewError(KindUnauthenticated,
		"Token expired", "Your session has expired. Please login again")

	ErrForbidden = NewError(KindForbidden,
		"Forbidden", "You do not have permission to access this resource")

	ErrRoleNotHeld = ErrForbidden.WithMessage("You do not hold the requested role")

	ErrNotFound = NewError(KindNotFound,
		"Not found", "The requested resource was not found")

	ErrUserNotFound = NewError(KindNotFound,
		"User not found", "No active user exists with this id")
)

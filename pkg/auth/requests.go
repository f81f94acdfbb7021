package auth

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      Role    `json:"role"`
	PenName   *string `json:"penName,omitempty"`
	Country   *string `json:"country,omitempty"`
}

// Normalize lower-cases the email and trims names. Blank optional fields
// become nil.
func (r *RegisterRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Role = Role(strings.TrimSpace(string(r.Role)))
	r.PenName = trimOptional(r.PenName)
	r.Country = trimOptional(r.Country)
	if r.Country != nil {
		upper := strings.ToUpper(*r.Country)
		r.Country = &upper
	}
}

// Validate checks field formats. Call Normalize first.
func (r RegisterRequest) Validate() error {
	return FromValidation(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(MinPasswordLength, MaxPasswordLength).
				Error(fmt.Sprintf("must be between %d and %d characters", MinPasswordLength, MaxPasswordLength))),
		validation.Field(&r.FirstName, validation.Required),
		validation.Field(&r.LastName, validation.Required),
		validation.Field(&r.Role,
			validation.Required,
			validation.In(RoleAuthor, RoleTranslator, RoleEditor).
				Error("must be one of author, translator, editor")),
		validation.Field(&r.PenName, validation.Length(0, 100)),
		validation.Field(&r.Country,
			validation.Match(countryCodePattern).Error("must be a two-letter country code")),
	))
}

// LoginRequest is the body of POST /api/auth/login. Role optionally names
// the role to assume when the account holds several.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Normalize lower-cases the email
func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Role = Role(strings.TrimSpace(string(r.Role)))
}

// Validate checks that both credentials are present
func (r LoginRequest) Validate() error {
	return FromValidation(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Role,
			validation.In(RoleAuthor, RoleTranslator, RoleEditor, RoleReader, RoleAdmin).
				Error("must be a known role")),
	))
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// FromValidation converts ozzo-validation output into a classified
// validation error. nil stays nil.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validation.Errors)
	if !ok {
		return fmt.Errorf("failed to validate request: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = ferr.Error()
	}
	return NewValidationError(fields)
}

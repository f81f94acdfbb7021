package users

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

const (
	maxNameLength = 100
	maxBioLength  = 5000
)

// UpdateRequest is the body of PUT /api/users/profile. Nil fields keep
// their stored value.
type UpdateRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	PenName   *string `json:"penName,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Country   *string `json:"country,omitempty"`
}

// Normalize trims every present field and upper-cases the country code
func (r *UpdateRequest) Normalize() {
	for _, f := range []**string{&r.FirstName, &r.LastName, &r.PenName, &r.Bio, &r.Country} {
		if *f != nil {
			t := strings.TrimSpace(**f)
			*f = &t
		}
	}
	if r.Country != nil {
		upper := strings.ToUpper(*r.Country)
		r.Country = &upper
	}
}

// Empty reports whether the request changes nothing
func (r UpdateRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.PenName == nil && r.Bio == nil && r.Country == nil
}

// Validate checks the fields that are present. Names may not be blanked.
func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName,
			validation.NilOrNotEmpty.Error("cannot be blank"),
			validation.Length(1, maxNameLength)),
		validation.Field(&r.LastName,
			validation.NilOrNotEmpty.Error("cannot be blank"),
			validation.Length(1, maxNameLength)),
		validation.Field(&r.PenName, validation.Length(0, maxNameLength)),
		validation.Field(&r.Bio, validation.Length(0, maxBioLength)),
		validation.Field(&r.Country,
			validation.Match(countryCodePattern).Error("must be a two-letter country code")),
	)
}

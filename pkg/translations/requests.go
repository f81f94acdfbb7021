package translations

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var languagePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

const maxNotesLength = 5000

// CreateRequest is the body of POST /api/translations
type CreateRequest struct {
	WorkID          string `json:"workId"`
	TargetLanguage  string `json:"targetLanguage"`
	TranslationType Type   `json:"translationType"`
}

// Normalize trims identifiers
func (r *CreateRequest) Normalize() {
	r.WorkID = strings.TrimSpace(r.WorkID)
	r.TargetLanguage = strings.TrimSpace(r.TargetLanguage)
	r.TranslationType = Type(strings.ToLower(strings.TrimSpace(string(r.TranslationType))))
}

// Validate checks field formats. Call Normalize first.
func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.WorkID, validation.Required, is.UUID),
		validation.Field(&r.TargetLanguage,
			validation.Required,
			validation.Match(languagePattern).Error("must be a language code such as en or pt-BR")),
		validation.Field(&r.TranslationType,
			validation.Required,
			validation.In(TypeAI, TypeHuman, TypeHybrid).Error("must be one of ai, human, hybrid")),
	)
}

// StatusRequest is the body of PUT /api/translations/{translationId}/status
type StatusRequest struct {
	Status Status  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

// Validate checks that a known status is named
func (r StatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status,
			validation.Required,
			validation.In(StatusPending, StatusInProgress, StatusCompleted, StatusApproved, StatusRejected).
				Error("must be one of pending, in_progress, completed, approved, rejected")),
		validation.Field(&r.Notes, validation.Length(0, maxNotesLength)),
	)
}

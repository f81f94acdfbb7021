package translations

import (
	"context"
	"time"

	"github.com/platinummonkey/folio/pkg/auth"
)

// Type is how a translation is produced
type Type string

const (
	TypeAI     Type = "ai"
	TypeHuman  Type = "human"
	TypeHybrid Type = "hybrid"
)

// Status is the review state of a translation
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

// Translation is a request to render a work in another language. There is
// at most one per (work, target language).
type Translation struct {
	ID              string     `json:"id"`
	WorkID          string     `json:"workId"`
	TranslatorID    *string    `json:"translatorId"`
	TranslatorName  *string    `json:"translatorName,omitempty"`
	TargetLanguage  string     `json:"targetLanguage"`
	TranslationType Type       `json:"translationType"`
	Status          Status     `json:"status"`
	QualityScore    *float64   `json:"qualityScore,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	// WorkAuthorID is the owner of the translated work, loaded for policy checks
	WorkAuthorID string `json:"-"`
}

// Store persists translations. Missing rows are reported as auth.ErrNotFound.
type Store interface {
	ListCompleted(ctx context.Context, workID string) ([]Translation, error)
	// WorkExists reports whether a work with this id exists in any status
	WorkExists(ctx context.Context, workID string) (bool, error)
	Exists(ctx context.Context, workID, language string) (bool, error)
	// Create returns ErrTranslationExists when (work, language) is taken
	Create(ctx context.Context, translatorID string, req CreateRequest) (*Translation, error)
	Get(ctx context.Context, translationID string) (*Translation, error)
	// UpdateStatus moves a translation from one status to another. It
	// returns auth.ErrNotFound when the row is no longer in status from.
	UpdateStatus(ctx context.Context, translationID string, from, to Status, notes *string) (*Translation, error)
}

var (
	ErrTranslationExists = auth.NewError(auth.KindValidation,
		"Translation already exists for this language", "A translation of this work into this language was already requested")

	ErrTranslationNotFound = auth.NewError(auth.KindNotFound,
		"Translation not found", "No translation exists with this id")

	ErrWorkNotFound = auth.NewError(auth.KindNotFound,
		"Work not found", "No work exists with this id")

	ErrInvalidTransition = auth.NewError(auth.KindValidation,
		"Invalid status transition", "The translation cannot move to the requested status")

	ErrNotParticipant = auth.NewError(auth.KindForbidden,
		"Not authorized to change this translation", "Only the assigned translator or the work's author may change this translation")
)

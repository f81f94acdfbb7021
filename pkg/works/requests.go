package works

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// languagePattern accepts ISO 639-1 codes with an optional region, e.g. "en" or "pt-BR"
var languagePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

const (
	maxTitleLength = 500
	maxGenreLength = 100
	maxTags        = 20
)

// CreateRequest is the body of POST /api/works
type CreateRequest struct {
	Title            string      `json:"title"`
	Description      *string     `json:"description,omitempty"`
	OriginalLanguage string      `json:"originalLanguage"`
	ContentType      ContentType `json:"contentType"`
	Genre            *string     `json:"genre,omitempty"`
	Tags             []string    `json:"tags,omitempty"`
	Price            float64     `json:"price"`
	IsFree           bool        `json:"isFree"`
}

// Normalize trims free-text fields and drops blank tags
func (r *CreateRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.OriginalLanguage = strings.TrimSpace(r.OriginalLanguage)
	r.Genre = trimOptional(r.Genre)
	r.Tags = cleanTags(r.Tags)
	if r.Tags == nil {
		r.Tags = []string{}
	}
}

// Validate checks field formats. Call Normalize first.
func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&r.OriginalLanguage,
			validation.Required,
			validation.Match(languagePattern).Error("must be a language code such as en or pt-BR")),
		validation.Field(&r.ContentType,
			validation.Required,
			validation.In(ContentText, ContentManga, ContentArt).Error("must be one of text, manga, art")),
		validation.Field(&r.Genre, validation.Length(0, maxGenreLength)),
		validation.Field(&r.Tags, validation.Length(0, maxTags)),
		validation.Field(&r.Price, validation.Min(0.0).Error("must not be negative")),
	)
}

// UpdateRequest is the body of PUT /api/works/{workId}. Nil fields keep
// their stored value.
type UpdateRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Genre       *string   `json:"genre,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Status      *Status   `json:"status,omitempty"`
}

// Normalize trims free-text fields
func (r *UpdateRequest) Normalize() {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
	r.Genre = trimOptional(r.Genre)
	if r.Tags != nil {
		tags := cleanTags(*r.Tags)
		if tags == nil {
			tags = []string{}
		}
		r.Tags = &tags
	}
}

// Validate checks the fields that are present
func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.NilOrNotEmpty.Error("cannot be blank"),
			validation.Length(1, maxTitleLength)),
		validation.Field(&r.Genre, validation.Length(0, maxGenreLength)),
		validation.Field(&r.Tags, validation.By(func(v interface{}) error {
			tags, _ := v.(*[]string)
			if tags != nil && len(*tags) > maxTags {
				return fmt.Errorf("must have at most %d tags", maxTags)
			}
			return nil
		})),
		validation.Field(&r.Price, validation.Min(0.0).Error("must not be negative")),
		validation.Field(&r.Status,
			validation.In(StatusDraft, StatusPublished, StatusArchived).
				Error("must be one of draft, published, archived")),
	)
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

func cleanTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

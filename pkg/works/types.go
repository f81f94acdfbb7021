package works

import (
	"context"
	"time"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/httputil"
)

// ContentType is the medium of a work
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentManga ContentType = "manga"
	ContentArt   ContentType = "art"
)

// Status is the publication state of a work
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusSuspended Status = "suspended"
)

// Work is a literary or visual piece owned by exactly one author
type Work struct {
	ID               string      `json:"id"`
	AuthorID         string      `json:"authorId"`
	AuthorName       *string     `json:"authorName,omitempty"`
	Title            string      `json:"title"`
	Description      *string     `json:"description"`
	OriginalLanguage string      `json:"originalLanguage"`
	ContentType      ContentType `json:"contentType"`
	Genre            *string     `json:"genre"`
	Tags             []string    `json:"tags"`
	CoverImageURL    *string     `json:"coverImageUrl,omitempty"`
	Price            float64     `json:"price"`
	IsFree           bool        `json:"isFree"`
	Status           Status      `json:"status"`
	PublishedAt      *time.Time  `json:"publishedAt"`
	ViewCount        int         `json:"viewCount"`
	RatingAverage    float64     `json:"ratingAverage"`
	RatingCount      int         `json:"ratingCount"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Filter narrows the public catalogue listing
type Filter struct {
	Genre    string
	Language string
	Page     httputil.Page
}

// Store persists works. Missing rows are reported as auth.ErrNotFound.
type Store interface {
	ListPublished(ctx context.Context, f Filter) ([]Work, error)
	GetPublished(ctx context.Context, workID string) (*Work, error)
	IncrementViews(ctx context.Context, workID string) error
	Create(ctx context.Context, authorID string, req CreateRequest) (*Work, error)
	// OwnerOf returns the author id and status of any work
	OwnerOf(ctx context.Context, workID string) (string, Status, error)
	// Update leaves suspended works untouched and reports them as
	// auth.ErrNotFound
	Update(ctx context.Context, workID string, req UpdateRequest) (*Work, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Work, error)
}

var (
	ErrWorkNotFound = auth.NewError(auth.KindNotFound,
		"Work not found", "No published work exists with this id")

	ErrNotAuthor = auth.NewError(auth.KindForbidden,
		"Not authorized to edit this work", "Only the author of a work may change it")

	ErrWorkSuspended = auth.NewError(auth.KindForbidden,
		"Work is suspended", "A suspended work cannot be changed by its author")
)

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/platinummonkey/folio/pkg/works"
)

// WorkStore persists works
type WorkStore struct {
	db *sql.DB
}

var _ works.Store = (*WorkStore)(nil)

// NewWorkStore creates a work store
func NewWorkStore(db *sql.DB) *WorkStore {
	return &WorkStore{db: db}
}

const workColumns = `w.work_id, w.author_id, w.title, w.description, w.original_language,
	w.content_type, w.genre, w.tags, w.cover_image_url, w.price, w.is_free, w.status,
	w.published_at, w.view_count, w.rating_average, w.rating_count, w.created_at, w.updated_at`

func scanWork(row rowScanner, extra ...interface{}) (*works.Work, error) {
	var (
		w           works.Work
		description sql.NullString
		genre       sql.NullString
		cover       sql.NullString
		contentType string
		status      string
		publishedAt sql.NullTime
		tags        []string
	)
	dest := []interface{}{
		&w.ID, &w.AuthorID, &w.Title, &description, &w.OriginalLanguage,
		&contentType, &genre, pq.Array(&tags), &cover, &w.Price, &w.IsFree, &status,
		&publishedAt, &w.ViewCount, &w.RatingAverage, &w.RatingCount, &w.CreatedAt, &w.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	w.Description = nullString(description)
	w.Genre = nullString(genre)
	w.CoverImageURL = nullString(cover)
	w.ContentType = works.ContentType(contentType)
	w.Status = works.Status(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		w.PublishedAt = &t
	}
	w.Tags = tags
	if w.Tags == nil {
		w.Tags = []string{}
	}
	return &w, nil
}

func collectWorks(rows *sql.Rows, withAuthor bool) ([]works.Work, error) {
	defer rows.Close()
	list := []works.Work{}
	for rows.Next() {
		var extra []interface{}
		var authorName sql.NullString
		if withAuthor {
			extra = append(extra, &authorName)
		}
		w, err := scanWork(rows, extra...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work: %w", err)
		}
		w.AuthorName = nullString(authorName)
		list = append(list, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read works: %w", err)
	}
	return list, nil
}

// authorNameExpr prefers the pen name over the legal name
const authorNameExpr = `COALESCE(u.pen_name, u.first_name || ' ' || u.last_name)`

// ListPublished implements works.Store
func (s *WorkStore) ListPublished(ctx context.Context, f works.Filter) ([]works.Work, error) {
	var (
		conds = []string{"w.status = 'published'"}
		args  []interface{}
	)
	if f.Genre != "" {
		args = append(args, f.Genre)
		conds = append(conds, fmt.Sprintf("w.genre = $%d", len(args)))
	}
	if f.Language != "" {
		args = append(args, f.Language)
		conds = append(conds, fmt.Sprintf("w.original_language = $%d", len(args)))
	}
	args = append(args, f.Page.Limit, f.Page.Offset())

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM works w
		JOIN users u ON u.user_id = w.author_id
		WHERE %s
		ORDER BY w.published_at DESC NULLS LAST, w.created_at DESC
		LIMIT $%d OFFSET $%d`,
		workColumns, authorNameExpr, strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list works: %w", err)
	}
	return collectWorks(rows, true)
}

// GetPublished implements works.Store
func (s *WorkStore) GetPublished(ctx context.Context, workID string) (*works.Work, error) {
	var authorName sql.NullString
	row := s.db.QueryRowContext(ctx, `
		SELECT `+workColumns+`, `+authorNameExpr+`
		FROM works w
		JOIN users u ON u.user_id = w.author_id
		WHERE w.work_id = $1 AND w.status = 'published'`, workID)
	w, err := scanWork(row, &authorName)
	if err != nil {
		return nil, notFound(err)
	}
	w.AuthorName = nullString(authorName)
	return w, nil
}

// IncrementViews implements works.Store
func (s *WorkStore) IncrementViews(ctx context.Context, workID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE works SET view_count = view_count + 1 WHERE work_id = $1`, workID)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// Create implements works.Store. New works start as drafts.
func (s *WorkStore) Create(ctx context.Context, authorID string, req works.CreateRequest) (*works.Work, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO works AS w (author_id, title, description, original_language, content_type,
		                        genre, tags, price, is_free, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'draft')
		RETURNING `+workColumns,
		authorID, req.Title, req.Description, req.OriginalLanguage, string(req.ContentType),
		req.Genre, pq.Array(req.Tags), req.Price, req.IsFree,
	)
	w, err := scanWork(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create work: %w", err)
	}
	return w, nil
}

// OwnerOf implements works.Store
func (s *WorkStore) OwnerOf(ctx context.Context, workID string) (string, works.Status, error) {
	var owner, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT author_id, status FROM works WHERE work_id = $1`, workID).Scan(&owner, &status)
	if err != nil {
		return "", "", notFound(err)
	}
	return owner, works.Status(status), nil
}

// Update implements works.Store. Nil fields keep their value; the first
// move to published stamps published_at. Suspended rows never match.
func (s *WorkStore) Update(ctx context.Context, workID string, req works.UpdateRequest) (*works.Work, error) {
	var tags interface{}
	if req.Tags != nil {
		tags = pq.Array(*req.Tags)
	}
	var status interface{}
	if req.Status != nil {
		status = string(*req.Status)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE works AS w
		SET title = COALESCE($1, w.title),
		    description = COALESCE($2, w.description),
		    genre = COALESCE($3, w.genre),
		    tags = COALESCE($4, w.tags),
		    price = COALESCE($5, w.price),
		    status = COALESCE($6::work_status_enum, w.status),
		    published_at = CASE
		        WHEN $6 = 'published' AND w.published_at IS NULL THEN CURRENT_TIMESTAMP
		        ELSE w.published_at
		    END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE w.work_id = $7 AND w.status <> 'suspended'
		RETURNING `+workColumns,
		req.Title, req.Description, req.Genre, tags, req.Price, status, workID,
	)
	w, err := scanWork(row)
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

// ListByAuthor implements works.Store
func (s *WorkStore) ListByAuthor(ctx context.Context, authorID string) ([]works.Work, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+workColumns+`
		FROM works w
		WHERE w.author_id = $1
		ORDER BY w.created_at DESC`, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list works: %w", err)
	}
	return collectWorks(rows, false)
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/folio/pkg/translations"
)

// TranslationStore persists translation requests
type TranslationStore struct {
	db *sql.DB
}

var _ translations.Store = (*TranslationStore)(nil)

// NewTranslationStore creates a translation store
func NewTranslationStore(db *sql.DB) *TranslationStore {
	return &TranslationStore{db: db}
}

const translationColumns = `t.translation_id, t.work_id, t.translator_id, t.target_language,
	t.translation_type, t.status, t.quality_score, t.notes, t.completed_at, t.approved_at,
	t.created_at, t.updated_at`

func scanTranslation(row rowScanner, extra ...interface{}) (*translations.Translation, error) {
	var (
		t            translations.Translation
		translatorID sql.NullString
		typ          string
		status       string
		quality      sql.NullFloat64
		notes        sql.NullString
		completedAt  sql.NullTime
		approvedAt   sql.NullTime
	)
	dest := []interface{}{
		&t.ID, &t.WorkID, &translatorID, &t.TargetLanguage,
		&typ, &status, &quality, &notes, &completedAt, &approvedAt,
		&t.CreatedAt, &t.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.TranslatorID = nullString(translatorID)
	t.TranslationType = translations.Type(typ)
	t.Status = translations.Status(status)
	t.Notes = nullString(notes)
	if quality.Valid {
		q := quality.Float64
		t.QualityScore = &q
	}
	if completedAt.Valid {
		c := completedAt.Time
		t.CompletedAt = &c
	}
	if approvedAt.Valid {
		a := approvedAt.Time
		t.ApprovedAt = &a
	}
	return &t, nil
}

// ListCompleted implements translations.Store
func (s *TranslationStore) ListCompleted(ctx context.Context, workID string) ([]translations.Translation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+translationColumns+`, u.pen_name
		FROM translations t
		LEFT JOIN users u ON u.user_id = t.translator_id
		WHERE t.work_id = $1 AND t.status = 'completed'
		ORDER BY t.completed_at DESC NULLS LAST`, workID)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	defer rows.Close()

	list := []translations.Translation{}
	for rows.Next() {
		var name sql.NullString
		t, err := scanTranslation(rows, &name)
		if err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		t.TranslatorName = nullString(name)
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read translations: %w", err)
	}
	return list, nil
}

// WorkExists implements translations.Store
func (s *TranslationStore) WorkExists(ctx context.Context, workID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM works WHERE work_id = $1)`, workID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check work: %w", err)
	}
	return exists, nil
}

// Exists implements translations.Store
func (s *TranslationStore) Exists(ctx context.Context, workID, language string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM translations WHERE work_id = $1 AND target_language = $2)`,
		workID, language).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check translation: %w", err)
	}
	return exists, nil
}

// Create implements translations.Store
func (s *TranslationStore) Create(ctx context.Context, translatorID string, req translations.CreateRequest) (*translations.Translation, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO translations AS t (work_id, translator_id, target_language, translation_type, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING `+translationColumns,
		req.WorkID, translatorID, req.TargetLanguage, string(req.TranslationType),
	)
	t, err := scanTranslation(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, translations.ErrTranslationExists.Wrap(err)
		}
		return nil, fmt.Errorf("failed to create translation: %w", err)
	}
	return t, nil
}

// Get implements translations.Store. The work's author is loaded alongside.
func (s *TranslationStore) Get(ctx context.Context, translationID string) (*translations.Translation, error) {
	var authorID string
	row := s.db.QueryRowContext(ctx, `
		SELECT `+translationColumns+`, w.author_id
		FROM translations t
		JOIN works w ON w.work_id = t.work_id
		WHERE t.translation_id = $1`, translationID)
	t, err := scanTranslation(row, &authorID)
	if err != nil {
		return nil, notFound(err)
	}
	t.WorkAuthorID = authorID
	return t, nil
}

// UpdateStatus implements translations.Store. The from status guards
// against concurrent moves; completion and approval are timestamped.
func (s *TranslationStore) UpdateStatus(ctx context.Context, translationID string, from, to translations.Status, notes *string) (*translations.Translation, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE translations AS t
		SET status = $2::translation_status_enum,
		    notes = COALESCE($4, t.notes),
		    completed_at = CASE WHEN $2 = 'completed' THEN CURRENT_TIMESTAMP ELSE t.completed_at END,
		    approved_at = CASE WHEN $2 = 'approved' THEN CURRENT_TIMESTAMP ELSE t.approved_at END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE t.translation_id = $1 AND t.status = $3::translation_status_enum
		RETURNING `+translationColumns,
		translationID, string(to), string(from), notes,
	)
	t, err := scanTranslation(row)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

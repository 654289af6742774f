package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/roundup/internal/apperr"
	"github.com/starford/roundup/internal/models"
)

const documentColumns = `id, filename, content_type, size, hash, content, cleaned_content, last_step, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d       models.Document
		cleaned sql.NullString
	)
	if err := row.Scan(&d.ID, &d.Filename, &d.ContentType, &d.Size, &d.Hash, &d.Content,
		&cleaned, &d.LastStep, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.CleanedContent = cleaned.String
	return &d, nil
}

// CreateDocument inserts doc. A document with the same hash already stored
// yields apperr.ErrAlreadyExists.
func (db *DB) CreateDocument(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt
	if doc.LastStep == 0 {
		doc.LastStep = models.StepUpload
	}

	var cleaned sql.NullString
	if doc.CleanedContent != "" {
		cleaned = sql.NullString{String: doc.CleanedContent, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.ContentType, doc.Size, doc.Hash, doc.Content,
		cleaned, doc.LastStep, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: create document %s: %w", doc.Hash, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: create document: %w", err)
	}
	return nil
}

// GetDocument returns the document with id.
func (db *DB) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// FindByHash returns the document whose content hash equals hash.
func (db *DB) FindByHash(ctx context.Context, hash string) (*models.Document, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE hash = ?`, hash)
	d, err := scanDocument(row)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// ListDocuments returns every document, most recently updated first.
func (db *DB) ListDocuments(ctx context.Context) ([]models.DocumentSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT d.id, d.filename, d.content_type, d.size, d.hash, d.last_step,
		       d.cleaned_content IS NOT NULL AND d.cleaned_content != '',
		       (SELECT count(*) FROM rounds r WHERE r.document_id = d.id),
		       d.updated_at
		FROM documents d
		ORDER BY d.updated_at DESC, d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.DocumentSummary, 0)
	for rows.Next() {
		var s models.DocumentSummary
		if err := rows.Scan(&s.ID, &s.Filename, &s.ContentType, &s.Size, &s.Hash, &s.LastStep,
			&s.Cleaned, &s.RoundCount, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveCleaned stores the canonical text of a document and moves it to the
// clean step.
func (db *DB) SaveCleaned(ctx context.Context, id, cleaned string) (*models.Document, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE documents SET cleaned_content = ?, last_step = ?, updated_at = ?
		WHERE id = ?
	`, cleaned, models.StepClean, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("store: save cleaned: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return db.GetDocument(ctx, id)
}

// UpdateStep records the last workflow step reached by a document.
func (db *DB) UpdateStep(ctx context.Context, id string, step models.Step) (*models.Document, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE documents SET last_step = ?, updated_at = ? WHERE id = ?
	`, step, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("store: update step: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return db.GetDocument(ctx, id)
}

// DeleteDocument removes a document. Its rounds and chapters go with it
// through the foreign key cascade.
func (db *DB) DeleteDocument(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := ftsDeleteDocument(ctx, tx, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

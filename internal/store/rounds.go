package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/roundup/internal/models"
)

const roundColumns = `id, document_id, round_number, start_line, end_line, line_count, character_count, content, created_at, updated_at`

// SearchResult represents one round search hit.
type SearchResult struct {
	RoundID     string `json:"round_id"`
	DocumentID  string `json:"document_id"`
	RoundNumber int    `json:"round_number"`
	Snippet     string `json:"snippet"`
}

func scanRound(row rowScanner) (*models.Round, error) {
	var r models.Round
	if err := row.Scan(&r.ID, &r.DocumentID, &r.RoundNumber, &r.StartLine, &r.EndLine,
		&r.LineCount, &r.CharacterCount, &r.Content, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReplaceRounds deletes every round of documentID and inserts rounds within a
// single transaction. Chapters referencing the old rounds are removed by the
// foreign key cascade. The committed rows are returned with fresh ids.
func (db *DB) ReplaceRounds(ctx context.Context, documentID string, rounds []models.Round) ([]models.Round, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, documentID).Scan(&exists); err != nil {
		return nil, notFound(err)
	}

	if err := ftsDeleteDocument(ctx, tx, documentID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE document_id = ?`, documentID); err != nil {
		return nil, fmt.Errorf("store: delete rounds: %w", err)
	}

	out := make([]models.Round, 0, len(rounds))
	if len(rounds) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO rounds (`+roundColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return nil, fmt.Errorf("store: prepare round insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, r := range rounds {
			r.ID = uuid.NewString()
			r.DocumentID = documentID
			r.CreatedAt = now
			r.UpdatedAt = now
			if _, err := stmt.ExecContext(ctx, r.ID, r.DocumentID, r.RoundNumber, r.StartLine, r.EndLine,
				r.LineCount, r.CharacterCount, r.Content, r.CreatedAt, r.UpdatedAt); err != nil {
				return nil, fmt.Errorf("store: insert round %d: %w", r.RoundNumber, err)
			}
			if err := ftsUpsertRound(ctx, tx, r); err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit rounds: %w", err)
	}
	return out, nil
}

// ListRounds returns the rounds of documentID ordered by round number.
func (db *DB) ListRounds(ctx context.Context, documentID string) ([]models.Round, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE document_id = ?
		ORDER BY round_number ASC, start_line ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("store: list rounds: %w", err)
	}
	defer rows.Close()

	out := make([]models.Round, 0)
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRound returns the round with id.
func (db *DB) GetRound(ctx context.Context, id string) (*models.Round, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = ?`, id)
	r, err := scanRound(row)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

// UpdateRound overwrites the number and content of a round. Line bounds and
// counts are left as parsed.
func (db *DB) UpdateRound(ctx context.Context, roundID string, roundNumber int, content string) (*models.Round, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		UPDATE rounds SET round_number = ?, content = ?, updated_at = ? WHERE id = ?
	`, roundNumber, content, time.Now().UTC(), roundID)
	if err != nil {
		return nil, fmt.Errorf("store: update round: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	r, err := scanRound(tx.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = ?`, roundID))
	if err != nil {
		return nil, notFound(err)
	}
	if err := ftsUpsertRound(ctx, tx, *r); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit round: %w", err)
	}
	return r, nil
}

// CreateChapter inserts a chapter grouping under a round.
func (db *DB) CreateChapter(ctx context.Context, ch *models.Chapter) error {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO chapters (id, document_id, round_id, chapter_number, title, content)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ch.ID, ch.DocumentID, ch.RoundID, ch.ChapterNumber, ch.Title, ch.Content)
	if err != nil {
		return fmt.Errorf("store: create chapter: %w", err)
	}
	return nil
}

// ListChapters returns the chapters of a document ordered by number.
func (db *DB) ListChapters(ctx context.Context, documentID string) ([]models.Chapter, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, document_id, round_id, chapter_number, title, content
		FROM chapters WHERE document_id = ? ORDER BY chapter_number
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("store: list chapters: %w", err)
	}
	defer rows.Close()

	var out []models.Chapter
	for rows.Next() {
		var c models.Chapter
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.RoundID, &c.ChapterNumber, &c.Title, &c.Content); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

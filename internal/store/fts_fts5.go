//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/roundup/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS rounds_fts USING fts5(
			round_id UNINDEXED,
			document_id UNINDEXED,
			round_number UNINDEXED,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsertRound(ctx context.Context, tx *sql.Tx, r models.Round) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds_fts WHERE round_id = ?`, r.ID); err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO rounds_fts (round_id, document_id, round_number, content) VALUES (?, ?, ?, ?)`,
		r.ID, r.DocumentID, r.RoundNumber, r.Content)
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteDocument(ctx context.Context, tx *sql.Tx, documentID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds_fts WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("store: delete fts: %w", err)
	}
	return nil
}

// SearchRounds performs an FTS5 full-text search over round content.
func (db *DB) SearchRounds(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT round_id, document_id, round_number,
		       snippet(rounds_fts, 3, '<b>', '</b>', '...', 64)
		FROM rounds_fts
		WHERE rounds_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	out := make([]SearchResult, 0)
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.RoundID, &r.DocumentID, &r.RoundNumber, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

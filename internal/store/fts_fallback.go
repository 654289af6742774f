//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/roundup/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; round search uses LIKE on rounds.content.
	return nil
}

func ftsUpsertRound(_ context.Context, _ *sql.Tx, _ models.Round) error { return nil }

func ftsDeleteDocument(_ context.Context, _ *sql.Tx, _ string) error { return nil }

// likeEscaper makes LIKE treat wildcard characters in a query literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchRounds performs a LIKE-based search over round content.
func (db *DB) SearchRounds(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, document_id, round_number, substr(content, 1, 200)
		FROM rounds
		WHERE content LIKE ? ESCAPE '\'
		ORDER BY document_id, round_number
		LIMIT ?
	`, like, limit)
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

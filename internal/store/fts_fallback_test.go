//go:build !sqlite_fts5

package store

import (
	"context"
	"testing"
)

func TestSearchRounds_WildcardsAreLiteral(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedDocument(t, db, "d1", "h1")
	rounds := sampleRounds(3)
	rounds[0].Content = "<user>\nroll 100% on it\n</user>\n<dungeon_master>\nok\n</dungeon_master>"
	rounds[1].Content = "<user>\nsnake_case name\n</user>\n<dungeon_master>\nok\n</dungeon_master>"
	rounds[2].Content = "<user>\npath C:\\temp\n</user>\n<dungeon_master>\nok\n</dungeon_master>"
	if _, err := db.ReplaceRounds(ctx, "d1", rounds); err != nil {
		t.Fatal(err)
	}

	cases := map[string]int{
		"%":       1,
		"100%":    1,
		"_case":   1,
		"e_c":     1,
		"snake%":  0,
		"a_e":     0,
		`C:\temp`: 1,
		`\`:       1,
	}
	for query, want := range cases {
		results, err := db.SearchRounds(ctx, query, 10)
		if err != nil {
			t.Fatalf("SearchRounds(%q): %v", query, err)
		}
		if len(results) != want {
			t.Errorf("SearchRounds(%q) = %d results, want %d", query, len(results), want)
		}
	}
}

// Package testutil provides shared test helpers for setting up databases,
// workflow services and inbox directories.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/roundup/internal/store"
	"github.com/starford/roundup/internal/workflow"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "roundup-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestService creates a workflow service over a temporary database.
func TestService(t *testing.T, opts ...workflow.Option) (*workflow.Service, *store.DB) {
	t.Helper()
	db := TestDB(t)
	return workflow.NewService(db, opts...), db
}

// WriteFile writes content to path, failing the test on error.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

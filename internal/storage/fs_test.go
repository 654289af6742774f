package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func tempInbox(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func put(t *testing.T, s *FS, rel, content string) {
	t.Helper()
	abs := filepath.Join(s.Root(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRead(t *testing.T) {
	s := tempInbox(t)
	put(t, s, "chat.txt", "You said:\nhi\n")

	got, err := s.Read("chat.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "You said:\nhi\n" {
		t.Errorf("got %q", got)
	}
}

func TestRead_Missing(t *testing.T) {
	s := tempInbox(t)
	_, err := s.Read("nope.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestList(t *testing.T) {
	s := tempInbox(t)
	put(t, s, "a.txt", "a")
	put(t, s, "b.md", "b")
	put(t, s, "sub/c.json", "{}")
	put(t, s, "image.png", "not a log")
	put(t, s, ".hidden/d.txt", "skipped")
	put(t, s, "processed/e.txt", "skipped")

	files, err := s.List("", func(rel string) bool {
		return rel == "processed" || strings.HasPrefix(rel, "processed/")
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := map[string]bool{}
	for _, f := range files {
		got[f.Path] = true
	}
	want := []string{"a.txt", "b.md", "sub/c.json"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for _, p := range want {
		if !got[p] {
			t.Errorf("missing %s", p)
		}
	}
}

func TestList_OldestFirst(t *testing.T) {
	s := tempInbox(t)
	put(t, s, "new.txt", "n")
	put(t, s, "old.txt", "o")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(s.Root(), "old.txt"), past, past); err != nil {
		t.Fatal(err)
	}

	files, err := s.List("", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 || files[0].Path != "old.txt" {
		t.Errorf("unexpected order: %+v", files)
	}
}

func TestArchive(t *testing.T) {
	s := tempInbox(t)
	put(t, s, "sub/chat.txt", "data")

	got, err := s.Archive("sub/chat.txt", "processed")
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if got != "processed/sub/chat.txt" {
		t.Errorf("archived to %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "sub", "chat.txt")); !os.IsNotExist(err) {
		t.Error("source should be gone")
	}
	data, _ := s.Read(got)
	if string(data) != "data" {
		t.Errorf("archived content = %q", data)
	}
}

func TestArchive_DoesNotOverwrite(t *testing.T) {
	s := tempInbox(t)
	put(t, s, "processed/chat.txt", "first")
	put(t, s, "processed/chat-1.txt", "second")
	put(t, s, "chat.txt", "third")

	got, err := s.Archive("chat.txt", "processed")
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if got != "processed/chat-2.txt" {
		t.Errorf("archived to %q", got)
	}
	first, _ := s.Read("processed/chat.txt")
	if string(first) != "first" {
		t.Errorf("existing file replaced: %q", first)
	}
}

func TestRel(t *testing.T) {
	s := tempInbox(t)
	rel, err := s.Rel(filepath.Join(s.Root(), "a", "b.txt"))
	if err != nil || rel != "a/b.txt" {
		t.Errorf("Rel = %q, %v", rel, err)
	}
	if _, err := s.Rel(filepath.Dir(s.Root())); err == nil {
		t.Error("expected error for path outside root")
	}
}

func TestSupported(t *testing.T) {
	cases := map[string]bool{
		"chat.txt":      true,
		"chat.MD":       true,
		"chat.markdown": true,
		"export.json":   true,
		"photo.png":     false,
		".roundup-tmp":  false,
		".secret.txt":   false,
	}
	for name, want := range cases {
		if got := Supported(name); got != want {
			t.Errorf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempInbox(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.txt",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if _, err := s.Archive(p, "processed"); err == nil {
			t.Errorf("expected error archiving %q", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "roundup-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

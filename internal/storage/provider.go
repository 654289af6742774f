// Package storage defines the inbox file-system abstraction.
package storage

import "time"

// FileInfo describes one chat-log file found under the root.
type FileInfo struct {
	Path      string // relative to root, slash separated
	Size      int64
	UpdatedAt time.Time
}

// SkipFunc reports whether a root-relative, slash-separated path should be
// left out of a listing. Returning true for a directory prunes it.
type SkipFunc func(rel string) bool

// Provider is the interface for inbox file operations.
type Provider interface {
	// List returns every chat-log file under dir, oldest first.
	List(dir string, skip SkipFunc) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Archive moves path under dir, keeping its relative layout, and
	// returns the new relative path. Existing files are never replaced.
	Archive(path, dir string) (string, error)
}

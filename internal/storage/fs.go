package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// maxArchiveAttempts bounds the suffix search in Archive.
const maxArchiveAttempts = 1000

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the inbox directory
}

var _ Provider = (*FS)(nil)

// Supported reports whether name has a chat-log extension. Hidden files
// never qualify.
func Supported(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown", ".json":
		return true
	}
	return false
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string {
	return f.root
}

// Rel converts an absolute path under the root into the slash-separated
// form used by Provider.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return "", fmt.Errorf("storage: rel %s: %w", abs, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path outside root: %s", abs)
	}
	return filepath.ToSlash(rel), nil
}

// safePath resolves a relative path against the root and rejects
// any result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return abs, nil
}

// List walks dir (relative to root) and returns every chat-log file, sorted
// by modification time and then path. Hidden directories are pruned, as is
// anything skip rejects.
func (f *FS) List(dir string, skip SkipFunc) ([]FileInfo, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0)
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Files can vanish between the directory read and the stat.
			if errors.Is(walkErr, fs.ErrNotExist) && p != base {
				return nil
			}
			return walkErr
		}
		if p == base {
			return nil
		}
		rel, err := f.Rel(p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || (skip != nil && skip(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !Supported(d.Name()) || (skip != nil && skip(rel)) {
			return nil
		}
		info, err := d.Info()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		out = append(out, FileInfo{
			Path:      rel,
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// Read returns the raw bytes of a file under the root.
func (f *FS) Read(rel string) ([]byte, error) {
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// Archive moves rel to dir/rel. When that name is taken a numeric suffix is
// added before the extension: chat.txt, chat-1.txt, chat-2.txt.
func (f *FS) Archive(rel, dir string) (string, error) {
	absOld, err := f.safePath(rel)
	if err != nil {
		return "", err
	}
	target := path.Join(dir, rel)
	absNew, err := f.safePath(target)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir for archive: %w", err)
	}

	ext := path.Ext(target)
	stem := strings.TrimSuffix(target, ext)
	for i := 1; ; i++ {
		if _, err := os.Lstat(absNew); errors.Is(err, fs.ErrNotExist) {
			break
		} else if err != nil {
			return "", fmt.Errorf("storage: stat %s: %w", target, err)
		}
		if i > maxArchiveAttempts {
			return "", fmt.Errorf("storage: archive %s: no free name", rel)
		}
		target = fmt.Sprintf("%s-%d%s", stem, i, ext)
		if absNew, err = f.safePath(target); err != nil {
			return "", err
		}
	}

	if err := os.Rename(absOld, absNew); err != nil {
		return "", fmt.Errorf("storage: archive %s: %w", rel, err)
	}
	return target, nil
}

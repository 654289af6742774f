package inbox

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/roundup/internal/storage"
)

// settleDelay is how long a file must stay quiet before it is ingested.
const settleDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the inbox and ingests files as they
// appear until ctx is cancelled. Writes are debounced so a file that is
// still being copied in is read once it has settled.
//
// New directories created at runtime are added to the watch list and the
// files already inside them are ingested.
func (in *Inbox) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := in.fs.Root()
	if err := in.addDirsRecursive(w, root); err != nil {
		return err
	}

	in.logger.Info("inbox: watching", slog.String("root", root))

	pending := make(map[string]struct{})
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	schedule := func(rel string) {
		pending[rel] = struct{}{}
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			in.logger.Info("inbox: stopped")
			return nil

		case <-settleCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			sort.Strings(paths)
			for _, rel := range paths {
				if _, err := in.ingest(ctx, rel); err != nil && !errors.Is(err, fs.ErrNotExist) {
					in.logger.Warn("inbox: ingest failed", slog.String("path", rel), slog.String("error", err.Error()))
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
					if in.skipDir(abs) {
						continue
					}
					if addErr := in.addDirsRecursive(w, abs); addErr != nil {
						in.logger.Warn("inbox: add new dir failed",
							slog.String("path", abs),
							slog.String("error", addErr.Error()))
					}
					if rel, ok := in.relative(abs); ok {
						files, listErr := in.fs.List(rel, in.isProcessed)
						if listErr != nil {
							in.logger.Warn("inbox: list new dir failed",
								slog.String("path", rel),
								slog.String("error", listErr.Error()))
						}
						for _, f := range files {
							schedule(f.Path)
						}
					}
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !storage.Supported(abs) {
				continue
			}
			if rel, ok := in.relative(abs); ok {
				schedule(rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// relative maps an absolute path to an inbox path, rejecting anything under
// the processed directory.
func (in *Inbox) relative(abs string) (string, bool) {
	rel, err := in.fs.Rel(abs)
	if err != nil || in.isProcessed(rel) {
		return "", false
	}
	return rel, true
}

func (in *Inbox) skipDir(abs string) bool {
	if strings.HasPrefix(filepath.Base(abs), ".") {
		return true
	}
	_, ok := in.relative(abs)
	return !ok
}

// addDirsRecursive adds root and its subdirectories, except the processed
// and hidden ones, to the watcher.
func (in *Inbox) addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != in.fs.Root() && in.skipDir(p) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

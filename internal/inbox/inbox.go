// Package inbox ingests chat logs dropped into a watched directory.
//
// Every supported file found in the inbox is uploaded through the workflow
// and then moved into the processed sub-directory, so a file is ingested at
// most once per appearance. Files the workflow rejects stay where they are.
package inbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/roundup/internal/models"
	"github.com/starford/roundup/internal/storage"
	"github.com/starford/roundup/internal/workflow"
)

// DefaultProcessedDir is the sub-directory ingested files are moved into.
const DefaultProcessedDir = "processed"

// Workflow is the part of the document workflow the inbox drives.
type Workflow interface {
	Upload(ctx context.Context, filename string, content []byte, contentType string) (*models.Document, bool, error)
	Clean(ctx context.Context, id string) (*models.Document, error)
	ParseRounds(ctx context.Context, id string) (*workflow.ParseResult, error)
}

// Result describes one ingested file.
type Result struct {
	Path       string
	Archived   string
	DocumentID string
	Created    bool
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithProcessedDir sets the directory (relative to the inbox root) that
// ingested files are moved into.
func WithProcessedDir(dir string) Option {
	return func(in *Inbox) {
		if dir != "" {
			in.processedDir = filepath.ToSlash(filepath.Clean(dir))
		}
	}
}

// WithAutoProcess cleans and parses every newly created document.
func WithAutoProcess(enabled bool) Option {
	return func(in *Inbox) { in.autoProcess = enabled }
}

// WithLogger sets the inbox logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Inbox) { in.logger = l }
}

// Inbox watches a directory for chat logs.
type Inbox struct {
	fs           *storage.FS
	wf           Workflow
	processedDir string
	autoProcess  bool
	logger       *slog.Logger
}

// New creates an Inbox rooted at root, creating the directory tree if needed.
func New(root string, wf Workflow, opts ...Option) (*Inbox, error) {
	in := &Inbox{
		wf:           wf,
		processedDir: DefaultProcessedDir,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(in)
	}

	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(in.processedDir)), 0o755); err != nil {
		return nil, fmt.Errorf("inbox: create dirs: %w", err)
	}
	fs, err := storage.NewFS(root)
	if err != nil {
		return nil, err
	}
	in.fs = fs
	return in, nil
}

// Root returns the absolute inbox directory.
func (in *Inbox) Root() string {
	return in.fs.Root()
}

// Sync ingests every pending file currently in the inbox.
func (in *Inbox) Sync(ctx context.Context) ([]Result, error) {
	files, err := in.fs.List("", in.isProcessed)
	if err != nil {
		return nil, err
	}

	var out []Result
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := in.ingest(ctx, f.Path)
		if err != nil {
			in.logger.Warn("inbox: ingest failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (in *Inbox) isProcessed(rel string) bool {
	return rel == in.processedDir || strings.HasPrefix(rel, in.processedDir+"/")
}

// ingest uploads rel and archives it. Auto-processing failures are logged
// and do not undo the upload.
func (in *Inbox) ingest(ctx context.Context, rel string) (Result, error) {
	data, err := in.fs.Read(rel)
	if err != nil {
		return Result{}, err
	}
	doc, created, err := in.wf.Upload(ctx, path.Base(rel), data, "")
	if err != nil {
		return Result{}, err
	}
	archived, err := in.fs.Archive(rel, in.processedDir)
	if err != nil {
		return Result{}, fmt.Errorf("inbox: archive %s: %w", rel, err)
	}
	in.logger.Info("inbox: ingested",
		slog.String("path", rel),
		slog.String("archived", archived),
		slog.String("document_id", doc.ID),
		slog.Bool("created", created))

	if created && in.autoProcess {
		in.process(ctx, doc.ID)
	}
	return Result{Path: rel, Archived: archived, DocumentID: doc.ID, Created: created}, nil
}

func (in *Inbox) process(ctx context.Context, id string) {
	if _, err := in.wf.Clean(ctx, id); err != nil {
		in.logger.Warn("inbox: clean failed", slog.String("document_id", id), slog.String("error", err.Error()))
		return
	}
	res, err := in.wf.ParseRounds(ctx, id)
	if err != nil {
		in.logger.Warn("inbox: parse failed", slog.String("document_id", id), slog.String("error", err.Error()))
		return
	}
	in.logger.Debug("inbox: processed", slog.String("document_id", id), slog.Int("rounds", res.RoundCount))
}

// Package workflow coordinates the upload → clean → rounds steps of a
// document on top of the store, the normalizer and the round parser.
package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/roundup/internal/apperr"
	"github.com/starford/roundup/internal/models"
	"github.com/starford/roundup/internal/normalize"
	"github.com/starford/roundup/internal/rounds"
	"github.com/starford/roundup/internal/store"
)

// Event kinds passed to an EventFunc.
const (
	EventUploaded = "uploaded"
	EventCleaned  = "cleaned"
	EventParsed   = "parsed"
	EventDeleted  = "deleted"
)

// DefaultMaxBytes bounds uploaded content when no limit is configured.
const DefaultMaxBytes int64 = 10 << 20

// EventFunc is called after a successful document mutation.
type EventFunc func(kind, documentID string)

// Recorder receives workflow measurements. *metrics.Metrics implements it.
type Recorder interface {
	DocumentUploaded(created bool)
	DocumentCleaned()
	RoundsParsed(strategy string, rounds int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) DocumentUploaded(bool) {}
func (nopRecorder) DocumentCleaned() {}
func (nopRecorder) RoundsParsed(string, int, time.Duration) {}

// ParseResult is returned by ParseRounds.
type ParseResult struct {
	Rounds               []models.Round  `json:"rounds"`
	RoundCount           int             `json:"round_count"`
	AverageLinesPerRound float64         `json:"average_lines_per_round"`
	Strategy             rounds.Strategy `json:"strategy"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEvents registers a callback for document mutations.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) { s.events = fn }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRules sets the normalization rules used by Clean.
func WithRules(r normalize.Rules) Option {
	return func(s *Service) { s.rules = r }
}

// WithParser sets the round parser used by ParseRounds.
func WithParser(p *rounds.Parser) Option {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithMaxBytes limits the size of uploaded content. Values <= 0 are ignored.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// Service implements the document workflow.
type Service struct {
	store    store.Store
	logger   *slog.Logger
	events   EventFunc
	recorder Recorder
	rules    normalize.Rules
	parser   *rounds.Parser
	maxBytes int64
}

// NewService creates a workflow service over st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: nopRecorder{},
		rules:    normalize.DefaultRules(),
		parser:   rounds.New(),
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the normalization rules in effect.
func (s *Service) Rules() normalize.Rules {
	return s.rules
}

// Upload stores content as a new document. Content whose hash is already
// stored returns the existing document with created set to false.
func (s *Service) Upload(ctx context.Context, filename string, content []byte, contentType string) (*models.Document, bool, error) {
	filename = strings.TrimSpace(filename)
	if err := validation.Validate(filename, validation.Required); err != nil {
		return nil, false, fmt.Errorf("workflow: filename: %v: %w", err, apperr.ErrInvalidInput)
	}
	if len(content) == 0 {
		return nil, false, fmt.Errorf("workflow: empty content: %w", apperr.ErrInvalidInput)
	}
	if int64(len(content)) > s.maxBytes {
		return nil, false, fmt.Errorf("workflow: content exceeds %d bytes: %w", s.maxBytes, apperr.ErrInvalidInput)
	}

	hash := ContentHash(content)
	existing, err := s.store.FindByHash(ctx, hash)
	switch {
	case err == nil:
		s.recorder.DocumentUploaded(false)
		s.logger.Debug("workflow: duplicate upload", slog.String("id", existing.ID), slog.String("filename", filename))
		return existing, false, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, false, err
	}

	doc := &models.Document{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: DetectContentType(filename, contentType),
		Size:        int64(len(content)),
		Hash:        hash,
		Content:     string(content),
		LastStep:    models.StepUpload,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			// Lost a race against a concurrent upload of the same bytes.
			existing, findErr := s.store.FindByHash(ctx, hash)
			if findErr != nil {
				return nil, false, findErr
			}
			s.recorder.DocumentUploaded(false)
			return existing, false, nil
		}
		return nil, false, err
	}

	s.recorder.DocumentUploaded(true)
	s.logger.Info("workflow: document uploaded",
		slog.String("id", doc.ID),
		slog.String("filename", doc.Filename),
		slog.Int64("size", doc.Size))
	s.emit(EventUploaded, doc.ID)
	return doc, true, nil
}

// GetDocument returns a document by id.
func (s *Service) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// ListDocuments returns all documents, most recently updated first.
func (s *Service) ListDocuments(ctx context.Context) ([]models.DocumentSummary, error) {
	return s.store.ListDocuments(ctx)
}

// DeleteDocument removes a document together with its rounds and chapters.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.logger.Info("workflow: document deleted", slog.String("id", id))
	s.emit(EventDeleted, id)
	return nil
}

// Clean normalizes the raw content of a document and stores the canonical
// text. Markdown front matter is dropped first.
func (s *Service) Clean(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	raw := doc.Content
	if doc.ContentType == models.ContentTypeMarkdown {
		raw, _ = normalize.StripFrontMatter([]byte(raw))
	}
	doc, err = s.store.SaveCleaned(ctx, id, s.rules.Apply(raw))
	if err != nil {
		return nil, err
	}
	s.recorder.DocumentCleaned()
	s.logger.Info("workflow: document cleaned", slog.String("id", id))
	s.emit(EventCleaned, id)
	return doc, nil
}

// SaveCleaned stores hand-edited canonical text for a document.
func (s *Service) SaveCleaned(ctx context.Context, id, content string) (*models.Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("workflow: cleaned content is empty: %w", apperr.ErrInvalidInput)
	}
	doc, err := s.store.SaveCleaned(ctx, id, content)
	if err != nil {
		return nil, err
	}
	s.emit(EventCleaned, id)
	return doc, nil
}

// UpdateStep records the workflow step a document has reached.
func (s *Service) UpdateStep(ctx context.Context, id string, step models.Step) (*models.Document, error) {
	if err := validation.Validate(int(step),
		validation.Required,
		validation.Min(int(models.StepUpload)),
		validation.Max(int(models.StepChapters)),
	); err != nil {
		return nil, fmt.Errorf("workflow: step: %v: %w", err, apperr.ErrInvalidInput)
	}
	return s.store.UpdateStep(ctx, id, step)
}

// ParseRounds segments the cleaned content of a document into rounds and
// replaces any previously stored rounds. A document that was never cleaned
// yields apperr.ErrPrecondition.
func (s *Service) ParseRounds(ctx context.Context, id string) (*ParseResult, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.HasCleanedContent() {
		return nil, fmt.Errorf("workflow: parse rounds %s: no cleaned content: %w", id, apperr.ErrPrecondition)
	}

	start := time.Now()
	res := s.parser.Parse(doc.CleanedContent)
	committed, err := s.store.ReplaceRounds(ctx, id, res.Rounds)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateStep(ctx, id, models.StepRounds); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	out := NewParseResult(committed, res.Strategy)
	s.recorder.RoundsParsed(string(res.Strategy), out.RoundCount, elapsed)
	s.logger.Info("workflow: rounds parsed",
		slog.String("id", id),
		slog.Int("rounds", out.RoundCount),
		slog.String("strategy", string(res.Strategy)))
	s.emit(EventParsed, id)
	return out, nil
}

// NewParseResult summarizes a set of rounds.
func NewParseResult(list []models.Round, strategy rounds.Strategy) *ParseResult {
	out := &ParseResult{
		Rounds:     list,
		RoundCount: len(list),
		Strategy:   strategy,
	}
	if len(list) > 0 {
		total := 0
		for _, r := range list {
			total += r.LineCount
		}
		out.AverageLinesPerRound = float64(total) / float64(len(list))
	}
	return out
}

// ListRounds returns the stored rounds of a document.
func (s *Service) ListRounds(ctx context.Context, documentID string) ([]models.Round, error) {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.ListRounds(ctx, documentID)
}

// UpdateRound edits the number and content of a single round.
func (s *Service) UpdateRound(ctx context.Context, roundID string, roundNumber int, content string) (*models.Round, error) {
	if err := validation.Validate(roundNumber, validation.Required, validation.Min(1)); err != nil {
		return nil, fmt.Errorf("workflow: round number: %v: %w", err, apperr.ErrInvalidInput)
	}
	return s.store.UpdateRound(ctx, roundID, roundNumber, content)
}

// SearchRounds searches round content across all documents.
func (s *Service) SearchRounds(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("workflow: empty query: %w", apperr.ErrInvalidInput)
	}
	return s.store.SearchRounds(ctx, query, limit)
}

func (s *Service) emit(kind, id string) {
	if s.events != nil {
		s.events(kind, id)
	}
}

// ContentHash returns the hex SHA-256 digest used to deduplicate uploads.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// DetectContentType resolves the stored content type of an upload. A
// recognised declared type wins; otherwise the file extension decides.
func DetectContentType(filename, declared string) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		switch mt {
		case models.ContentTypePlain, models.ContentTypeJSON, models.ContentTypeMarkdown:
			return mt
		}
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return models.ContentTypeJSON
	case ".md", ".markdown":
		return models.ContentTypeMarkdown
	}
	return models.ContentTypePlain
}

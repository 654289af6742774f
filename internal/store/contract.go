package store

import (
	"context"

	"github.com/starford/roundup/internal/models"
)

// RoundStore is the persistence contract the round parser writes through.
// Consumers should depend on this interface rather than the concrete *DB type.
type RoundStore interface {
	// ReplaceRounds atomically deletes every round of documentID (and the
	// chapters referencing them) and inserts rounds in their given order.
	ReplaceRounds(ctx context.Context, documentID string, rounds []models.Round) ([]models.Round, error)
	// ListRounds returns the rounds of documentID ordered by round number.
	ListRounds(ctx context.Context, documentID string) ([]models.Round, error)
	// UpdateRound overwrites the number and content of one round without
	// re-validating ordering across the document.
	UpdateRound(ctx context.Context, roundID string, roundNumber int, content string) (*models.Round, error)
	SearchRounds(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// DocumentStore persists uploaded documents and their workflow state.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	FindByHash(ctx context.Context, hash string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]models.DocumentSummary, error)
	SaveCleaned(ctx context.Context, id, cleaned string) (*models.Document, error)
	UpdateStep(ctx context.Context, id string, step models.Step) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the workflow service.
type Store interface {
	DocumentStore
	RoundStore
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

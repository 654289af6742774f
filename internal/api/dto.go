package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/roundup/internal/models"
	"github.com/starford/roundup/internal/store"
)

// CreateDocumentRequest is the JSON body for uploading a chat log as text.
type CreateDocumentRequest struct {
	Filename    string `json:"filename" example:"session-01.txt"`
	Content     string `json:"content" example:"You said:\nHello\nChatGPT said:\nHi"`
	ContentType string `json:"content_type,omitempty" example:"text/plain"`
}

// Validate implements validation.Validatable.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filename, validation.Required),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.ContentType, validation.In(
			models.ContentTypePlain, models.ContentTypeJSON, models.ContentTypeMarkdown,
		)),
	)
}

// UploadResponse is returned by both upload routes. Created is false when the
// content hash matched an existing document.
type UploadResponse struct {
	Document *models.Document `json:"document"`
	Created  bool             `json:"created"`
}

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []models.DocumentSummary `json:"documents"`
}

// SaveCleanedRequest replaces the canonical text of a document.
type SaveCleanedRequest struct {
	Content string `json:"content"`
}

// Validate implements validation.Validatable.
func (r SaveCleanedRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
	)
}

// UpdateStepRequest moves a document to another workflow step.
type UpdateStepRequest struct {
	Step int `json:"step" example:"4"`
}

// Validate implements validation.Validatable.
func (r UpdateStepRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Step, validation.Required,
			validation.Min(int(models.StepUpload)), validation.Max(int(models.StepChapters))),
	)
}

// UpdateRoundRequest edits one round.
type UpdateRoundRequest struct {
	RoundNumber int    `json:"round_number" example:"2"`
	Content     string `json:"content"`
}

// Validate implements validation.Validatable.
func (r UpdateRoundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RoundNumber, validation.Required, validation.Min(1)),
	)
}

// RoundListResponse wraps the rounds of a document.
type RoundListResponse struct {
	Rounds []models.Round `json:"rounds"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results"`
}

// NormalizeRequest previews the normalizer without storing anything. Empty
// markers fall back to the configured ones.
type NormalizeRequest struct {
	Content         string `json:"content"`
	UserMarker      string `json:"user_marker,omitempty"`
	AssistantMarker string `json:"assistant_marker,omitempty"`
}

// NormalizeResponse carries the canonical text.
type NormalizeResponse struct {
	Content string `json:"content"`
}

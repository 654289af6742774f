// Package models defines the domain types for roundup.
package models

import "time"

// Content types accepted for uploaded chat logs.
const (
	ContentTypePlain    = "text/plain"
	ContentTypeJSON     = "application/json"
	ContentTypeMarkdown = "text/markdown"
)

// Step is a position in the upload → clean → rounds → chapters workflow.
type Step int

// Workflow steps, in order.
const (
	StepUpload   Step = 1
	StepClean    Step = 2
	StepRounds   Step = 3
	StepChapters Step = 4
)

// String returns the step name.
func (s Step) String() string {
	switch s {
	case StepUpload:
		return "UPLOAD"
	case StepClean:
		return "CLEAN"
	case StepRounds:
		return "ROUNDS"
	case StepChapters:
		return "CHAPTERS"
	}
	return "UNKNOWN"
}

// Document is one uploaded chat log. Content is never mutated after upload;
// CleanedContent holds the canonical text once the normalizer has run.
type Document struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size"`
	Hash           string    `json:"hash"`
	Content        string    `json:"content"`
	CleanedContent string    `json:"cleaned_content,omitempty"`
	LastStep       Step      `json:"last_step"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasCleanedContent reports whether the document has canonical text to parse.
func (d *Document) HasCleanedContent() bool {
	return d.CleanedContent != ""
}

// DocumentSummary is a lightweight representation returned by list operations.
type DocumentSummary struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	LastStep    Step      `json:"last_step"`
	Cleaned     bool      `json:"cleaned"`
	RoundCount  int       `json:"round_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

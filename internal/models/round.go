package models

import "time"

// Round is one bounded user/assistant exchange extracted from canonical text.
// Line indexes are 0-based and EndLine is inclusive.
type Round struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	RoundNumber    int       `json:"round_number"`
	StartLine      int       `json:"start_line"`
	EndLine        int       `json:"end_line"`
	LineCount      int       `json:"line_count"`
	CharacterCount int       `json:"character_count"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Chapter groups rounds. Only persisted so that round replacement cascades to it.
type Chapter struct {
	ID            string `json:"id"`
	DocumentID    string `json:"document_id"`
	RoundID       string `json:"round_id"`
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	Content       string `json:"content"`
}

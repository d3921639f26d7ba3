package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionResult is the full output of one document assembly pass.
// An empty Items slice is a valid outcome, not an error.
type ExtractionResult struct {
	DocumentID  string          `json:"document_id,omitempty"`
	SourcePath  string          `json:"source_path"`
	Pages       int             `json:"pages"`
	FailedPages int             `json:"failed_pages"`
	Sections    int             `json:"sections"`
	Items       []ExtractedItem `json:"items"`
	NeedsReview bool            `json:"needs_review"`
	Duration    time.Duration   `json:"duration"`
}

// Empty reports whether nothing usable was extracted.
func (r *ExtractionResult) Empty() bool {
	return r == nil || len(r.Items) == 0
}

// Document represents a stored extraction for data transfer between layers.
type Document struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	SourcePath   string     `json:"source_path"`
	ContentHash  string     `json:"content_hash"`
	Pages        int        `json:"pages"`
	ItemCount    int        `json:"item_count"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	NeedsReview  bool       `json:"needs_review"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

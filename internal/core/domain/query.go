package domain

// DefaultTopK is the number of passages retrieved per question.
const DefaultTopK = 5

// Passage is a chunk returned by retrieval, with its relevance score.
type Passage struct {
	Chunk Chunk

	// Score is the adapter's relevance score. Higher is better.
	Score float64
}

// Answer is a synthesized answer with the passages it was grounded on.
type Answer struct {
	Question string
	Answer   string
	Sources  []Passage
}

// GenerateRequest is what the generator receives for one question.
type GenerateRequest struct {
	Question string
	Passages []Passage

	// NoContext signals that retrieval found nothing. The generator must
	// not fabricate sources.
	NoContext bool
}

// DeleteStatus is the per-id outcome of a document deletion.
type DeleteStatus string

// Deletion statuses.
const (
	DeleteStatusDeleted  DeleteStatus = "deleted"
	DeleteStatusNotFound DeleteStatus = "not_found"
	DeleteStatusFailed   DeleteStatus = "failed"
)

// DeleteResult reports the outcome for one chunk id.
type DeleteResult struct {
	ID     string       `json:"id"`
	Status DeleteStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

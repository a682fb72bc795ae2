package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown normaliser or provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConflict marks changed content that needs confirmation before overwrite.
	// It is a decision point for the caller, not a failure.
	ErrConflict = errors.New("confirmation required")

	// ErrStoreUnavailable indicates a document store call failed or timed out.
	// The failed item can be retried.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrGenerationUnavailable indicates the answer generator failed or is not configured.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrGenerationTimeout indicates the generator did not answer within its bound.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrPartialFailure indicates a batch where some items succeeded and some did not.
	// Per-item results carry the details.
	ErrPartialFailure = errors.New("partial failure")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Stores fall back to keyword ranking without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

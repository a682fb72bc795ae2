// Package domain defines the core business entities for ragbox.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Collection: A named namespace of indexed content
//   - Chunk: One retrievable unit of text derived from an uploaded file
//   - UploadFile: A file submitted for ingestion
//   - Passage: A chunk returned by retrieval for a question
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

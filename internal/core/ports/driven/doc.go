// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Chunk persistence and retrieval, one namespace per collection handle
//   - CollectionStore: Durable collection name to handle registry
//   - PendingStore: Staged uploads awaiting overwrite confirmation
//   - Normaliser: Transforms raw uploads into plain text
//   - NormaliserRegistry: Selects appropriate normaliser
//   - PostProcessorPipeline: Splits normalised text into chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Generator: Answer synthesis. Without it, queries return passages with ErrGenerationUnavailable.
//   - EmbeddingService: Generates vector embeddings. Without it, stores rank by keyword overlap.
//   - LLMService: Language model backing the Generator.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven

// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the revision pipeline to function:
//
//   - VersionStore: Chapter and version persistence with lineage
//   - ContentAcquirer: Supplies raw chapter text
//   - Generator: Spins or revises chapter text
//   - DecisionGate: Accepts, edits or rejects a version
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Critic: Critiques generated text. Without it, decisions arrive without a critique.
//   - VectorIndex: Vector storage/search. Only enabled when EmbeddingService is configured.
//   - EmbeddingService: Generates vector embeddings. Without it, semantic search is disabled.
//   - LLMService: Language model operations used by the Generator and Critic adapters.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

// Package domain defines the core business entities for Folio.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chapter: The logical unit of content being refined
//   - Version: An immutable snapshot of a chapter's text with lineage
//   - Decision: The outcome of a decision gate acting on a version
//   - Settings: Immutable process-wide configuration
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

// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The RevisionController owns the chapter state machine; SemanticIndex
// keeps the vector index consistent with the version store.
package services

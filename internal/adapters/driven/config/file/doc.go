// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.folio.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates for the writer and reviewer
package file

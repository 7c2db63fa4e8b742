// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based persistent CLI settings
//   - PromptStore: user-editable prompt overrides
//   - IndexWriter: JSON lexical index sidecar
package file

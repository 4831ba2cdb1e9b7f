// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the manualqa home directory.
//
// Adapters:
//   - ConfigStore: TOML configuration (config.toml)
//   - PromptStore: user-editable prompt templates (prompts/*.txt)
package file

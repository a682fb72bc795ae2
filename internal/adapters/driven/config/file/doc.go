// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with environment overrides
//   - PromptStore: user-editable prompt templates under ~/.ragbox/prompts
//
// LoadDotEnv and EnvOverrides translate a .env file and environment
// variables into config keys.
package file

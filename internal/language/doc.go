// Package language provides unified language code normalization.
//
// The pipeline carries ISO 639-1 codes end to end; each synthesis engine owns
// its own remapping from these codes to whatever its voice model understands.
// Everything shared (normalization, display names, the supported set) lives
// here to avoid duplication across engine packages and the CLI.
package language

// Package services defines shared utilities consumed by the pipeline stages
// and engine adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and engine names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that classify engine
//     failures for the fallback selector (recoverable vs configuration).
//
// Use these helpers when wiring new engine adapters so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services

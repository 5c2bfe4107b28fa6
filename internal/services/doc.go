// Package services defines shared utilities consumed by the pipeline and its
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp collection IDs, volume numbers, stage names,
//     and run identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     retryable or needing operator attention.
//
// Sub-packages hold the adapters for external engines (WhisperX, Google Cloud
// Speech) so the orchestrator only depends on narrow interfaces.
package services

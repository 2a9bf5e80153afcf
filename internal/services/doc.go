// Package services defines shared utilities consumed by the mover engine and
// its remote integrations.
//
// Key responsibilities:
//   - Context helpers that stamp cycle numbers, mapping labels, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers decide
//     between retrying, skipping, and stopping the run with errors.Is.
//   - A fallback classifier for authentication failures reported only as
//     free-form messages.
//
// Use these helpers when wiring new remote calls so operational behaviour
// (error handling, observability, retries) stays uniform across the agent.
package services

// Package services defines shared utilities consumed by the scraper, the audio
// pipeline, the job workers and the API.
//
// Key responsibilities:
//   - Context helpers that stamp show IDs, job IDs, queue names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified into retryable job failures or client-facing 4xx responses.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform.
package services

// Package tasks orchestrates document uploads and chat exchanges with real-time progress reporting.
//
// # Core Operations
//
// [UploadPipeline.Run] uploads a batch of documents:
//   - Validates each file against the supported extensions and size ceiling
//   - Uploads accepted files through a rate-limited worker pool
//   - Tracks per-file transfer progress, capped below 100% until the server confirms indexing
//   - Settles every file independently, so one failure never aborts the batch
//   - Hands off to the chat view after a successful batch
//
// [Conversation.Ask] submits a question to a chat session:
//   - Opens a session lazily on the first question
//   - Appends the exchange to the local transcript
//   - Substitutes a fallback answer when the query fails
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks

// package repositories provides the local persistence layer for chat history.
//
// Fetched sessions and their transcripts are cached in SQLite so history
// remains browsable when the backend is unreachable.
package repositories

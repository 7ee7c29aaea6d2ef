// Package evidence keeps a journal of served tool calls.
//
// Every call that passes through the recorder middleware produces one
// Record: which tool was called, whether the call was accepted, which fields
// were invalid, how long it took and a SHA-256 hash of the canonical
// arguments. The arguments themselves are only kept when configured.
//
// Subpackages:
//   - storage: SQLite backend
//   - recorder: asynchronous writer and tool middleware
//   - retention: age and count based pruning on a cron schedule
//   - export: JSON and CSV exporters
//
// Records answer questions like "which field do agents get wrong most
// often" or "did this tool reject anything after the last reload".
package evidence

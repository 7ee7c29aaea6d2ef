// Package logging provides structured logging for parley.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging in JSON or text format
//   - Context-aware logging that picks up call IDs, tool names and trace IDs
//   - Redaction of sensitive argument values when values are logged
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithCallID(ctx, "3f0c...")
//	ctx = logging.WithTool(ctx, "book_flight")
//	logger.InfoContext(ctx, "call accepted", "duration_ms", 4)
//
// Logs go to stderr by default. The stdio transport owns stdout.
package logging

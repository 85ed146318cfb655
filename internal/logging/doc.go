// Package logging provides structured logging for the KavakDB index engine.
//
// # Overview
//
// The logging package provides a structured logging interface with support for:
//
//   - Multiple log levels (debug, info, warn, error)
//   - Text and JSON output formats
//   - Field-based contextual logging
//
// # Creating a Logger
//
// Create a logger with configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "/var/log/kavak/kavak.log",
//	})
//
// Or use defaults:
//
//	logger := logging.NewDefault() // Info level, text format, stdout
//
// For testing, use a no-op logger:
//
//	logger := logging.NewNop()
//
// # Log Levels
//
// Four log levels are supported:
//
//	logger.Debug("detailed debugging info", "key", "value")
//	logger.Info("informational message", "key", "value")
//	logger.Warn("warning message", "key", "value")
//	logger.Error("error message", "key", "value")
//
// Parse level from string:
//
//	level := logging.ParseLevel("debug") // Returns LevelDebug
//
// # Structured Logging
//
// Add key-value pairs to log entries:
//
//	logger.Info("page split",
//	    "page", 42,
//	    "new_page", 97,
//	    "keys_moved", 51,
//	)
//
// Output (JSON format):
//
//	{
//	    "ts": "2026-08-25T10:30:00Z",
//	    "level": "info",
//	    "msg": "page split",
//	    "page": 42,
//	    "new_page": 97,
//	    "keys_moved": 51
//	}
//
// # Contextual Fields
//
// Create loggers with persistent fields:
//
//	treeLogger := logger.WithFields(
//	    "index", path,
//	    "page_size", conf.PageSize,
//	)
//
//	// All subsequent logs include these fields
//	treeLogger.Info("index opened")
//	treeLogger.Info("root split")
//
// # Output Formats
//
// Text format (human-readable):
//
//	2026-08-25T10:30:00Z [info] page split page=42 new_page=97 keys_moved=51
//
// JSON format (machine-parseable):
//
//	{"ts":"2026-08-25T10:30:00Z","level":"info","msg":"page split",...}
//
// # Output Destinations
//
// Configure output destination:
//
//	logging.Config{Output: "stdout"}             // Standard output
//	logging.Config{Output: "stderr"}             // Standard error
//	logging.Config{Output: "/var/log/kavak.log"} // File path
package logging

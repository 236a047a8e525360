// Package logging provides structured logging for Stockflow Core.
//
// It wraps log/slog so every package logs through the same handler
// with the same default fields.
//
// # Features
//
//   - JSON output for production, text for development
//   - service and version attached to every record
//   - Level filtering (debug, info, warn, error)
//   - Safe for concurrent use
//
// # Configuration
//
// The logging section of config.yaml drives everything:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8420)
//	logger.Error("mqtt connect failed", "error", err)
//
// Never log secrets, tokens, or broker credentials; truncate anything
// sensitive before it reaches a log field.
package logging

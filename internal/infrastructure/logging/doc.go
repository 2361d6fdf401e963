// Package logging provides structured logging for MODI Core.
//
// It wraps log/slog with JSON or text output, level filtering and default
// service/version fields on every entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("transport").Info("worker started", "queue_capacity", 256)
//
// Never log broker passwords or InfluxDB tokens.
package logging

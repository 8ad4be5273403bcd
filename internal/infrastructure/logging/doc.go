// Package logging provides structured logging for Nova Props Core.
//
// It wraps the standard log/slog package so every component logs the same
// way: JSON in production, text on a bench, with service and version fields
// on every entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	reg.SetLogger(logger.Component("subdevice"))
//	logger.Info("api listening", "addr", addr)
//
// Never log the Wi-Fi password, MQTT credentials or the InfluxDB token.
package logging

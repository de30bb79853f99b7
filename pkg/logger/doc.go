// Package logger provides a structured logging interface for the Jike client.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional file output alongside the console
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "jikecli/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/jikecli.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("export started")
//	logger.WithField("username", "alice").Info("profile fetched")
//	logger.WithError(err).Error("failed to download image")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "downloader")
//
//	// Use structured logging
//	log.InfoWithFields("image downloaded", map[string]interface{}{
//	    "file": "post_0001_img_0.jpg",
//	    "size": 1024000,
//	})
//
// Tests use NewTestLogger, which discards all output.
package logger

// Package logging provides structured logging utilities for the inboxtriage
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (sender address anonymization)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "gmail.fetch")
//	logger.Info("fetched messages",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("classified message",
//	    logging.SenderHash(msg.Sender))
//
// # Security Considerations
//
// Sender addresses are hashed to prevent PII leakage while allowing
// correlation, and tokens are never logged directly.
package logging

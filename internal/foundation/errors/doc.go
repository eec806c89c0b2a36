// Package errors provides foundational, type-safe error primitives used across CMSBridge.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, network, vcs, workflow, etc.)
//   - ErrorSeverity: Impact level (error, warning, info)
//   - RetryStrategy: Retry behavior (should-retry, no-retry, backoff)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for error presentation
//
// Example usage:
//
//	err := errors.VCSError("persist changeset failed").
//		WithCause(originalErr).
//		WithContext("branch", branch).
//		Build()
package errors

// Package pkg provides shared utilities for the usbd controller driver.
//
// This package contains common functionality used across the driver
// packages, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for bus and endpoint failures
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentBus, "address assigned", "address", 5)
//
// Logging is reserved for lifecycle transitions. Code that may run in
// interrupt context records events through [github.com/ardnew/usbd/pkg/debug]
// instead.
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrWouldBlock) {
//	    // Endpoint still primed; try again after the next poll
//	}
package pkg

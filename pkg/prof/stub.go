//go:build !profile

package prof

import (
	"context"
	"io"
	"net/http"
)

// Enabled reports whether the package was built with the profile tag.
const Enabled = false

// Profiling errors, never returned by the stubs.
var (
	ErrCPUProfileActive error
	ErrInvalidProfile   error
)

// StageLabel is the pprof label key set by [Do].
const StageLabel = "usbd_stage"

// StartCPU is a no-op without the profile tag.
func StartCPU(string) error { return nil }

// StopCPU is a no-op without the profile tag.
func StopCPU() {}

// IsCPUActive always returns false without the profile tag.
func IsCPUActive() bool { return false }

// Write is a no-op without the profile tag.
func Write(Profile, string) error { return nil }

// WriteTo is a no-op without the profile tag.
func WriteTo(Profile, io.Writer) error { return nil }

// Handle registers nothing without the profile tag.
func Handle(*http.ServeMux) {}

// Do calls fn directly without the profile tag.
func Do(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

// SetBlockProfileRate is a no-op without the profile tag.
func SetBlockProfileRate(int) {}

// SetMutexProfileFraction is a no-op without the profile tag.
func SetMutexProfileFraction(int) {}

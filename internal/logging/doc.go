// Package logging provides opt-in file-based logging with rotation for the
// indexing core. When a caller configures it, structured logs are written
// to ~/.swiftindex/logs/ for debugging and troubleshooting.
//
// Without that configuration, the core logs through whatever slog default
// handler the host process already has installed.
package logging

// Package main is the entry point for the termbridge server.
//
// The server hosts PTY-backed terminal sessions and streams their
// output to clients over WebSocket, with frame-batched flushing and
// bounded buffering between the shell and the wire.
//
// The server provides:
//   - REST API for session management
//   - WebSocket streaming of terminal output
//   - Prometheus metrics
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8090
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

// Package server wires the HTTP surface together.
//
// It assembles the gin router with the middleware stack (recovery,
// CORS, rate limiting, request logging), the REST handlers, the
// WebSocket streaming endpoint, and the Prometheus metrics endpoint,
// then runs the HTTP server with graceful shutdown.
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger
//  3. Create session manager and metrics
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal (sessions killed, server drained)
package server

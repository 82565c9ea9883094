// Package monitoring provides Prometheus metrics for the terminal
// streaming service.
//
// Metric groups:
//   - HTTP: request counts and latency, recorded by the router
//     middleware
//   - Engine: flush, queue-depth, and dropped-output counters fed by
//     the streaming engine
//   - Sessions: active and lifetime session counts
//   - WebSocket: live connection gauge
//
// All metrics are exposed on /metrics in the standard Prometheus text
// format.
package monitoring

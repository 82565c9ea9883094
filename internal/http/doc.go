// Package http provides the REST surface for terminal session
// management: create, list, inspect, feed input, resize, and kill.
// Live output streaming is not served here; clients attach over
// WebSocket (see the ws package).
package http

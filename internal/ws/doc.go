// Package ws bridges terminal sessions to WebSocket clients.
//
// A connected client plays the role of the engine's terminal sink:
// coalesced output flushes are sent as binary frames, and control
// traffic (clear, focus, shortcuts, pong) as small JSON messages.
//
// Message types (client → server):
//   - input: keystroke bytes for the session's PTY
//   - key: a keystroke event checked against reserved shortcuts
//   - resize: viewport pixel geometry and cell metrics
//   - ping: keep-alive
//
// Message types (server → client, JSON):
//   - clear, focus: renderer control
//   - shortcut: a reserved combination forwarded to the host shell
//   - pong, error
//
// Binary frames carry raw terminal output and are always the result
// of exactly one engine flush.
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, logger, metrics)
//	router.GET("/sessions/:id/stream", handler.HandleConnection)
package ws

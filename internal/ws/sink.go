package ws

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// defaultWriteTimeout bounds every connection write. A client that
// stops draining its socket fails the deadline and is dropped instead
// of stalling the engine's flush path.
const defaultWriteTimeout = 10 * time.Second

// errGeometryUnknown marks a fit attempt before the client has
// reported its viewport. The engine treats it as transient and
// retries on the next resize message.
var errGeometryUnknown = errors.New("ws: viewport geometry not reported yet")

// control is a JSON control message sent to the client alongside the
// binary output stream.
type control struct {
	Type    string `json:"type"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
}

// RemoteSink adapts a WebSocket client into the engine's terminal
// sink. The actual cell grid lives in the client; the sink forwards
// output frames and computes the grid fit from the client-reported
// viewport geometry.
type RemoteSink struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	closed       atomic.Bool
	writeMu      sync.Mutex // serializes all writes on the connection

	mu         sync.Mutex
	width      int // viewport pixels
	height     int
	cellWidth  int // cell metrics in pixels
	cellHeight int
	rows       int
	cols       int
}

// NewRemoteSink wraps a connection. Geometry is unknown until the
// first resize message arrives.
func NewRemoteSink(conn *websocket.Conn) *RemoteSink {
	return &RemoteSink{conn: conn, writeTimeout: defaultWriteTimeout}
}

// SetGeometry records the client's viewport pixels and cell metrics.
func (s *RemoteSink) SetGeometry(width, height, cellWidth, cellHeight int) {
	s.mu.Lock()
	s.width = width
	s.height = height
	s.cellWidth = cellWidth
	s.cellHeight = cellHeight
	s.mu.Unlock()
}

// Write sends one coalesced output flush as a binary frame. A write
// that misses the deadline drops the client: the connection is closed,
// the handler's read loop ends, and the session detaches.
func (s *RemoteSink) Write(p []byte) {
	if s.closed.Load() {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		s.drop()
	}
}

// Clear tells the client renderer to erase its grid.
func (s *RemoteSink) Clear() {
	s.sendControl(control{Type: "clear"})
}

// Focus tells the client renderer to take keyboard focus.
func (s *RemoteSink) Focus() {
	s.sendControl(control{Type: "focus"})
}

// Selection always returns empty: the selection lives in the client
// renderer, so server-side copy is a no-op for remote sinks.
func (s *RemoteSink) Selection() string { return "" }

// Rows returns the last computed grid height.
func (s *RemoteSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Cols returns the last computed grid width.
func (s *RemoteSink) Cols() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols
}

// Fit computes how many cells fit the reported viewport. Before the
// first resize message it fails with a transient error.
func (s *RemoteSink) Fit() (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.width <= 0 || s.height <= 0 || s.cellWidth <= 0 || s.cellHeight <= 0 {
		return 0, 0, errGeometryUnknown
	}

	rows := s.height / s.cellHeight
	cols := s.width / s.cellWidth
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	s.rows, s.cols = rows, cols
	return rows, cols, nil
}

// Dispose notifies the client that the stream is over. Closing the
// network connection is the handler's job.
func (s *RemoteSink) Dispose() {
	s.sendControl(control{Type: "closed"})
}

func (s *RemoteSink) sendControl(msg control) {
	if s.closed.Load() {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.drop()
	}
}

// drop is called under writeMu after a failed write.
func (s *RemoteSink) drop() {
	s.closed.Store(true)
	s.conn.Close()
}

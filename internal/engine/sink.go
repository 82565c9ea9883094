package engine

// Sink is the externally owned terminal renderer consumed by the
// engine. The engine never interprets the bytes it writes; ANSI
// parsing and cell-grid state belong entirely to the sink.
type Sink interface {
	// Write renders a batch of output bytes. Called at most once per
	// frame with the coalesced payload of all chunks drained from the
	// write queue.
	Write(p []byte)

	// Clear erases the visible grid.
	Clear()

	// Focus moves keyboard focus to the renderer.
	Focus()

	// Selection returns the currently selected text, or "" when
	// nothing is selected.
	Selection() string

	// Rows and Cols report the current grid dimensions.
	Rows() int
	Cols() int

	// Fit recomputes how many rows and columns fit the current
	// viewport geometry. A non-nil error marks a transient condition
	// (layout not settled yet); the engine skips the attempt and
	// retries on the next geometry notification.
	Fit() (rows, cols int, err error)

	// Dispose releases renderer resources. Called exactly once, from
	// Engine.Dispose.
	Dispose()
}

// GeometryNotifier delivers viewport geometry-change notifications to
// the resize coordinator. Implementations may wrap native OS resize
// events, client-driven messages, or a polling timer.
type GeometryNotifier interface {
	// Subscribe registers fn to run on every geometry change and
	// returns an unsubscribe function. Unsubscribing twice is a no-op.
	Subscribe(fn func()) (unsubscribe func())
}

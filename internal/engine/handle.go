package engine

import "sync/atomic"

// Handle is the mount-scoped entry point handed to out-of-band
// callers that need write or focus access without holding the engine
// itself. Dispose detaches the handle, so a caller keeping it past the
// engine's lifetime gets no-ops instead of use-after-dispose.
type Handle struct {
	engine   *Engine
	detached atomic.Bool
}

// Write delivers output through the ingest port.
func (h *Handle) Write(data []byte) {
	if h.detached.Load() {
		return
	}
	h.engine.DeliverOutput(data)
}

// Focus moves keyboard focus to the renderer.
func (h *Handle) Focus() {
	if h.detached.Load() {
		return
	}

	e := h.engine
	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	e.mu.Lock()
	if e.state != stateMounted {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.sink.Focus()
}

func (h *Handle) detach() {
	h.detached.Store(true)
}

package engine

import (
	"sync"

	"go.uber.org/zap"
)

// geometryChanged is the resize coordinator's entry point, invoked by
// the geometry notifier on every viewport change.
func (e *Engine) geometryChanged() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fitLocked()
}

// initialFit runs once on the first frame after Mount.
func (e *Engine) initialFit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelFit = nil
	e.fitLocked()
}

// fitLocked recomputes the grid fit and publishes the result when it
// differs from the stored pair. A fit error is transient (layout not
// settled yet): the attempt is skipped, not retried, and the next
// notification tries again. Callers hold e.mu.
func (e *Engine) fitLocked() {
	if e.state != stateMounted {
		return
	}

	rows, cols, err := e.sink.Fit()
	if err != nil {
		e.log.Debug("fit skipped", zap.Error(err))
		return
	}
	if rows <= 0 || cols <= 0 {
		return
	}
	if e.sizeKnown && rows == e.rows && cols == e.cols {
		return
	}

	e.rows, e.cols = rows, cols
	e.sizeKnown = true
	if e.metrics != nil {
		e.metrics.RecordResize()
	}
	if e.onResize != nil {
		e.onResize(rows, cols)
	}
}

// ManualNotifier is a GeometryNotifier driven by explicit Notify
// calls. The WebSocket transport uses it to turn client resize
// messages into geometry notifications; tests use it to drive the
// resize coordinator deterministically.
type ManualNotifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// NewManualNotifier creates an empty notifier.
func NewManualNotifier() *ManualNotifier {
	return &ManualNotifier{subs: make(map[int]func())}
}

// Subscribe registers fn and returns its unsubscribe function.
func (n *ManualNotifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// Notify invokes every subscribed callback.
func (n *ManualNotifier) Notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

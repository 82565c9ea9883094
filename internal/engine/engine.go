package engine

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/glasspane/termbridge/internal/monitoring"
)

const (
	// DefaultMaxQueueLen bounds the number of pending output chunks.
	DefaultMaxQueueLen = 5000

	// DefaultFlushBudget caps the bytes coalesced into one sink write.
	DefaultFlushBudget = 64 * 1024
)

var (
	// ErrNoSink is returned by New when no sink is configured.
	ErrNoSink = errors.New("engine: sink is required")

	// ErrAlreadyMounted is returned by Mount after a successful mount.
	ErrAlreadyMounted = errors.New("engine: already mounted")

	// ErrDisposed is returned by Mount on a disposed engine.
	ErrDisposed = errors.New("engine: disposed")
)

// engine lifecycle, one-way: Idle → Mounted → Disposed.
type state int

const (
	stateIdle state = iota
	stateMounted
	stateDisposed
)

// Config assembles an Engine. Sink is the only required field.
type Config struct {
	// Sink is the externally owned renderer.
	Sink Sink

	// Notifier delivers geometry-change notifications to the resize
	// coordinator. Optional; without it only the initial fit runs.
	Notifier GeometryNotifier

	// Frames provides repaint-aligned scheduling. Defaults to an
	// interval timer at DefaultFrameInterval.
	Frames FrameTimer

	// OnResize is invoked at most once per distinct (rows, cols) pair.
	OnResize func(rows, cols int)

	// OnKey receives reserved shortcut combinations intercepted by the
	// input path.
	OnKey func(ev KeyEvent)

	// MaxQueueLen bounds the write queue. Defaults to
	// DefaultMaxQueueLen.
	MaxQueueLen int

	// FlushBudget caps bytes per coalesced sink write. Defaults to
	// DefaultFlushBudget.
	FlushBudget int

	// Clipboard writes selection text to the platform clipboard.
	// Defaults to the system clipboard. ClipboardFallback is tried
	// when the primary writer fails.
	Clipboard         ClipboardFunc
	ClipboardFallback ClipboardFunc

	// Renderer records the capability-probe result for this instance.
	Renderer RendererMode

	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// Engine bridges an asynchronous output stream to a terminal sink with
// frame-batched rendering, bounded memory, and race-free teardown.
type Engine struct {
	mu    sync.Mutex
	state state

	// sinkMu serializes all sink calls and is never held while
	// waiting on mu's critical sections. A sink write that stalls on a
	// slow consumer therefore cannot wedge ingest or state accessors;
	// only Dispose waits for it, to guarantee no sink call survives
	// teardown.
	sinkMu sync.Mutex

	sink     Sink
	notifier GeometryNotifier
	frames   FrameTimer
	onResize func(rows, cols int)
	onKey    func(ev KeyEvent)

	clipboard         ClipboardFunc
	clipboardFallback ClipboardFunc
	renderer          RendererMode

	queue       *writeQueue
	flushBudget int

	scheduled   bool
	cancelFrame func()
	cancelFit   func()
	unsubscribe func()
	handle      *Handle

	rows, cols int
	sizeKnown  bool

	log     *zap.Logger
	metrics *monitoring.Metrics
}

// New creates an engine in the Idle state. The engine is inert until
// Mount is called.
func New(cfg Config) (*Engine, error) {
	if cfg.Sink == nil {
		return nil, ErrNoSink
	}
	if cfg.Frames == nil {
		cfg.Frames = NewIntervalTimer(DefaultFrameInterval)
	}
	if cfg.MaxQueueLen <= 0 {
		cfg.MaxQueueLen = DefaultMaxQueueLen
	}
	if cfg.FlushBudget <= 0 {
		cfg.FlushBudget = DefaultFlushBudget
	}
	if cfg.Clipboard == nil {
		cfg.Clipboard = systemClipboard
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Engine{
		sink:              cfg.Sink,
		notifier:          cfg.Notifier,
		frames:            cfg.Frames,
		onResize:          cfg.OnResize,
		onKey:             cfg.OnKey,
		clipboard:         cfg.Clipboard,
		clipboardFallback: cfg.ClipboardFallback,
		renderer:          cfg.Renderer,
		queue:             newWriteQueue(cfg.MaxQueueLen),
		flushBudget:       cfg.FlushBudget,
		log:               cfg.Logger,
		metrics:           cfg.Metrics,
	}, nil
}

// Mount transitions Idle → Mounted: subscribes to geometry
// notifications, schedules the initial fit for the next frame, and
// returns the handle that out-of-band callers use for write and focus.
func (e *Engine) Mount() (*Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateMounted:
		return nil, ErrAlreadyMounted
	case stateDisposed:
		return nil, ErrDisposed
	}
	e.state = stateMounted

	if e.notifier != nil {
		e.unsubscribe = e.notifier.Subscribe(e.geometryChanged)
	}
	e.cancelFit = e.frames.Schedule(e.initialFit)

	e.handle = &Handle{engine: e}
	e.log.Debug("engine mounted")
	return e.handle, nil
}

// DeliverOutput is the ingest port: it accepts one output chunk,
// enforces the queue bound, and ensures a flush is scheduled. It never
// blocks and never fails; after Dispose it is a permanent no-op.
func (e *Engine) DeliverOutput(data []byte) {
	if len(data) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateMounted {
		return
	}

	e.queue.push(data)
	if chunks, bytes := e.queue.compact(); chunks > 0 {
		e.log.Warn("output dropped under backpressure",
			zap.Int("chunks", chunks),
			zap.Int("bytes", bytes),
		)
		if e.metrics != nil {
			e.metrics.RecordDrop(chunks, bytes)
		}
	}
	e.ensureScheduledLocked()
}

// ensureScheduledLocked arms at most one pending flush. Callers hold
// e.mu.
func (e *Engine) ensureScheduledLocked() {
	if e.scheduled || e.state == stateDisposed {
		return
	}
	e.scheduled = true
	e.cancelFrame = e.frames.Schedule(e.flushFrame)
}

// flushFrame runs on a frame boundary. It returns the scheduler to
// Idle before draining, so a delivery that lands mid-flush re-arms the
// next frame, then coalesces up to flushBudget bytes into a single
// sink write. Leftover chunks re-schedule immediately. The write
// happens under sinkMu only, so deliveries keep landing while a slow
// sink drains.
func (e *Engine) flushFrame() {
	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	e.mu.Lock()
	e.scheduled = false
	e.cancelFrame = nil

	if e.state == stateDisposed {
		e.mu.Unlock()
		return
	}

	payload, remaining := e.queue.drain(e.flushBudget)
	if remaining > 0 {
		e.ensureScheduledLocked()
	}
	e.mu.Unlock()

	if len(payload) == 0 {
		return
	}

	e.sink.Write(payload)
	if e.metrics != nil {
		e.metrics.RecordFlush(len(payload), remaining)
	}
}

// Dispose transitions to the terminal Disposed state. It is idempotent
// and race-free: the flag flips first, under the engine lock, so a
// delivery or geometry notification racing with Dispose observes a
// dead engine. Pending frame and fit callbacks are cancelled, the
// queue is cleared without flushing, and the sink is released. Once
// Dispose returns, no sink write, fit, or resize callback can run.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.state == stateDisposed {
		e.mu.Unlock()
		return
	}
	e.state = stateDisposed

	if e.cancelFrame != nil {
		e.cancelFrame()
		e.cancelFrame = nil
	}
	if e.cancelFit != nil {
		e.cancelFit()
		e.cancelFit = nil
	}
	e.scheduled = false
	e.queue.clear()

	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	handle := e.handle
	e.handle = nil
	e.mu.Unlock()

	if handle != nil {
		handle.detach()
	}
	if unsubscribe != nil {
		unsubscribe()
	}

	// Waits out any in-flight sink call; a flush that has not yet
	// reached the sink observes the disposed flag and skips the write.
	e.sinkMu.Lock()
	e.sink.Dispose()
	e.sinkMu.Unlock()
	e.log.Debug("engine disposed")
}

// DroppedBytes reports output bytes discarded by backpressure
// compaction over the engine's lifetime.
func (e *Engine) DroppedBytes() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.droppedBytes
}

// DroppedChunks reports output chunks discarded by backpressure
// compaction over the engine's lifetime.
func (e *Engine) DroppedChunks() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.droppedChunks
}

// QueueLen reports the number of pending output chunks.
func (e *Engine) QueueLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.len()
}

// Size returns the last published grid dimensions. ok is false before
// the first successful fit.
func (e *Engine) Size() (rows, cols int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows, e.cols, e.sizeKnown
}

// Renderer reports the capability-probe result recorded at
// construction.
func (e *Engine) Renderer() RendererMode {
	return e.renderer
}

// Disposed reports whether the engine has been torn down.
func (e *Engine) Disposed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateDisposed
}

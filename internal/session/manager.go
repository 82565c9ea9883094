package session

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/glasspane/termbridge/internal/engine"
	"github.com/glasspane/termbridge/internal/monitoring"
	"github.com/glasspane/termbridge/internal/shared/id"
)

// ScrollbackSize is the per-session ring buffer capacity.
const ScrollbackSize = 1024 * 1024

// Options configure a new session.
type Options struct {
	Shell      string
	WorkingDir string
	Cols       int
	Rows       int
	Env        map[string]string
}

// EngineOptions configure the streaming engine created on attach.
type EngineOptions struct {
	MaxQueueLen   int
	FlushBudget   int
	FrameInterval time.Duration
}

// Manager owns all PTY sessions and the engines attached to them.
type Manager struct {
	sessions sync.Map // map[string]*Session

	engineOpts EngineOptions
	log        *zap.Logger
	metrics    *monitoring.Metrics
}

// NewManager creates a session manager.
func NewManager(engineOpts EngineOptions, log *zap.Logger, metrics *monitoring.Metrics) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		engineOpts: engineOpts,
		log:        log,
		metrics:    metrics,
	}
}

// Create spawns a shell behind a PTY and starts streaming its output
// into the session scrollback.
func (m *Manager) Create(opts Options) (Info, error) {
	shell := opts.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/bash"
		}
	}

	workingDir := opts.WorkingDir
	if workingDir == "" {
		workingDir = os.Getenv("HOME")
		if workingDir == "" {
			workingDir = "/tmp"
		}
	}

	cols := opts.Cols
	if cols <= 0 {
		cols = 80
	}
	rows := opts.Rows
	if rows <= 0 {
		rows = 24
	}

	cmd := exec.Command(shell)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	for key, value := range opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return Info{}, fmt.Errorf("failed to start PTY: %w", err)
	}

	s := &Session{
		ID:         id.NewSessionID().String(),
		Shell:      shell,
		WorkingDir: workingDir,
		StartedAt:  time.Now(),
		cmd:        cmd,
		ptmx:       ptmx,
		scrollback: NewBuffer(ScrollbackSize),
		cols:       cols,
		rows:       rows,
	}
	m.sessions.Store(s.ID, s)
	if m.metrics != nil {
		m.metrics.SessionStarted()
	}
	m.log.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("shell", shell),
		zap.Int("cols", cols),
		zap.Int("rows", rows),
	)

	go m.readOutput(s)
	go m.monitorProcess(s)

	return s.info(), nil
}

// readOutput continuously reads PTY output into the scrollback ring
// and, while a client is attached, into the engine's ingest port.
func (m *Manager) readOutput(s *Session) {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.streamMu.Lock()
			s.scrollback.Write(buf[:n])

			s.mu.RLock()
			eng := s.engine
			s.mu.RUnlock()
			if eng != nil {
				eng.DeliverOutput(buf[:n])
			}
			s.streamMu.Unlock()
		}
		if err != nil {
			if err != io.EOF {
				m.log.Debug("pty read ended",
					zap.String("session_id", s.ID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// monitorProcess waits for the shell to exit and tears the session
// down.
func (m *Manager) monitorProcess(s *Session) {
	s.cmd.Wait()

	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	eng := s.engine
	s.engine = nil
	s.handle = nil
	s.notifier = nil
	s.mu.Unlock()

	s.ptmx.Close()
	if eng != nil {
		eng.Dispose()
	}
	if !alreadyClosed {
		if m.metrics != nil {
			m.metrics.SessionEnded()
		}
		m.log.Info("session exited", zap.String("session_id", s.ID))
	}
}

// Attach wires a client sink to a session: it builds an engine,
// mounts it, and replays the scrollback ring through the ingest port
// so the client starts with recent history. The returned notifier
// feeds client geometry changes to the resize coordinator.
func (m *Manager) Attach(sessionID string, sink engine.Sink, onKey func(engine.KeyEvent)) (*engine.Engine, *engine.ManualNotifier, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	closed, attached := s.closed, s.engine != nil
	s.mu.RUnlock()
	if closed {
		return nil, nil, fmt.Errorf("session is closed: %s", sessionID)
	}
	if attached {
		return nil, nil, fmt.Errorf("session already attached: %s", sessionID)
	}

	notifier := engine.NewManualNotifier()
	eng, err := engine.New(engine.Config{
		Sink:     sink,
		Notifier: notifier,
		Frames:   engine.NewIntervalTimer(m.engineOpts.FrameInterval),
		OnResize: func(rows, cols int) {
			if err := m.Resize(sessionID, cols, rows); err != nil {
				m.log.Debug("pty resize failed",
					zap.String("session_id", sessionID),
					zap.Error(err),
				)
			}
		},
		OnKey:       onKey,
		MaxQueueLen: m.engineOpts.MaxQueueLen,
		FlushBudget: m.engineOpts.FlushBudget,
		Logger:      m.log.With(zap.String("session_id", sessionID)),
		Metrics:     m.metrics,
	})
	if err != nil {
		return nil, nil, err
	}
	handle, err := eng.Mount()
	if err != nil {
		return nil, nil, err
	}

	// Publishing the engine and replaying history under streamMu
	// keeps the replay ahead of any chunk the PTY reader delivers
	// next; without it a chunk arriving mid-attach would reach the
	// client twice, once live and once inside the replayed history.
	s.streamMu.Lock()
	s.mu.Lock()
	if s.closed || s.engine != nil {
		s.mu.Unlock()
		s.streamMu.Unlock()
		eng.Dispose()
		return nil, nil, fmt.Errorf("session unavailable: %s", sessionID)
	}
	s.engine = eng
	s.handle = handle
	s.notifier = notifier
	s.mu.Unlock()

	if history := s.scrollback.Bytes(); len(history) > 0 {
		eng.DeliverOutput(history)
	}
	s.streamMu.Unlock()

	m.log.Info("client attached", zap.String("session_id", sessionID))
	return eng, notifier, nil
}

// Detach disposes the attached engine, if any. The session and its
// shell keep running.
func (m *Manager) Detach(sessionID string) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return
	}

	s.mu.Lock()
	eng := s.engine
	s.engine = nil
	s.handle = nil
	s.notifier = nil
	s.mu.Unlock()

	if eng != nil {
		eng.Dispose()
		m.log.Info("client detached", zap.String("session_id", sessionID))
	}
}

// Focus asks the attached client's renderer to take keyboard focus.
// Fails when no client is attached.
func (m *Manager) Focus(sessionID string) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.RLock()
	handle := s.handle
	s.mu.RUnlock()
	if handle == nil {
		return fmt.Errorf("no client attached: %s", sessionID)
	}

	handle.Focus()
	return nil
}

// Write sends input bytes to the session's PTY.
func (m *Manager) Write(sessionID string, input []byte) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("session is closed: %s", sessionID)
	}

	_, err = s.ptmx.Write(input)
	return err
}

// Read returns a snapshot of the session's scrollback ring.
func (m *Manager) Read(sessionID string) ([]byte, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.scrollback.Bytes(), nil
}

// Resize changes the PTY dimensions.
func (m *Manager) Resize(sessionID string, cols, rows int) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session is closed: %s", sessionID)
	}
	s.cols = cols
	s.rows = rows

	return pty.Setsize(s.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

// Kill terminates a session: process, PTY, and attached engine.
func (m *Manager) Kill(sessionID string) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		m.sessions.Delete(sessionID)
		return nil
	}
	s.closed = true
	eng := s.engine
	s.engine = nil
	s.handle = nil
	s.notifier = nil
	s.mu.Unlock()

	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.ptmx.Close()
	if eng != nil {
		eng.Dispose()
	}
	m.sessions.Delete(sessionID)
	if m.metrics != nil {
		m.metrics.SessionEnded()
	}
	m.log.Info("session killed", zap.String("session_id", sessionID))
	return nil
}

// Get retrieves session info.
func (m *Manager) Get(sessionID string) (Info, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return Info{}, err
	}
	return s.info(), nil
}

// List returns info for all sessions.
func (m *Manager) List() []Info {
	var infos []Info
	m.sessions.Range(func(_, value interface{}) bool {
		infos = append(infos, value.(*Session).info())
		return true
	})
	return infos
}

// Notifier returns the geometry notifier of an attached session, or
// nil when no client is attached.
func (m *Manager) Notifier(sessionID string) *engine.ManualNotifier {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifier
}

// Shutdown kills every session. Used on server teardown.
func (m *Manager) Shutdown() {
	m.sessions.Range(func(key, _ interface{}) bool {
		m.Kill(key.(string))
		return true
	})
}

func (m *Manager) lookup(sessionID string) (*Session, error) {
	value, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return value.(*Session), nil
}

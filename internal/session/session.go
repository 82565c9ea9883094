package session

import (
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/glasspane/termbridge/internal/engine"
)

// Session represents one PTY-backed shell session.
type Session struct {
	ID         string
	Shell      string
	WorkingDir string
	StartedAt  time.Time

	cmd  *exec.Cmd
	ptmx *os.File

	scrollback *Buffer

	// streamMu pairs each scrollback write with its engine delivery,
	// and pairs the attach-time history snapshot with publishing the
	// engine. Every output chunk therefore lands in exactly one of
	// history replay or live stream, in arrival order.
	streamMu sync.Mutex

	mu     sync.RWMutex
	cols   int
	rows   int
	closed bool

	// Set while a client is attached, nil otherwise.
	engine   *engine.Engine
	handle   *engine.Handle
	notifier *engine.ManualNotifier
}

// Info is the public representation of a session.
type Info struct {
	ID         string    `json:"id"`
	Shell      string    `json:"shell"`
	WorkingDir string    `json:"working_dir"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	StartedAt  time.Time `json:"started_at"`
	Active     bool      `json:"active"`
	Attached   bool      `json:"attached"`
}

func (s *Session) info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		ID:         s.ID,
		Shell:      s.Shell,
		WorkingDir: s.WorkingDir,
		Cols:       s.cols,
		Rows:       s.rows,
		StartedAt:  s.StartedAt,
		Active:     !s.closed,
		Attached:   s.engine != nil,
	}
}

package engine

import (
	"strings"

	"github.com/atotto/clipboard"
)

// KeyEvent describes one keystroke seen by the input path.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
}

// ShortcutAction identifies a reserved shortcut combination forwarded
// to the host instead of the renderer.
type ShortcutAction string

const (
	ShortcutNewSession   ShortcutAction = "new_session"
	ShortcutCloseSession ShortcutAction = "close_session"
	ShortcutCopy         ShortcutAction = "copy"
)

// Reserved combinations: ctrl+shift+<key>. Everything else passes
// through to the renderer untouched.
var shortcuts = map[string]ShortcutAction{
	"n": ShortcutNewSession,
	"w": ShortcutCloseSession,
	"c": ShortcutCopy,
}

// Action returns the reserved shortcut the event maps to, if any.
func (ev KeyEvent) Action() (ShortcutAction, bool) {
	if !ev.Ctrl || !ev.Shift || ev.Alt {
		return "", false
	}
	action, ok := shortcuts[strings.ToLower(ev.Key)]
	return action, ok
}

// ClipboardFunc writes selection text to a clipboard destination.
type ClipboardFunc func(text string) error

func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// ForwardInput forwards keystroke data synchronously to the sink.
// Input volume is low relative to output, so it is not batched. After
// Dispose this is a permanent no-op.
func (e *Engine) ForwardInput(data []byte) {
	if len(data) == 0 {
		return
	}

	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	e.mu.Lock()
	if e.state != stateMounted {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.sink.Write(data)
}

// InterceptKey handles one keystroke event. Reserved shortcut
// combinations are consumed: copy runs the selection path, the rest
// are forwarded to the OnKey callback. The return value reports
// whether the event was consumed.
func (e *Engine) InterceptKey(ev KeyEvent) bool {
	action, ok := ev.Action()
	if !ok {
		return false
	}

	e.mu.Lock()
	if e.state != stateMounted {
		e.mu.Unlock()
		return false
	}
	onKey := e.onKey
	e.mu.Unlock()

	if action == ShortcutCopy {
		e.CopySelection()
		return true
	}
	if onKey != nil {
		onKey(ev)
	}
	return true
}

// CopySelection reads the sink's current selection and writes it to
// the platform clipboard. An empty selection is a no-op. When the
// primary clipboard writer fails, the fallback is tried; if that also
// fails the error is swallowed.
func (e *Engine) CopySelection() {
	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	e.mu.Lock()
	if e.state != stateMounted {
		e.mu.Unlock()
		return
	}
	primary := e.clipboard
	fallback := e.clipboardFallback
	e.mu.Unlock()
	selection := e.sink.Selection()

	if selection == "" {
		return
	}
	if err := primary(selection); err == nil {
		return
	}
	if fallback != nil {
		_ = fallback(selection)
	}
}

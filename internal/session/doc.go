// Package session manages PTY-backed shell sessions and wires each
// one to a streaming engine.
//
// Each session spawns a shell behind a pseudo-terminal. A background
// reader forwards PTY output into the session's scrollback ring and,
// while a client is attached, into the attached engine's ingest port.
// The engine's resize callback drives the PTY winsize ioctl, so grid
// changes computed by the resize coordinator propagate to the shell.
//
// Sessions outlive client attachments: a client can disconnect and a
// later attachment replays the scrollback ring before live streaming
// resumes. Killing a session tears down the process, the PTY, and any
// attached engine.
package session

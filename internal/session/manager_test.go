package session

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSink records engine output for attach tests.
type stubSink struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	focused  int
	disposed bool
}

func (s *stubSink) Write(p []byte) {
	s.mu.Lock()
	s.buf.Write(p)
	s.mu.Unlock()
}

func (s *stubSink) Clear() {}

func (s *stubSink) Focus() {
	s.mu.Lock()
	s.focused++
	s.mu.Unlock()
}

func (s *stubSink) focusCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}
func (s *stubSink) Selection() string { return "" }
func (s *stubSink) Rows() int         { return 24 }
func (s *stubSink) Cols() int         { return 80 }

func (s *stubSink) Fit() (int, int, error) { return 24, 80, nil }

func (s *stubSink) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
}

func (s *stubSink) contents() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *stubSink) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func newTestManager() *Manager {
	return NewManager(EngineOptions{FrameInterval: time.Millisecond}, nil, nil)
}

func createTestSession(t *testing.T, m *Manager) Info {
	t.Helper()
	info, err := m.Create(Options{Shell: "/bin/sh", Cols: 80, Rows: 24})
	require.NoError(t, err)
	t.Cleanup(func() { m.Kill(info.ID) })
	return info
}

func TestCreateSessionDefaults(t *testing.T) {
	m := newTestManager()
	info := createTestSession(t, m)

	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "/bin/sh", info.Shell)
	assert.Equal(t, 80, info.Cols)
	assert.Equal(t, 24, info.Rows)
	assert.True(t, info.Active)
	assert.False(t, info.Attached)
}

func TestWriteAndRead(t *testing.T) {
	m := newTestManager()
	info := createTestSession(t, m)

	require.NoError(t, m.Write(info.ID, []byte("echo termbridge-marker\n")))

	require.Eventually(t, func() bool {
		out, err := m.Read(info.ID)
		return err == nil && bytes.Contains(out, []byte("termbridge-marker"))
	}, 5*time.Second, 20*time.Millisecond)
}

func TestAttachStreamsOutput(t *testing.T) {
	m := newTestManager()
	info := createTestSession(t, m)

	sink := &stubSink{}
	eng, notifier, err := m.Attach(info.ID, sink, nil)
	require.NoError(t, err)
	require.NotNil(t, eng)
	require.NotNil(t, notifier)

	require.NoError(t, m.Write(info.ID, []byte("echo attach-marker\n")))

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(sink.contents()), []byte("attach-marker"))
	}, 5*time.Second, 20*time.Millisecond)

	got, err := m.Get(info.ID)
	require.NoError(t, err)
	assert.True(t, got.Attached)
}

func TestAttachTwiceFails(t *testing.T) {
	m := newTestManager()
	info := createTestSession(t, m)

	_, _, err := m.Attach(info.ID, &stubSink{}, nil)
	require.NoError(t, err)

	_, _, err = m.Attach(info.ID, &stubSink{}, nil)
	assert.Error(t, err)
}

func TestDetachDisposesEngine(t *testing.T) {
	m := newTestManager()
	info := createTestSession(t, m)

	sink := &stubSink{}
	eng, _, err := m.Attach(info.ID, sink, nil)
	require.NoError(t, err)

	m.Detach(info.ID)

	assert.True(t, eng.Disposed())
	assert.True(t, sink.isDisposed())

	got, err := m.Get(info.ID)
	require.NoError(t, err)
	assert.True(t, got.Active, "session survives detach")
	assert.False(t, got.Attached)

	// Reattach replays scrollback.
	_, _, err = m.Attach(info.ID, &stubSink{}, nil)
	assert.NoError(t, err)
}

func TestAttachMidStreamNoDuplication(t *testing.T) {
	m := newTestManager()
	info := createTestSession(t, m)

	// Keep the shell producing output while the client attaches, so
	// chunks race the history replay.
	require.NoError(t, m.Write(info.ID, []byte("i=0; while [ $i -lt 300 ]; do echo line-$i; i=$((i+1)); done; echo replay-end-marker\n")))

	sink := &stubSink{}
	_, _, err := m.Attach(info.ID, sink, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(sink.contents(), "replay-end-marker")
	}, 5*time.Second, 20*time.Millisecond)

	// Every chunk lands in exactly one of history replay or live
	// stream, so once output quiesces the sink converges on the
	// scrollback exactly; a duplicated or reordered chunk would keep
	// them apart forever.
	require.Eventually(t, func() bool {
		out, err := m.Read(info.ID)
		return err == nil && sink.contents() == string(out)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestFocusForwardsToAttachedClient(t *testing.T) {
	m := newTestManager()
	info := createTestSession(t, m)

	assert.Error(t, m.Focus(info.ID), "focus with no client attached")

	sink := &stubSink{}
	_, _, err := m.Attach(info.ID, sink, nil)
	require.NoError(t, err)

	require.NoError(t, m.Focus(info.ID))
	assert.Equal(t, 1, sink.focusCount())

	m.Detach(info.ID)
	assert.Error(t, m.Focus(info.ID), "focus after detach")
	assert.Equal(t, 1, sink.focusCount())
}

func TestResize(t *testing.T) {
	m := newTestManager()
	info := createTestSession(t, m)

	require.NoError(t, m.Resize(info.ID, 120, 40))

	got, err := m.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.Cols)
	assert.Equal(t, 40, got.Rows)
}

func TestKillRemovesSession(t *testing.T) {
	m := newTestManager()
	info := createTestSession(t, m)

	sink := &stubSink{}
	eng, _, err := m.Attach(info.ID, sink, nil)
	require.NoError(t, err)

	require.NoError(t, m.Kill(info.ID))

	assert.True(t, eng.Disposed())
	_, err = m.Get(info.ID)
	assert.Error(t, err)
	assert.Error(t, m.Write(info.ID, []byte("x")))
}

func TestKillUnknownSession(t *testing.T) {
	m := newTestManager()
	assert.Error(t, m.Kill("sess_missing"))
}

func TestList(t *testing.T) {
	m := newTestManager()
	first := createTestSession(t, m)
	second := createTestSession(t, m)

	infos := m.List()
	require.Len(t, infos, 2)

	ids := map[string]bool{}
	for _, info := range infos {
		ids[info.ID] = true
	}
	assert.True(t, ids[first.ID])
	assert.True(t, ids[second.ID])
}

func TestShutdownKillsAll(t *testing.T) {
	m := newTestManager()
	createTestSession(t, m)
	createTestSession(t, m)

	m.Shutdown()
	assert.Empty(t, m.List())
}

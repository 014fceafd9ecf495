package ptysession

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SignalExitCode(t *testing.T) {
	requireTool(t, "sh")

	s, err := startSession([]string{"sh", "-c", "kill -TERM $$"}, t.TempDir(), os.Environ(), 80, 24, 0)
	require.NoError(t, err)

	out := s.await(5*time.Second, nil, 0, 50*time.Millisecond)
	assert.Equal(t, ReasonNormal, out.reason)
	assert.Equal(t, 128+15, out.exitCode)
}

func TestSession_ExitCode(t *testing.T) {
	requireTool(t, "sh")

	s, err := startSession([]string{"sh", "-c", "echo done; exit 3"}, t.TempDir(), os.Environ(), 80, 24, 0)
	require.NoError(t, err)

	out := s.await(5*time.Second, nil, 0, time.Second)
	assert.Equal(t, 3, out.exitCode)
	assert.Contains(t, out.raw, "done")
}

func TestSession_NoWritesAfterResolution(t *testing.T) {
	requireTool(t, "cat")

	s, err := startSession([]string{"cat"}, t.TempDir(), os.Environ(), 80, 24, 0)
	require.NoError(t, err)

	out := s.await(100*time.Millisecond, nil, 0, 0)
	assert.Equal(t, ReasonTimeout, out.reason)

	assert.False(t, s.write("late\n"))
	assert.False(t, s.resolve(), "second resolution must be a no-op")
	assert.False(t, s.sleep(time.Hour), "sleep returns immediately once resolved")
}

func TestSession_SealStopsAppending(t *testing.T) {
	s := &session{}
	s.append([]byte("before"))
	raw, _ := s.seal()
	s.append([]byte("after"))

	assert.Equal(t, "before", raw)
	assert.Equal(t, "before", s.raw.String())
}

func TestSession_RawCap(t *testing.T) {
	s := &session{rawCap: 5}
	s.append([]byte("abc"))
	s.append([]byte("defgh"))
	s.append([]byte("ij"))

	raw, overflow := s.seal()
	assert.Equal(t, "abcde", raw)
	assert.True(t, overflow)
}

func TestSession_TimeoutWithBlockedWrite(t *testing.T) {
	requireTool(t, "sh", "stty")

	// A raw-mode child that never reads lets a large write fill the PTY
	// buffer and block.
	s, err := startSession([]string{"sh", "-c", "stty raw -echo; sleep 30"}, t.TempDir(), os.Environ(), 80, 24, 0)
	require.NoError(t, err)

	inputs := []Input{{Wait: 10 * time.Millisecond, Send: strings.Repeat("x", 1<<20)}}
	done := make(chan outcome, 1)
	go func() { done <- s.await(time.Second, inputs, 100*time.Millisecond, 0) }()

	select {
	case out := <-done:
		assert.Equal(t, ReasonTimeout, out.reason)
		assert.Equal(t, TimeoutExitCode, out.exitCode)
	case <-time.After(8 * time.Second):
		t.Fatal("session did not resolve while a write was blocked")
	}
}

func TestSession_ScriptedInputSpacing(t *testing.T) {
	requireTool(t, "head")

	s, err := startSession([]string{"head", "-n", "2"}, t.TempDir(), os.Environ(), 80, 24, 0)
	require.NoError(t, err)

	start := time.Now()
	out := s.await(10*time.Second, []Input{
		{Wait: 100 * time.Millisecond, Send: "a\n"},
		{Wait: 200 * time.Millisecond, Send: "b\n"},
	}, DefaultInitialDelay, time.Second)
	require.Equal(t, ReasonNormal, out.reason)
	assert.Equal(t, 0, out.exitCode)

	sent := s.writeTimes()
	require.Len(t, sent, 2)
	assert.GreaterOrEqual(t, sent[0].Sub(start), DefaultInitialDelay+100*time.Millisecond)
	assert.GreaterOrEqual(t, sent[1].Sub(sent[0]), 200*time.Millisecond)
}

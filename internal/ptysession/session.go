package ptysession

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

type state int

const (
	stateSpawned state = iota
	stateAwaitingOutcome
	stateResolved
)

// session is one PTY-backed process. It is owned by a single Run call and
// never shared.
type session struct {
	cmd  *exec.Cmd
	ptmx *os.File

	// mu guards state, raw, sealed and sentAt. It is never held across
	// PTY I/O.
	mu     sync.Mutex
	state  state
	raw    bytes.Buffer
	rawCap int
	// overflow is set when output was dropped because raw reached rawCap.
	overflow bool
	// sealed stops the reader from appending once the transcript is taken.
	sealed bool
	// sentAt records when each scripted input finished writing.
	sentAt []time.Time

	// writeMu serializes writes to ptmx. A write can block on a child that
	// does not read its input, so resolution must never wait for it.
	writeMu sync.Mutex

	exitCh   chan error    // receives the cmd.Wait result once
	readDone chan struct{} // closed when the reader stops
	done     chan struct{} // closed on resolution; cancels input delivery
}

type outcome struct {
	raw      string
	overflow bool
	exitCode int
	reason   Reason
}

func startSession(argv []string, dir string, env []string, cols, rows uint16, rawCap int) (*session, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, err
	}

	s := &session{
		cmd:      cmd,
		ptmx:     ptmx,
		state:    stateSpawned,
		rawCap:   rawCap,
		exitCh:   make(chan error, 1),
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	go s.waitForExit()
	return s, nil
}

func (s *session) readLoop() {
	defer close(s.readDone)
	buf := make([]byte, 8192)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.append(buf[:n])
		}
		if err != nil {
			// EIO once the slave side is gone, ErrClosed after close.
			return
		}
	}
}

func (s *session) append(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	if s.rawCap > 0 && s.raw.Len()+len(chunk) > s.rawCap {
		chunk = chunk[:max(0, s.rawCap-s.raw.Len())]
		s.overflow = true
	}
	s.raw.Write(chunk)
}

// The PTY master stays open across cmd.Wait, so unlike pipe mode there is
// no need to drain the reader first.
func (s *session) waitForExit() {
	s.exitCh <- s.cmd.Wait()
}

// await blocks until the process exits or the timeout fires, whichever is
// first, and returns the single outcome of the session.
func (s *session) await(timeout time.Duration, inputs []Input, initialDelay, drainGrace time.Duration) outcome {
	s.mu.Lock()
	s.state = stateAwaitingOutcome
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	if len(inputs) > 0 {
		go s.deliver(inputs, initialDelay)
	}

	select {
	case err := <-s.exitCh:
		s.resolve()
		s.drain(drainGrace)
		raw, overflow := s.seal()
		_ = s.ptmx.Close()
		return outcome{raw: raw, overflow: overflow, exitCode: exitCode(err), reason: ReasonNormal}

	case <-timer.C:
		s.resolve()
		killGroup(s.cmd)
		// Closing the master fails any write still blocked on it.
		_ = s.ptmx.Close()
		raw, overflow := s.seal()
		return outcome{raw: raw, overflow: overflow, exitCode: TimeoutExitCode, reason: ReasonTimeout}
	}
}

// resolve performs the one terminal transition. Input delivery checks the
// state before each write, so no new write starts after this returns.
func (s *session) resolve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateResolved {
		return false
	}
	s.state = stateResolved
	close(s.done)
	return true
}

// drain gives the reader a bounded window to pick up output the process
// wrote just before exiting. A background child can keep the slave open
// indefinitely, hence the bound.
func (s *session) drain(grace time.Duration) {
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-s.readDone:
	case <-t.C:
	}
}

func (s *session) seal() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
	return s.raw.String(), s.overflow
}

// deliver writes the scripted inputs in order: an initial delay, then for
// each item its own wait followed by the write.
func (s *session) deliver(inputs []Input, initialDelay time.Duration) {
	if !s.sleep(initialDelay) {
		return
	}
	for _, in := range inputs {
		if !s.sleep(in.Wait) {
			return
		}
		if !s.write(in.Send) {
			return
		}
	}
}

func (s *session) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.done:
		return false
	}
}

// write sends data unless the session has resolved. A write already in
// progress when the session resolves is cut short by closing the master.
func (s *session) write(data string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.resolved() {
		return false
	}
	if _, err := io.WriteString(s.ptmx, data); err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentAt = append(s.sentAt, time.Now())
	return true
}

func (s *session) resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateResolved
}

// writeTimes returns when each scripted input was written.
func (s *session) writeTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.sentAt...)
}

// exitCode maps a cmd.Wait result to a shell-style status: the process code,
// or 128+N when terminated by signal N.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}

package term

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	creackpty "github.com/creack/pty"
	"golang.org/x/sys/unix"
)

const (
	readBufSize  = 64 * 1024
	pollInterval = 50 * time.Millisecond
)

var (
	// ErrNotRunning is returned by Detach on a stopped or never-started session.
	ErrNotRunning = errors.New("term: session is not running")
	// ErrStateConsumed is returned by Reattach when the detached state was
	// already handed to another session.
	ErrStateConsumed = errors.New("term: detached state already consumed")
)

// EventType discriminates session events.
type EventType int

const (
	// EventOutput signals that new bytes reached the interpreter and the
	// grid needs a redraw. Coalesced: one pending event covers any number
	// of reads.
	EventOutput EventType = iota
	// EventEnded signals that the child exited or the pty failed hard.
	EventEnded
)

// Event is delivered on the session's event channel.
type Event struct {
	Type EventType
	// ExitCode is valid only for EventEnded with ExitKnown true.
	ExitCode  int
	ExitKnown bool
}

// Session owns a child process and its pty master. All I/O with the child
// goes through it. A session exclusively owns its fd and pid while running;
// Detach transfers that ownership out, Stop destroys it.
type Session struct {
	ptmx    *os.File
	pid     int
	interp  Interpreter
	command string
	workDir string

	events chan Event
	cancel chan struct{}
	done   chan struct{}

	mu       sync.Mutex
	running  bool
	detached bool
	stopped  bool
}

// DetachedState carries a live shell across session teardown: the pty
// master, the child pid, and the interpreter holding the grid. Produced
// by exactly one Detach, consumed by at most one Reattach.
type DetachedState struct {
	ptmx   *os.File
	pid    int
	interp Interpreter

	mu       sync.Mutex
	consumed bool
}

// Discard consumes the state without resuming: the child gets SIGTERM and
// the fd is closed. Safe to call on an already-consumed state.
func (d *DetachedState) Discard() {
	d.mu.Lock()
	if d.consumed {
		d.mu.Unlock()
		return
	}
	d.consumed = true
	ptmx := d.ptmx
	pid := d.pid
	d.ptmx = nil
	d.pid = 0
	d.mu.Unlock()

	if pid > 0 {
		_ = unix.Kill(pid, unix.SIGTERM)
		var ws unix.WaitStatus
		_, _ = unix.Wait4(pid, &ws, unix.WNOHANG, nil)
	}
	if ptmx != nil {
		_ = ptmx.Close()
	}
}

// Start spawns command inside a freshly allocated pty of the given size
// and begins reading from it. An empty command runs the user's shell.
// Spawn failures are returned once and never retried.
func Start(command, workDir string, rows, cols int) (*Session, error) {
	argv := shellArgv(command)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		fmt.Sprintf("COLUMNS=%d", cols),
		fmt.Sprintf("LINES=%d", rows),
	)

	ptmx, err := creackpty.StartWithSize(cmd, &creackpty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("spawn %q: %w", argv[0], err)
	}
	setNonblock(ptmx)

	s := &Session{
		ptmx:    ptmx,
		pid:     cmd.Process.Pid,
		interp:  NewInterpreter(rows, cols),
		command: command,
		workDir: workDir,
		events:  make(chan Event, 16),
		cancel:  make(chan struct{}),
		done:    make(chan struct{}),
		running: true,
	}
	go s.readLoop()
	return s, nil
}

// Reattach resumes a session over state produced by Detach, skipping the
// spawn. It fails if the state was already consumed or the child is gone.
func Reattach(state *DetachedState) (*Session, error) {
	if state == nil {
		return nil, ErrStateConsumed
	}
	state.mu.Lock()
	if state.consumed {
		state.mu.Unlock()
		return nil, ErrStateConsumed
	}
	if err := unix.Kill(state.pid, 0); err != nil {
		state.mu.Unlock()
		return nil, fmt.Errorf("process %d already exited: %w", state.pid, err)
	}
	state.consumed = true
	ptmx, pid, interp := state.ptmx, state.pid, state.interp
	state.mu.Unlock()

	s := &Session{
		ptmx:    ptmx,
		pid:     pid,
		interp:  interp,
		events:  make(chan Event, 16),
		cancel:  make(chan struct{}),
		done:    make(chan struct{}),
		running: true,
	}
	go s.readLoop()
	return s, nil
}

// Detach stops the read loop without touching the child or the fd and
// hands both to the caller. The session is left non-running and no longer
// owns anything, so a later Stop cannot double-close or double-kill.
func (s *Session) Detach() (*DetachedState, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil, ErrNotRunning
	}
	s.running = false
	s.detached = true
	close(s.cancel)
	s.mu.Unlock()

	// The loop holds no lock while reading; it wakes within one poll
	// interval. No new loop may start on this fd until it has exited.
	<-s.done
	close(s.events)

	state := &DetachedState{ptmx: s.ptmx, pid: s.pid, interp: s.interp}
	s.ptmx = nil
	s.pid = 0
	return state, nil
}

// Stop terminates the session: best-effort SIGTERM, non-blocking reap,
// close the master fd. Idempotent; all failures are swallowed.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	wasRunning := s.running
	s.running = false
	ptmx := s.ptmx
	pid := s.pid
	s.ptmx = nil
	s.pid = 0
	if wasRunning {
		close(s.cancel)
	}
	s.mu.Unlock()

	if wasRunning {
		<-s.done
		close(s.events)
	}
	if pid > 0 {
		_ = unix.Kill(pid, unix.SIGTERM)
		var ws unix.WaitStatus
		_, _ = unix.Wait4(pid, &ws, unix.WNOHANG, nil)
	}
	if ptmx != nil {
		_ = ptmx.Close()
	}
}

// Write sends bytes to the child. Best-effort: errors are swallowed and
// surface later through the read loop as an EventEnded.
func (s *Session) Write(p []byte) {
	s.mu.Lock()
	ptmx := s.ptmx
	running := s.running
	s.mu.Unlock()
	if !running || ptmx == nil {
		return
	}
	_ = ptmx.SetWriteDeadline(time.Now().Add(pollInterval))
	_, _ = ptmx.Write(p)
}

// Resize pushes new dimensions to the interpreter and the kernel pty.
// Geometry failures are non-fatal; the terminal continues at stale size.
func (s *Session) Resize(rows, cols int) {
	if rows < 1 || cols < 1 {
		return
	}
	s.interp.Resize(rows, cols)
	s.mu.Lock()
	ptmx := s.ptmx
	s.mu.Unlock()
	if ptmx != nil {
		_ = creackpty.Setsize(ptmx, &creackpty.Winsize{
			Rows: uint16(rows),
			Cols: uint16(cols),
		})
		setNonblock(ptmx)
	}
}

// setNonblock restores non-blocking mode on the master. The size ioctls
// in creack/pty go through File.Fd(), which flips the descriptor back to
// blocking; read and write deadlines are inert on a blocking fd, and the
// read loop would then be uncancellable until the child emits a byte.
func setNonblock(ptmx *os.File) {
	_ = unix.SetNonblock(int(ptmx.Fd()), true)
}

// Events returns the session's event channel. EventOutput is coalesced;
// EventEnded arrives at most once, after which no more events follow.
func (s *Session) Events() <-chan Event { return s.events }

// Interpreter exposes the grid for rendering. Read-only by contract.
func (s *Session) Interpreter() Interpreter { return s.interp }

// Running reports whether the session currently owns a live read loop.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// readLoop is the single reader of the master fd. Bounded read deadlines
// double as the readiness wait: the loop wakes on data, on child exit, or
// within one poll interval of cancellation, whichever comes first.
func (s *Session) readLoop() {
	defer close(s.done)
	buf := make([]byte, readBufSize)
	for {
		select {
		case <-s.cancel:
			return
		default:
		}

		_ = s.ptmx.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.interp.Feed(buf[:n])
			s.notifyOutput()
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			// EOF or EIO: the child is gone. Any other error is treated
			// the same way and resolved via the exit-code lookup.
			s.finish()
			return
		}
	}
}

// notifyOutput marks the grid dirty. Coalesced: if a redraw is already
// pending the event is dropped.
func (s *Session) notifyOutput() {
	select {
	case s.events <- Event{Type: EventOutput}:
	default:
	}
}

// finish resolves the exit code and reports EventEnded, unless the loop
// raced with Detach or Stop, which already disowned the fd.
func (s *Session) finish() {
	s.mu.Lock()
	if s.detached || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	pid := s.pid
	s.mu.Unlock()

	code, known := reapExit(pid)
	s.events <- Event{Type: EventEnded, ExitCode: code, ExitKnown: known}
}

// reapExit waits for the child without ever blocking indefinitely: a few
// WNOHANG attempts cover the gap between pty EOF and the exit status
// becoming collectable. Unknown if the child is not reapable in time.
func reapExit(pid int) (code int, known bool) {
	if pid <= 0 {
		return 0, false
	}
	var ws unix.WaitStatus
	for range 5 {
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		if err != nil {
			return 0, false
		}
		if wpid == pid {
			if ws.Exited() {
				return ws.ExitStatus(), true
			}
			return 0, false
		}
		time.Sleep(10 * time.Millisecond)
	}
	return 0, false
}

// shellArgv turns a command string into an argv, defaulting to the user's
// shell. Commands with shell metacharacters run under sh -c.
func shellArgv(command string) []string {
	command = strings.TrimSpace(command)
	if command == "" {
		command = os.Getenv("SHELL")
	}
	if command == "" {
		command = "/bin/sh"
	}
	if strings.ContainsAny(command, "\n|&;$`") {
		return []string{"sh", "-c", command}
	}
	return strings.Fields(command)
}

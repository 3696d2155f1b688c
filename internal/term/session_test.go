package term

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testTimeout = 3 * time.Second

// gridText flattens the interpreter grid into one string for matching.
func gridText(in Interpreter) string {
	var b strings.Builder
	for y := 0; y < in.Rows(); y++ {
		for x := 0; x < in.Cols(); x++ {
			b.WriteRune(in.Cell(x, y).Glyph)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// waitGrid polls until the grid contains want or the timeout expires.
func waitGrid(t *testing.T, in Interpreter, want string) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if strings.Contains(gridText(in), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("grid never contained %q:\n%s", want, gridText(in))
}

// waitEnded drains events until the session reports the child exited.
func waitEnded(t *testing.T, s *Session) Event {
	t.Helper()
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatal("event channel closed before EventEnded")
			}
			if ev.Type == EventEnded {
				return ev
			}
		case <-time.After(testTimeout):
			t.Fatal("timed out waiting for EventEnded")
		}
	}
}

func TestSessionEcho(t *testing.T) {
	s, err := Start("echo hello", t.TempDir(), 5, 40)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	ev := waitEnded(t, s)
	if ev.ExitKnown && ev.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", ev.ExitCode)
	}
	waitGrid(t, s.Interpreter(), "hello")
}

func TestSessionExitCode(t *testing.T) {
	s, err := Start("false", t.TempDir(), 5, 40)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	ev := waitEnded(t, s)
	if !ev.ExitKnown {
		t.Skip("exit status not collectable in time")
	}
	if ev.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", ev.ExitCode)
	}
	if s.Running() {
		t.Error("session still running after EventEnded")
	}
}

func TestSessionStopIdempotent(t *testing.T) {
	s, err := Start("cat", t.TempDir(), 5, 40)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.Running() {
		t.Fatal("session not running after Start")
	}

	s.Stop()
	if s.Running() {
		t.Error("session running after Stop")
	}
	s.Stop() // must not panic or block

	if _, err := s.Detach(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Detach after Stop = %v, want ErrNotRunning", err)
	}
}

func TestSessionDetachReattach(t *testing.T) {
	s, err := Start("cat", t.TempDir(), 5, 40)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// cat with a tty echoes input back through the line discipline
	s.Write([]byte("first"))
	waitGrid(t, s.Interpreter(), "first")

	st, err := s.Detach()
	if err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if s.Running() {
		t.Error("session running after Detach")
	}
	if _, err := s.Detach(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Detach = %v, want ErrNotRunning", err)
	}

	s2, err := Reattach(st)
	if err != nil {
		t.Fatalf("Reattach: %v", err)
	}
	defer s2.Stop()

	// The grid carries over
	if !strings.Contains(gridText(s2.Interpreter()), "first") {
		t.Error("grid lost across detach/reattach")
	}

	// The shell is the same live process
	s2.Write([]byte("second"))
	waitGrid(t, s2.Interpreter(), "second")

	if _, err := Reattach(st); !errors.Is(err, ErrStateConsumed) {
		t.Errorf("second Reattach = %v, want ErrStateConsumed", err)
	}
}

func TestSessionDetachIdleShell(t *testing.T) {
	// A shell producing no output must still detach within the poll
	// interval; the read loop may never sit in an unbounded read.
	s, err := Start("cat", t.TempDir(), 5, 40)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Resize(10, 60) // the size ioctl must not re-block the fd

	done := make(chan *DetachedState, 1)
	go func() {
		st, err := s.Detach()
		if err != nil {
			t.Errorf("Detach: %v", err)
		}
		done <- st
	}()

	select {
	case st := <-done:
		if st != nil {
			st.Discard()
		}
	case <-time.After(testTimeout):
		t.Fatal("Detach blocked on an idle shell")
	}
}

func TestDetachedStateDiscard(t *testing.T) {
	s, err := Start("cat", t.TempDir(), 5, 40)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	st, err := s.Detach()
	if err != nil {
		t.Fatalf("Detach: %v", err)
	}

	st.Discard()
	st.Discard() // idempotent

	if _, err := Reattach(st); !errors.Is(err, ErrStateConsumed) {
		t.Errorf("Reattach after Discard = %v, want ErrStateConsumed", err)
	}
}

func TestReattachNil(t *testing.T) {
	if _, err := Reattach(nil); !errors.Is(err, ErrStateConsumed) {
		t.Errorf("Reattach(nil) = %v, want ErrStateConsumed", err)
	}
}

func TestSessionResize(t *testing.T) {
	s, err := Start("cat", t.TempDir(), 5, 40)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	s.Resize(10, 60)
	if got := s.Interpreter().Rows(); got != 10 {
		t.Errorf("rows = %d, want 10", got)
	}
	if got := s.Interpreter().Cols(); got != 60 {
		t.Errorf("cols = %d, want 60", got)
	}

	s.Stop()
	s.Resize(20, 80) // no-op on a stopped session, must not panic
}

func TestShellArgv(t *testing.T) {
	tests := []struct {
		name    string
		command string
		expect  []string
	}{
		{name: "plain command splits on fields", command: "echo hi", expect: []string{"echo", "hi"}},
		{name: "pipe runs under sh", command: "ls | wc -l", expect: []string{"sh", "-c", "ls | wc -l"}},
		{name: "semicolon runs under sh", command: "cd /; ls", expect: []string{"sh", "-c", "cd /; ls"}},
		{name: "dollar runs under sh", command: "echo $HOME", expect: []string{"sh", "-c", "echo $HOME"}},
		{name: "whitespace trimmed", command: "  cat  ", expect: []string{"cat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shellArgv(tt.command)
			if len(got) != len(tt.expect) {
				t.Fatalf("shellArgv(%q) = %v, want %v", tt.command, got, tt.expect)
			}
			for i := range got {
				if got[i] != tt.expect[i] {
					t.Fatalf("shellArgv(%q) = %v, want %v", tt.command, got, tt.expect)
				}
			}
		})
	}
}

// Package mux isolates each lst instance in its own tmux server so
// concurrent instances never collide: one socket per root path, a status
// bar, and a C-t binding that toggles between the app window and a plain
// shell window. When tmux is missing or disabled the app simply runs
// unmultiplexed.
package mux

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

const (
	// InsideEnvVar marks a process already running inside a managed
	// session, so nested launches skip the launcher.
	InsideEnvVar = "_LST_INSIDE_TMUX"

	// SocketPrefix namespaces our tmux sockets away from the user's own.
	SocketPrefix = "lst_"
)

// Runner abstracts tmux invocation so tests can fake it.
type Runner interface {
	Run(name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes a command and returns its combined output.
func (ExecRunner) Run(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// SessionInfo describes one live managed session.
type SessionInfo struct {
	Socket string
	Root   string
}

// Multiplexer wraps all tmux interaction. The lookPath, execReplace and
// getenv seams exist for tests; production code uses New.
type Multiplexer struct {
	runner      Runner
	lookPath    func(file string) (string, error)
	execReplace func(argv0 string, argv, env []string) error
	getenv      func(key string) string
}

// New returns a Multiplexer bound to the real tmux binary and process
// environment.
func New() *Multiplexer {
	return &Multiplexer{
		runner:      ExecRunner{},
		lookPath:    exec.LookPath,
		execReplace: syscall.Exec,
		getenv:      os.Getenv,
	}
}

// SocketName derives the per-root socket id: a stable hash of the target
// path, so repeated launches against the same path reattach instead of
// creating a duplicate server.
func SocketName(rootPath string) string {
	sum := sha256.Sum256([]byte(rootPath))
	return SocketPrefix + hex.EncodeToString(sum[:])[:8]
}

// ShouldWrap reports whether the launcher applies: tmux must be on PATH
// and the process must not already run inside tmux (ours or the user's).
func (m *Multiplexer) ShouldWrap() bool {
	if _, err := m.lookPath("tmux"); err != nil {
		return false
	}
	return m.getenv(InsideEnvVar) == "" && m.getenv("TMUX") == ""
}

// Ensure attaches to the session for rootPath, creating it first if
// needed. On success it replaces the current process image with tmux
// attach and never returns.
func (m *Multiplexer) Ensure(rootPath string, argv []string) error {
	tmuxBin, err := m.lookPath("tmux")
	if err != nil {
		return fmt.Errorf("tmux not found: %w", err)
	}
	sock := SocketName(rootPath)

	// Existing server for this path: just attach.
	if _, err := m.runner.Run(tmuxBin, "-L", sock, "has-session"); err == nil {
		return m.attach(tmuxBin, sock)
	}

	// Window 0 runs the app with the marker set so the inner instance
	// skips the launcher.
	inner := InsideEnvVar + "=1 " + quoteArgv(argv)
	if _, err := m.runner.Run(tmuxBin, "-L", sock,
		"new-session", "-d", "-s", "main", "-n", "lst",
		"-c", rootPath, inner); err != nil {
		return fmt.Errorf("tmux new-session: %w", err)
	}

	// Remember the root so `lst sessions` can show it.
	_, _ = m.runner.Run(tmuxBin, "-L", sock, "set-environment", "-g", "LST_ROOT", rootPath)

	_, _ = m.runner.Run(tmuxBin, "-L", sock, "set-option", "-g", "status-left",
		fmt.Sprintf(" lst [%s] ", filepath.Base(rootPath)))
	_, _ = m.runner.Run(tmuxBin, "-L", sock, "set-option", "-g", "status-right",
		" C-t: toggle terminal ")
	_, _ = m.runner.Run(tmuxBin, "-L", sock, "set-option", "-g", "status-style",
		"bg=#1a1a2e,fg=#58a6ff")

	// C-t: lazily create the shell window, then toggle between it and
	// the app window.
	toggle := fmt.Sprintf(
		"if [ $(tmux -L %[1]s list-windows | wc -l) -eq 1 ]; then "+
			"tmux -L %[1]s new-window -n term; "+
			"else tmux -L %[1]s last-window; fi", sock)
	_, _ = m.runner.Run(tmuxBin, "-L", sock, "bind-key", "-n", "C-t", "run-shell", toggle)

	return m.attach(tmuxBin, sock)
}

// Teardown kills the managed server this process runs inside. Outside a
// managed session it is a no-op, so quitting an unmultiplexed lst never
// touches the user's tmux.
func (m *Multiplexer) Teardown() {
	if m.getenv(InsideEnvVar) == "" {
		return
	}
	// $TMUX is "socketpath,pid,pane"; the socket base name is ours if it
	// carries our prefix.
	tmuxEnv := m.getenv("TMUX")
	if tmuxEnv == "" {
		return
	}
	sock := filepath.Base(strings.SplitN(tmuxEnv, ",", 2)[0])
	if !strings.HasPrefix(sock, SocketPrefix) {
		return
	}
	tmuxBin, err := m.lookPath("tmux")
	if err != nil {
		return
	}
	_, _ = m.runner.Run(tmuxBin, "-L", sock, "kill-server")
}

// Kill shuts down the server for rootPath, if one is running.
func (m *Multiplexer) Kill(rootPath string) error {
	tmuxBin, err := m.lookPath("tmux")
	if err != nil {
		return fmt.Errorf("tmux not found: %w", err)
	}
	sock := SocketName(rootPath)
	if _, err := m.runner.Run(tmuxBin, "-L", sock, "has-session"); err != nil {
		return fmt.Errorf("no session for %s", rootPath)
	}
	_, err = m.runner.Run(tmuxBin, "-L", sock, "kill-server")
	return err
}

// List returns all live lst sessions by scanning the tmux socket
// directory for our prefix and probing each server.
func (m *Multiplexer) List() ([]SessionInfo, error) {
	tmuxBin, err := m.lookPath("tmux")
	if err != nil {
		return nil, nil
	}

	dir := m.getenv("TMUX_TMPDIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("tmux-%d", os.Getuid()))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil
	}

	var sessions []SessionInfo
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), SocketPrefix) {
			continue
		}
		sock := e.Name()
		if _, err := m.runner.Run(tmuxBin, "-L", sock, "has-session"); err != nil {
			continue
		}
		root, _ := m.runner.Run(tmuxBin, "-L", sock, "show-environment", "-g", "LST_ROOT")
		if idx := strings.IndexByte(root, '='); idx >= 0 {
			root = root[idx+1:]
		} else {
			root = ""
		}
		sessions = append(sessions, SessionInfo{Socket: sock, Root: root})
	}
	return sessions, nil
}

// attach replaces the current process with tmux attach. TMUX is filtered
// from the environment so attaching works even from inside another tmux.
func (m *Multiplexer) attach(tmuxBin, sock string) error {
	return m.execReplace(tmuxBin,
		[]string{"tmux", "-L", sock, "attach-session"},
		filterTMUX(os.Environ()))
}

// filterTMUX removes the TMUX env var.
func filterTMUX(env []string) []string {
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, "TMUX=") {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// quoteArgv single-quotes each argument for the shell command tmux runs.
func quoteArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simon/lst/internal/config"
)

// makeTree builds root/{alpha,beta}/ plus root/notes.txt.
func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"alpha", "beta"} {
		if err := os.Mkdir(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func press(m Model, msg tea.KeyMsg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelListsDirectoriesFirst(t *testing.T) {
	root := makeTree(t)
	m := NewModel(root, "", &config.Config{}, nil)

	if len(m.entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(m.entries))
	}
	want := []string{"alpha", "beta", "notes.txt"}
	for i, name := range want {
		if m.entries[i].name != name {
			t.Errorf("entries[%d] = %q, want %q", i, m.entries[i].name, name)
		}
	}
	if !m.entries[0].isDir || m.entries[2].isDir {
		t.Error("directory flags wrong")
	}
}

func TestModelNavigation(t *testing.T) {
	root := makeTree(t)
	m := NewModel(root, "", &config.Config{}, nil)
	m.width, m.height = 80, 24

	// Down to beta, enter it
	m = press(m, runes("j"))
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.cwd != filepath.Join(root, "beta") {
		t.Fatalf("cwd = %q, want beta", m.cwd)
	}

	// Back lands the cursor on the directory we left
	m = press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.cwd != root {
		t.Fatalf("cwd = %q, want root", m.cwd)
	}
	if sel := m.selected(); sel == nil || sel.name != "beta" {
		t.Errorf("cursor not restored to beta after going back")
	}

	// Back at the root is a no-op
	m = press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.cwd != root {
		t.Errorf("backspace escaped the root: %q", m.cwd)
	}
}

func TestModelEnterOnFileDoesNothing(t *testing.T) {
	root := makeTree(t)
	m := NewModel(root, "", &config.Config{}, nil)

	m = press(m, runes("j"))
	m = press(m, runes("j")) // notes.txt
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.cwd != root {
		t.Errorf("entering a file changed cwd to %q", m.cwd)
	}
}

func TestModelStartPath(t *testing.T) {
	root := makeTree(t)
	sub := filepath.Join(root, "alpha")

	m := NewModel(root, sub, &config.Config{}, nil)
	if m.cwd != sub {
		t.Errorf("cwd = %q, want remembered %q", m.cwd, sub)
	}

	// A remembered path outside the root is ignored
	m = NewModel(root, t.TempDir(), &config.Config{}, nil)
	if m.cwd != root {
		t.Errorf("cwd = %q, want root for out-of-tree start path", m.cwd)
	}
}

func TestModelQuit(t *testing.T) {
	root := makeTree(t)
	m := NewModel(root, "", &config.Config{}, nil)

	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("quit produced no command")
	}
	if !next.(Model).quitting {
		t.Error("quitting flag not set")
	}
}

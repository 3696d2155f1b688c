package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simon/lst/internal/config"
	"github.com/simon/lst/internal/state"
	"github.com/simon/lst/internal/term"
)

type entry struct {
	name  string
	isDir bool
}

type Model struct {
	root         string
	cwd          string
	entries      []entry
	cursor       int
	scrollOffset int

	terminal *Terminal
	// parked holds a detached shell between overlay toggles. At most one;
	// opening the overlay consumes it.
	parked *term.DetachedState

	cfg   *config.Config
	store *state.Store // nil when state persistence is unavailable
	theme term.Theme

	width, height int
	notice        string
	err           error
	quitting      bool
}

func NewModel(root, startPath string, cfg *config.Config, store *state.Store) Model {
	m := Model{
		root:  root,
		cwd:   root,
		cfg:   cfg,
		store: store,
		theme: term.ByName(cfg.Theme),
	}
	if startPath != "" && within(root, startPath) {
		if fi, err := os.Stat(startPath); err == nil && fi.IsDir() {
			m.cwd = startPath
		}
	}
	m.loadEntries()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) loadEntries() {
	m.entries = nil
	ents, err := os.ReadDir(m.cwd)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	for _, e := range ents {
		m.entries = append(m.entries, entry{name: e.Name(), isDir: e.IsDir()})
	}
	// Directories first, then case-insensitive by name
	sort.SliceStable(m.entries, func(i, j int) bool {
		a, b := m.entries[i], m.entries[j]
		if a.isDir != b.isDir {
			return a.isDir
		}
		return strings.ToLower(a.name) < strings.ToLower(b.name)
	})
	if m.cursor >= len(m.entries) {
		m.cursor = max(0, len(m.entries)-1)
	}
	m.scrollOffset = 0
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.terminal != nil {
			m.terminal.setSize(msg.Width, msg.Height)
		}
		return m, nil

	case termOutputMsg:
		if msg.owner != m.terminal {
			return m, nil
		}
		return m, m.terminal.waitEvent()

	case termEndedMsg:
		if msg.owner != m.terminal {
			return m, nil
		}
		m.terminal.stop()
		m.terminal = nil
		if msg.known {
			m.notice = fmt.Sprintf("shell exited (%d)", msg.code)
		} else {
			m.notice = "shell exited"
		}
		return m, nil

	case blinkMsg:
		if msg.owner != m.terminal {
			return m, nil
		}
		return m, m.terminal.blink()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the overlay is up every key belongs to the shell except the
	// toggle and the close chord. Ctrl+C included: it is the shell's
	// interrupt, not ours.
	if m.terminal != nil {
		switch {
		case key.Matches(msg, keys.Terminal):
			return m.parkTerminal()
		case msg.String() == term.CloseKey:
			m.terminal.stop()
			m.terminal = nil
			return m, nil
		default:
			m.terminal.handleKey(msg)
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Terminal):
		return m.openTerminal()

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
		m.notice = ""
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
		m.notice = ""
		return m, nil

	case key.Matches(msg, keys.Enter):
		if sel := m.selected(); sel != nil && sel.isDir {
			m.cwd = filepath.Join(m.cwd, sel.name)
			m.cursor = 0
			m.loadEntries()
			m.savePath()
		}
		m.notice = ""
		return m, nil

	case key.Matches(msg, keys.Back):
		if m.cwd != m.root {
			prev := filepath.Base(m.cwd)
			m.cwd = filepath.Dir(m.cwd)
			m.cursor = 0
			m.loadEntries()
			// Land on the directory we just left
			for i, e := range m.entries {
				if e.name == prev {
					m.cursor = i
					break
				}
			}
			m.ensureCursorVisible()
			m.savePath()
		}
		m.notice = ""
		return m, nil
	}

	return m, nil
}

// openTerminal shows the overlay, resuming the parked shell if one
// exists, otherwise spawning a fresh one in the current directory.
func (m Model) openTerminal() (Model, tea.Cmd) {
	m.notice = ""
	var t *Terminal
	var err error
	if m.parked != nil {
		t, err = reattachTerminal(m.parked, m.width, m.height, m.theme)
		if err != nil {
			// The shell died while parked; fall through to a new one
			m.parked.Discard()
			t, err = newTerminal(m.cfg.Shell, m.cwd, m.width, m.height, m.theme)
		}
		m.parked = nil
	} else {
		t, err = newTerminal(m.cfg.Shell, m.cwd, m.width, m.height, m.theme)
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	m.terminal = t
	return m, t.init()
}

// parkTerminal hides the overlay, keeping the shell alive for the next
// toggle.
func (m Model) parkTerminal() (Model, tea.Cmd) {
	st, err := m.terminal.detach()
	if err != nil {
		// Not running anymore; nothing to park
		m.terminal.stop()
		m.terminal = nil
		return m, nil
	}
	m.parked = st
	m.terminal = nil
	return m, nil
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	m.savePath()
	if m.parked != nil {
		m.parked.Discard()
		m.parked = nil
	}
	if m.store != nil {
		m.store.Close()
	}
	return m, tea.Quit
}

func (m *Model) savePath() {
	if m.store != nil {
		_ = m.store.SavePath(m.root, m.cwd)
	}
}

func (m Model) selected() *entry {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return nil
	}
	e := m.entries[m.cursor]
	return &e
}

func (m Model) maxVisibleEntries() int {
	// Header, path line and footer take four rows
	vis := m.height - 4
	if vis < 1 {
		vis = 1
	}
	return vis
}

func (m *Model) ensureCursorVisible() {
	maxVis := m.maxVisibleEntries()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+maxVis {
		m.scrollOffset = m.cursor - maxVis + 1
	}
	maxOffset := len(m.entries) - maxVis
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.scrollOffset > maxOffset {
		m.scrollOffset = maxOffset
	}
}

// within reports whether path sits under root.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simon/lst/internal/term"
)

const blinkInterval = 500 * time.Millisecond

// Terminal messages carry their owner so the host can drop messages from
// a widget that has since been closed or replaced.
type termOutputMsg struct {
	owner *Terminal
}

type termEndedMsg struct {
	owner *Terminal
	code  int
	known bool
}

type blinkMsg struct {
	owner *Terminal
}

// Terminal is the fullscreen overlay hosting one PTY session. It owns the
// session while visible; hiding it detaches the session instead of
// killing it, so the shell survives the widget.
type Terminal struct {
	session *term.Session
	theme   term.Theme
	focused bool
	blinkOn bool
	width   int
	height  int
}

// newTerminal spawns a fresh session sized to the widget.
func newTerminal(shell, cwd string, width, height int, theme term.Theme) (*Terminal, error) {
	rows, cols := innerSize(width, height)
	s, err := term.Start(shell, cwd, rows, cols)
	if err != nil {
		return nil, err
	}
	return &Terminal{session: s, theme: theme, focused: true, blinkOn: true, width: width, height: height}, nil
}

// reattachTerminal resumes a parked session.
func reattachTerminal(state *term.DetachedState, width, height int, theme term.Theme) (*Terminal, error) {
	s, err := term.Reattach(state)
	if err != nil {
		return nil, err
	}
	t := &Terminal{session: s, theme: theme, focused: true, blinkOn: true}
	t.setSize(width, height)
	return t, nil
}

// init returns the commands the overlay needs running: the event pump and
// the blink ticker.
func (t *Terminal) init() tea.Cmd {
	return tea.Batch(t.waitEvent(), t.blinkTick())
}

// waitEvent delivers the next session event as a bubbletea message. The
// chain ends on its own when the session detaches or stops, because both
// close the event channel.
func (t *Terminal) waitEvent() tea.Cmd {
	s := t.session
	return func() tea.Msg {
		ev, ok := <-s.Events()
		if !ok {
			return nil
		}
		if ev.Type == term.EventEnded {
			return termEndedMsg{owner: t, code: ev.ExitCode, known: ev.ExitKnown}
		}
		return termOutputMsg{owner: t}
	}
}

func (t *Terminal) blinkTick() tea.Cmd {
	return tea.Tick(blinkInterval, func(time.Time) tea.Msg {
		return blinkMsg{owner: t}
	})
}

// blink advances the cursor phase. No work while unfocused: the ticker is
// simply not re-armed until focus returns.
func (t *Terminal) blink() tea.Cmd {
	if !t.focused {
		return nil
	}
	t.blinkOn = !t.blinkOn
	return t.blinkTick()
}

// handleKey translates and forwards one key press. The reserved close
// chord and the toggle are handled by the host, never here.
func (t *Terminal) handleKey(msg tea.KeyMsg) {
	if seq := term.Translate(msg.String()); len(seq) > 0 {
		t.session.Write(seq)
	}
}

func (t *Terminal) setSize(width, height int) {
	t.width = width
	t.height = height
	rows, cols := innerSize(width, height)
	t.session.Resize(rows, cols)
}

// detach parks the live shell and abandons the widget.
func (t *Terminal) detach() (*term.DetachedState, error) {
	return t.session.Detach()
}

// stop kills the shell.
func (t *Terminal) stop() {
	t.session.Stop()
}

// innerSize converts widget dimensions to grid dimensions, accounting for
// the border and horizontal padding.
func innerSize(width, height int) (rows, cols int) {
	rows = height - 2
	cols = width - 4
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return rows, cols
}

// View renders the grid inside a themed border. Cells with identical
// styling are batched into runs so lipgloss is invoked per run, not per
// cell.
func (t *Terminal) View() string {
	grid := term.RenderRows(t.session.Interpreter(), t.focused, t.blinkOn, t.theme)

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		renderRow(&b, row)
	}

	borderColor := t.theme.Border
	if t.focused {
		borderColor = t.theme.BorderFocus
	}
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Background(lipgloss.Color(t.theme.Background)).
		Padding(0, 1)
	return frame.Render(b.String())
}

func renderRow(b *strings.Builder, row []term.StyledCell) {
	var run strings.Builder
	var cur term.StyledCell
	flush := func() {
		if run.Len() == 0 {
			return
		}
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(cur.FG)).
			Background(lipgloss.Color(cur.BG)).
			Bold(cur.Bold).
			Italic(cur.Italic).
			Underline(cur.Underline).
			Strikethrough(cur.Strikethrough).
			Blink(cur.Blink).
			Reverse(cur.Reverse)
		b.WriteString(style.Render(run.String()))
		run.Reset()
	}
	for i, c := range row {
		if i == 0 || !sameStyle(c, cur) {
			flush()
			cur = c
		}
		run.WriteRune(c.Glyph)
	}
	flush()
}

func sameStyle(a, b term.StyledCell) bool {
	return a.FG == b.FG && a.BG == b.BG &&
		a.Bold == b.Bold && a.Italic == b.Italic &&
		a.Underline == b.Underline && a.Strikethrough == b.Strikethrough &&
		a.Blink == b.Blink && a.Reverse == b.Reverse
}

package term

import (
	"sync"

	"github.com/hinshun/vt10x"
)

// Color identifies a cell color: 0-15 are the ANSI slots, 16-255 the
// xterm palette, larger values are packed truecolor (r<<16 | g<<8 | b).
// ColorDefault means "no explicit color, use the theme base".
type Color uint32

const ColorDefault Color = 1 << 30

// IsANSI reports whether the color is one of the 16 named ANSI slots.
func (c Color) IsANSI() bool { return c < 16 }

// Cell is one character cell of the terminal grid, read-only to callers.
type Cell struct {
	Glyph         rune
	FG, BG        Color
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Reverse       bool
	Blink         bool
}

// Interpreter is the escape-sequence state machine the session feeds.
// It owns the character grid and cursor; the session and render code
// only ever read from it.
type Interpreter interface {
	Feed(p []byte)
	Resize(rows, cols int)
	Rows() int
	Cols() int
	Cursor() (x, y int)
	CursorVisible() bool
	Cell(x, y int) Cell
}

// Bit layout of the vt10x glyph mode word. vt10x does not export these;
// the values match its st-derived attribute order.
const (
	vtAttrReverse   = 1 << 0
	vtAttrUnderline = 1 << 1
	vtAttrBold      = 1 << 2
	vtAttrItalic    = 1 << 4
	vtAttrBlink     = 1 << 5
)

// vtInterp adapts a vt10x virtual terminal to the Interpreter contract.
// A mutex serializes the feeding goroutine against render-time reads.
type vtInterp struct {
	mu sync.Mutex
	vt vt10x.Terminal
}

// NewInterpreter creates a vt10x-backed interpreter with the given grid size.
func NewInterpreter(rows, cols int) Interpreter {
	return &vtInterp{vt: vt10x.New(vt10x.WithSize(cols, rows))}
}

func (i *vtInterp) Feed(p []byte) {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, _ = i.vt.Write(p)
}

func (i *vtInterp) Resize(rows, cols int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.vt.Resize(cols, rows)
}

func (i *vtInterp) Rows() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, rows := i.vt.Size()
	return rows
}

func (i *vtInterp) Cols() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	cols, _ := i.vt.Size()
	return cols
}

func (i *vtInterp) Cursor() (x, y int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	c := i.vt.Cursor()
	return c.X, c.Y
}

func (i *vtInterp) CursorVisible() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.vt.CursorVisible()
}

func (i *vtInterp) Cell(x, y int) Cell {
	i.mu.Lock()
	defer i.mu.Unlock()
	g := i.vt.Cell(x, y)

	glyph := g.Char
	if glyph == 0 {
		glyph = ' '
	}
	return Cell{
		Glyph:     glyph,
		FG:        convertColor(g.FG, vt10x.DefaultFG),
		BG:        convertColor(g.BG, vt10x.DefaultBG),
		Bold:      g.Mode&vtAttrBold != 0,
		Italic:    g.Mode&vtAttrItalic != 0,
		Underline: g.Mode&vtAttrUnderline != 0,
		Reverse:   g.Mode&vtAttrReverse != 0,
		Blink:     g.Mode&vtAttrBlink != 0,
	}
}

// convertColor maps a vt10x color value to our Color space.
func convertColor(c, def vt10x.Color) Color {
	if c == def || c == vt10x.DefaultFG || c == vt10x.DefaultBG {
		return ColorDefault
	}
	return Color(c)
}

package term

// StyledCell is one drawable cell: glyph plus fully resolved colors.
type StyledCell struct {
	Glyph         rune
	FG, BG        string
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Blink         bool
	Reverse       bool
}

// RenderRows turns the interpreter's grid into drawable rows. Pure: it
// reads the grid and never mutates session or interpreter state. Symbolic
// cell colors resolve through the theme; unset colors fall back to the
// theme base fg/bg. The cursor cell is reversed only while the interpreter
// reports it visible, the terminal has focus, and the blink phase is on.
func RenderRows(in Interpreter, hasFocus, blinkOn bool, theme Theme) [][]StyledCell {
	rows := in.Rows()
	cols := in.Cols()
	if rows <= 0 || cols <= 0 {
		return nil
	}
	curX, curY := in.Cursor()
	showCursor := hasFocus && blinkOn && in.CursorVisible()

	out := make([][]StyledCell, rows)
	for y := 0; y < rows; y++ {
		line := make([]StyledCell, cols)
		for x := 0; x < cols; x++ {
			c := in.Cell(x, y)
			isCursor := showCursor && x == curX && y == curY
			line[x] = StyledCell{
				Glyph:         c.Glyph,
				FG:            theme.Resolve(c.FG, theme.Foreground),
				BG:            theme.Resolve(c.BG, theme.Background),
				Bold:          c.Bold,
				Italic:        c.Italic,
				Underline:     c.Underline,
				Strikethrough: c.Strikethrough,
				Blink:         c.Blink,
				Reverse:       c.Reverse != isCursor,
			}
		}
		out[y] = line
	}
	return out
}

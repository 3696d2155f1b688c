package term

import "fmt"

// Theme is an immutable named-color table. The 16 ANSI slots follow the
// usual order: black, red, green, yellow, blue, magenta, cyan, white,
// then the bright variants.
type Theme struct {
	Name        string
	Foreground  string
	Background  string
	Border      string
	BorderFocus string
	ANSI        [16]string
}

// GitHubDark is the default theme.
func GitHubDark() Theme {
	return Theme{
		Name:        "github-dark",
		Foreground:  "#c9d1d9",
		Background:  "#0d1117",
		Border:      "#30363d",
		BorderFocus: "#58a6ff",
		ANSI: [16]string{
			"#484f58", "#ff7b72", "#3fb950", "#d29922",
			"#58a6ff", "#bc8cff", "#39c5cf", "#b1bac4",
			"#6e7681", "#ffa198", "#56d364", "#e3b341",
			"#79c0ff", "#d2a8ff", "#56d4dd", "#f0f6fc",
		},
	}
}

// ByName returns the theme with the given name, falling back to github-dark.
func ByName(name string) Theme {
	switch name {
	case "", "github-dark":
		return GitHubDark()
	default:
		return GitHubDark()
	}
}

// Resolve maps a cell color to a concrete hex string. ColorDefault falls
// back to base, which the caller picks per channel (theme fg or bg).
func (t Theme) Resolve(c Color, base string) string {
	switch {
	case c == ColorDefault:
		return base
	case c < 16:
		return t.ANSI[c]
	case c < 256:
		r, g, b := xterm256(int(c))
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	default:
		return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
	}
}

// xterm256 converts a 16..255 palette index to RGB: a 6x6x6 color cube
// followed by a 24-step grayscale ramp.
func xterm256(idx int) (r, g, b int) {
	if idx < 232 {
		idx -= 16
		r = (idx / 36) * 51
		g = ((idx / 6) % 6) * 51
		b = (idx % 6) * 51
		return r, g, b
	}
	gray := (idx-232)*10 + 8
	return gray, gray, gray
}

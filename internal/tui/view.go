package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Adaptive colors for light/dark terminal backgrounds
	accentColor = lipgloss.AdaptiveColor{Light: "#D6249F", Dark: "#FF79C6"}
	dirColor    = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#8BE9FD"}
	dimColor    = lipgloss.AdaptiveColor{Light: "#777777", Dark: "#6272A4"}
	hlBgColor   = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#333333"}
	redColor    = lipgloss.AdaptiveColor{Light: "#B31D28", Dark: "#FF5555"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			PaddingLeft(1)

	pathStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	selectedRowStyle = lipgloss.NewStyle().
				Background(hlBgColor)

	dirStyle = lipgloss.NewStyle().
			Foreground(dirColor)

	errStyle = lipgloss.NewStyle().
			Foreground(redColor).
			PaddingLeft(1)

	noticeStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			PaddingLeft(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)
)

// shortenPath abbreviates a path for display (replaces $HOME with ~, truncates).
func shortenPath(path string, maxLen int) string {
	if path == "" {
		return ""
	}
	home, _ := os.UserHomeDir()
	if home != "" && strings.HasPrefix(path, home) {
		path = "~" + path[len(home):]
	}
	if len(path) <= maxLen {
		return path
	}
	return "…" + path[len(path)-(maxLen-1):]
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	// The terminal overlay replaces the browser entirely while visible
	if m.terminal != nil {
		return m.terminal.View()
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("lst"))
	b.WriteString("  ")
	b.WriteString(pathStyle.Render(shortenPath(m.cwd, max(20, m.width-8))))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	if len(m.entries) == 0 {
		b.WriteString(helpStyle.Render("(empty directory)"))
		b.WriteString("\n")
	} else {
		maxVis := m.maxVisibleEntries()
		end := m.scrollOffset + maxVis
		if end > len(m.entries) {
			end = len(m.entries)
		}

		for i := m.scrollOffset; i < end; i++ {
			e := m.entries[i]
			name := e.name
			if e.isDir {
				name = dirStyle.Render(name + "/")
			}
			if i == m.cursor {
				b.WriteString(cursorStyle.Render(" >"))
				b.WriteString(selectedRowStyle.Render(" " + name))
			} else {
				b.WriteString("   ")
				b.WriteString(name)
			}
			b.WriteString("\n")
		}

		if end < len(m.entries) {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  ↓ %d more", len(m.entries)-end)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
	} else {
		b.WriteString(helpStyle.Render("enter open  backspace up  ctrl+t terminal  j/k navigate  q quit"))
	}
	b.WriteString("\n")

	return b.String()
}

package term

import (
	"bytes"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		expect []byte
	}{
		{name: "arrow up", key: "up", expect: []byte("\x1b[A")},
		{name: "arrow down", key: "down", expect: []byte("\x1b[B")},
		{name: "page up", key: "pgup", expect: []byte("\x1b[5~")},
		{name: "page down", key: "pgdown", expect: []byte("\x1b[6~")},
		{name: "home", key: "home", expect: []byte("\x1b[H")},
		{name: "function key f1", key: "f1", expect: []byte("\x1bOP")},
		{name: "function key f12", key: "f12", expect: []byte("\x1b[24~")},
		{name: "enter is carriage return", key: "enter", expect: []byte("\r")},
		{name: "tab", key: "tab", expect: []byte("\t")},
		{name: "shift tab is reverse tab", key: "shift+tab", expect: []byte("\x1b[Z")},
		{name: "escape", key: "esc", expect: []byte("\x1b")},
		{name: "backspace is DEL", key: "backspace", expect: []byte{0x7f}},
		{name: "space", key: "space", expect: []byte(" ")},
		{name: "ctrl+a is SOH", key: "ctrl+a", expect: []byte{1}},
		{name: "ctrl+c is ETX", key: "ctrl+c", expect: []byte{3}},
		{name: "ctrl+z is SUB", key: "ctrl+z", expect: []byte{26}},
		{name: "ctrl chord with non-letter drops", key: "ctrl+1", expect: nil},
		{name: "alt chord prefixes ESC", key: "alt+f", expect: []byte{0x1b, 'f'}},
		{name: "printable rune forwards raw", key: "a", expect: []byte("a")},
		{name: "unicode rune forwards raw", key: "é", expect: []byte("é")},
		{name: "close chord never forwards", key: CloseKey, expect: nil},
		{name: "unknown named key drops", key: "f13", expect: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.key)
			if !bytes.Equal(got, tt.expect) {
				t.Errorf("Translate(%q) = %q, want %q", tt.key, got, tt.expect)
			}
		})
	}
}

package term

import "strings"

// CloseKey is the reserved chord that is never forwarded to the child.
// The host treats it as "close/hide the terminal".
const CloseKey = "ctrl+\\"

// Byte sequences for named keys, keyed by bubbletea key strings.
var keySequences = map[string][]byte{
	"up":     []byte("\x1b[A"),
	"down":   []byte("\x1b[B"),
	"right":  []byte("\x1b[C"),
	"left":   []byte("\x1b[D"),
	"home":   []byte("\x1b[H"),
	"end":    []byte("\x1b[F"),
	"insert": []byte("\x1b[2~"),
	"delete": []byte("\x1b[3~"),
	"pgup":   []byte("\x1b[5~"),
	"pgdown": []byte("\x1b[6~"),
	"f1":     []byte("\x1bOP"),
	"f2":     []byte("\x1bOQ"),
	"f3":     []byte("\x1bOR"),
	"f4":     []byte("\x1bOS"),
	"f5":     []byte("\x1b[15~"),
	"f6":     []byte("\x1b[17~"),
	"f7":     []byte("\x1b[18~"),
	"f8":     []byte("\x1b[19~"),
	"f9":     []byte("\x1b[20~"),
	"f10":    []byte("\x1b[21~"),
	"f11":    []byte("\x1b[23~"),
	"f12":    []byte("\x1b[24~"),

	"tab":       []byte("\t"),
	"shift+tab": []byte("\x1b[Z"),
	"enter":     []byte("\r"),
	"esc":       []byte("\x1b"),
	"backspace": []byte{0x7f},
	"space":     []byte(" "),
}

// Translate maps one key event to the byte sequence the child expects.
// Named keys use the table above, ctrl and alt chords become control bytes
// and ESC-prefixed characters, and printable keys forward their raw bytes.
// Anything else (including the reserved close chord) returns nil.
func Translate(key string) []byte {
	if key == CloseKey {
		return nil
	}
	if seq, ok := keySequences[key]; ok {
		return seq
	}
	if rest, ok := strings.CutPrefix(key, "ctrl+"); ok {
		if len(rest) == 1 && rest[0] >= 'a' && rest[0] <= 'z' {
			return []byte{rest[0] - 'a' + 1}
		}
		return nil
	}
	if rest, ok := strings.CutPrefix(key, "alt+"); ok {
		if len(rest) == 1 {
			return []byte{0x1b, rest[0]}
		}
		return nil
	}
	if len([]rune(key)) == 1 {
		return []byte(key)
	}
	return nil
}

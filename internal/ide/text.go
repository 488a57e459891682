package ide

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const ansiReset = "\x1b[0m"

var spinnerFrames = []string{"|", "/", "-", "\\"}

// truncateANSI cuts s to width visible cells, keeping escape sequences
// intact and marking the cut with an ellipsis.
func truncateANSI(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(stripANSI(s)) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}

	maxVisible := width - 1
	var b strings.Builder
	b.Grow(len(s) + 4)

	visible := 0
	sawEsc := false
	for i := 0; i < len(s); {
		if s[i] == 0x1b {
			sawEsc = true
			seq, n := readANSISequence(s[i:])
			if n > 0 {
				b.WriteString(seq)
				i += n
				continue
			}
			i++
			continue
		}
		r, n := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && n == 1 {
			i++
			continue
		}
		rw := runewidth.RuneWidth(r)
		if visible+rw > maxVisible {
			break
		}
		b.WriteRune(r)
		visible += rw
		i += n
	}
	b.WriteRune('…')
	if sawEsc {
		b.WriteString(ansiReset)
	}
	return b.String()
}

func stripANSI(s string) string {
	if !strings.Contains(s, "\x1b") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == 0x1b {
			_, n := readANSISequence(s[i:])
			if n == 0 {
				n = 1
			}
			i += n
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func readANSISequence(s string) (seq string, n int) {
	if len(s) < 2 || s[0] != 0x1b {
		return "", 0
	}
	switch s[1] {
	case '[':
		// CSI: ESC [ ... final-byte(@-~)
		for i := 2; i < len(s); i++ {
			b := s[i]
			if b >= 0x40 && b <= 0x7e {
				return s[:i+1], i + 1
			}
		}
		return s, len(s)
	case ']':
		// OSC: ESC ] ... BEL or ESC \
		for i := 2; i < len(s); i++ {
			if s[i] == 0x07 {
				return s[:i+1], i + 1
			}
			if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
				return s[:i+2], i + 2
			}
		}
		return s, len(s)
	default:
		return s[:2], 2
	}
}

// fitLines truncates every line to width and keeps at most height lines,
// padding with blanks so a panel always fills its region.
func fitLines(lines []string, width, height int) string {
	if height <= 0 {
		return ""
	}
	out := make([]string, 0, height)
	for _, line := range lines {
		if len(out) == height {
			break
		}
		out = append(out, truncateANSI(strings.ReplaceAll(line, "\t", "    "), width))
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func safeOneLine(s string, maxChars int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxChars > 0 && utf8.RuneCountInString(s) > maxChars {
		return string([]rune(s)[:maxChars]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return strings.Split(text, "\n")
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= width {
			out = append(out, line)
			continue
		}
		out = append(out, strings.Split(runewidth.Wrap(line, width), "\n")...)
	}
	return out
}

func clamp(minv int, v int, maxv int) int {
	if v < minv {
		return minv
	}
	if v > maxv {
		return maxv
	}
	return v
}

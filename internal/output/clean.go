// Package output turns raw PTY transcripts into plain text.
package output

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxBytes caps a cleaned transcript so one runaway command cannot
// exhaust gateway memory.
const DefaultMaxBytes = 1024 * 1024 // 1 MiB

// escapes are applied in order. The catch-all CSI expression comes last so
// the narrower forms above it are the ones that normally match.
var escapes = []*regexp.Regexp{
	regexp.MustCompile(`\x1b\[\??\d*[hlABCDEFGHJKSTfmn]`), // cursor movement, DEC mode set/reset
	regexp.MustCompile(`\x1b\[\d*;\d*[Hf]`),              // cursor positioning
	regexp.MustCompile(`\x1b\[\d*[ABCDEFGJKST]`),         // cursor movement, erase
	regexp.MustCompile(`\x1b\][^\x07]*\x07`),             // OSC ... BEL (window titles, hyperlinks)
	regexp.MustCompile(`\x1b\[[\d;]*m`),                  // SGR
	regexp.MustCompile(`\x1b\[\?[\d;]*[a-zA-Z]`),         // DEC private modes
	regexp.MustCompile(`\x1b[78]`),                       // save/restore cursor
	regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`),         // any remaining CSI: params, intermediates, final byte
}

// Clean strips terminal control sequences from text, normalizes line endings
// to LF and trims trailing whitespace from every line and from the result.
//
// Clean is total and idempotent: Clean(Clean(s)) == Clean(s). Removing one
// sequence can splice an ESC onto the start of another, so stripping repeats
// until nothing more matches.
func Clean(text string) string {
	for {
		stripped := stripOnce(text)
		if stripped == text {
			break
		}
		text = stripped
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripOnce(text string) string {
	if !strings.Contains(text, "\x1b") {
		return text
	}
	for _, re := range escapes {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

// Limit truncates text to at most max bytes without splitting a UTF-8
// sequence. A max of zero or less disables the limit.
func Limit(text string, max int) (string, bool) {
	if max <= 0 || len(text) <= max {
		return text, false
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut], true
}

// Package ansi sanitizes and truncates terminal output lines.
//
// The renderer repaints a single terminal line that mixes its own
// formatting with the tail of an arbitrary command's output. Foreign
// escape sequences must be stripped before composition so that a
// command's coloring or cursor movement cannot corrupt the repaint, and
// truncation must respect display cells rather than bytes so that wide
// runes do not push the line past the terminal edge.
package ansi

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// escapePattern matches ANSI escape sequences: CSI (colors, cursor
// movement, erase), OSC (window title, hyperlinks) terminated by BEL or
// ST, and charset selection. Bare brackets in normal text do not match.
var escapePattern = regexp.MustCompile(`\x1b(?:\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(?:\x07|\x1b\\)?|[()][A-Za-z0-9])`)

// Strip removes terminal control sequences from a line, leaving only
// printable text. It is pure and idempotent: stripping an already-clean
// line returns it unchanged.
func Strip(line string) string {
	if !strings.ContainsRune(line, '\x1b') {
		return line
	}
	return escapePattern.ReplaceAllString(line, "")
}

// SplitToWidth fits head+tail into maxColumns display cells, reserving
// one column of headroom so terminals that wrap exactly at the edge do
// not break the repaint. The surviving head is always a rune-safe prefix
// of head; the tail is dropped entirely when the head alone fills the
// budget. Both inputs are assumed to be already sanitized.
func SplitToWidth(head, tail string, maxColumns int) (string, string) {
	budget := maxColumns - 1
	plain := head + tail
	if runewidth.StringWidth(plain) <= budget {
		return head, tail
	}
	headRunes := []rune(head)

	var surviving []rune
	width := 0
	for _, r := range plain {
		w := runewidth.RuneWidth(r)
		if width+w > budget {
			break
		}
		surviving = append(surviving, r)
		width += w
	}

	split := len(headRunes)
	if split > len(surviving) {
		split = len(surviving)
	}
	return string(surviving[:split]), string(surviving[split:])
}

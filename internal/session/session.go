// Package session owns process-wide terminal state: color capability,
// cursor visibility, and the guarantee that both are restored on every
// exit path.
package session

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ANSI fragments used by the session and shared with the renderer.
const (
	grayColor  = "\033[90m"
	resetColor = "\033[0m"
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"
	eraseLine  = "\r\033[K"
)

// Session holds the terminal capabilities probed once at startup. Create
// one per process with New and call Restore on every exit path; Restore
// runs its escape sequence exactly once no matter how many call sites
// fire.
type Session struct {
	out       io.Writer
	colorOK   bool
	cursorMu  sync.Mutex
	cursorHid bool
	restore   sync.Once
}

// New probes the terminal attached to out and returns a session for it.
// Color is enabled only for an interactive terminal with a capable TERM
// and no NO_COLOR override; noColor forces monochrome regardless.
// Everything degrades to plain text, never to an error.
func New(out io.Writer, noColor bool) *Session {
	return &Session{out: out, colorOK: !noColor && detectColor(out)}
}

func detectColor(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if t := os.Getenv("TERM"); t == "dumb" || t == "" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ColorEnabled reports whether the terminal accepted the color probe.
func (s *Session) ColorEnabled() bool {
	return s.colorOK
}

// Gray returns the muted color code for live output previews, or "" when
// color is unavailable.
func (s *Session) Gray() string {
	if !s.colorOK {
		return ""
	}
	return grayColor
}

// Reset returns the formatting reset code, or "" when color is
// unavailable.
func (s *Session) Reset() string {
	if !s.colorOK {
		return ""
	}
	return resetColor
}

// HideCursor hides the cursor while the renderer animates. No-op on
// non-interactive terminals.
func (s *Session) HideCursor() {
	if !s.colorOK {
		return
	}
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	if s.cursorHid {
		return
	}
	s.cursorHid = true
	_, _ = io.WriteString(s.out, hideCursor)
}

// ShowCursor re-enables the cursor after the renderer stops.
func (s *Session) ShowCursor() {
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	if !s.cursorHid {
		return
	}
	s.cursorHid = false
	_, _ = io.WriteString(s.out, showCursor)
}

// Restore resets coloring, erases the current line, and re-enables the
// cursor. Idempotent and reentrant-safe: both the supervisor's interrupt
// teardown and main's deferred cleanup may call it.
func (s *Session) Restore() {
	s.restore.Do(func() {
		if s.colorOK {
			_, _ = io.WriteString(s.out, resetColor+eraseLine+showCursor)
		}
		s.cursorMu.Lock()
		s.cursorHid = false
		s.cursorMu.Unlock()
	})
}

// Columns returns the terminal width for out, or fallback when the size
// cannot be determined (non-tty, exotic environments).
func Columns(out io.Writer, fallback int) int {
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

package session

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_NonTerminalDisablesColor(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, false)
	if s.ColorEnabled() {
		t.Error("color enabled for a non-terminal writer")
	}
	if s.Gray() != "" || s.Reset() != "" {
		t.Error("Gray/Reset should be empty without color")
	}
}

func TestNew_NoColorFlagWins(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, true)
	if s.ColorEnabled() {
		t.Error("noColor flag did not disable color")
	}
}

func TestHideShowCursor(t *testing.T) {
	var buf bytes.Buffer
	s := &Session{out: &buf, colorOK: true}

	s.HideCursor()
	s.HideCursor()
	if got := buf.String(); got != hideCursor {
		t.Errorf("double HideCursor wrote %q, want one %q", got, hideCursor)
	}

	buf.Reset()
	s.ShowCursor()
	s.ShowCursor()
	if got := buf.String(); got != showCursor {
		t.Errorf("double ShowCursor wrote %q, want one %q", got, showCursor)
	}
}

func TestRestore_Idempotent(t *testing.T) {
	var buf bytes.Buffer
	s := &Session{out: &buf, colorOK: true}
	s.HideCursor()
	buf.Reset()

	s.Restore()
	first := buf.String()
	if !strings.Contains(first, showCursor) || !strings.Contains(first, resetColor) {
		t.Errorf("Restore wrote %q, want reset and cursor show", first)
	}

	s.Restore()
	if buf.String() != first {
		t.Errorf("second Restore wrote more output: %q", buf.String())
	}
}

func TestRestore_SilentWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, false)
	s.Restore()
	if buf.Len() != 0 {
		t.Errorf("Restore on a plain writer wrote %q", buf.String())
	}
}

func TestColumns_FallbackForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if got := Columns(&buf, 120); got != 120 {
		t.Errorf("Columns() = %d, want fallback 120", got)
	}
}

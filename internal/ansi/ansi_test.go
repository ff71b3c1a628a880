package ansi

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestStrip_RemovesColorCodes(t *testing.T) {
	in := "\033[31mred\033[0m plain \033[1;32mgreen\033[0m"
	got := Strip(in)
	if got != "red plain green" {
		t.Errorf("Strip(%q) = %q", in, got)
	}
}

func TestStrip_RemovesCursorAndEraseSequences(t *testing.T) {
	in := "\033[2Kcleared\033[1A\rdone"
	got := Strip(in)
	if got != "cleared\rdone" {
		t.Errorf("Strip(%q) = %q", in, got)
	}
}

func TestStrip_RemovesOSCTitle(t *testing.T) {
	in := "\033]0;window title\007text"
	got := Strip(in)
	if got != "text" {
		t.Errorf("Strip(%q) = %q", in, got)
	}
}

func TestStrip_PreservesLiteralBrackets(t *testing.T) {
	in := "progress [42/100] done"
	if got := Strip(in); got != in {
		t.Errorf("Strip(%q) = %q, want unchanged", in, got)
	}
}

func TestStrip_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"\033[31mred\033[0m",
		"[not an escape]",
		"\033[38;5;252mextended\033[0m tail",
		"mixed \033]0;t\007 and \033[2K stuff",
	}
	for _, in := range inputs {
		once := Strip(in)
		twice := Strip(once)
		if once != twice {
			t.Errorf("Strip not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSplitToWidth_FitsUnchanged(t *testing.T) {
	head, tail := SplitToWidth("abc ", "def", 40)
	if head != "abc " || tail != "def" {
		t.Errorf("got (%q, %q), want inputs unchanged", head, tail)
	}
}

func TestSplitToWidth_TruncatesTail(t *testing.T) {
	head, tail := SplitToWidth("head: ", strings.Repeat("x", 100), 20)
	if head != "head: " {
		t.Errorf("head = %q, want intact", head)
	}
	if len(tail) != 19-len("head: ") {
		t.Errorf("tail length = %d, want %d", len(tail), 19-len("head: "))
	}
}

func TestSplitToWidth_HeadExceedsBudget(t *testing.T) {
	head := strings.Repeat("h", 50)
	gotHead, gotTail := SplitToWidth(head, "tail", 40)
	if gotTail != "" {
		t.Errorf("tail = %q, want empty when head fills the width", gotTail)
	}
	if len(gotHead) != 39 {
		t.Errorf("head length = %d, want 39", len(gotHead))
	}
	if !strings.HasPrefix(head, gotHead) {
		t.Errorf("surviving head %q is not a prefix of %q", gotHead, head)
	}
}

func TestSplitToWidth_MinimumColumns(t *testing.T) {
	head, tail := SplitToWidth("abc", "def", 1)
	if head != "" || tail != "" {
		t.Errorf("got (%q, %q), want empty at one column", head, tail)
	}
}

func TestSplitToWidth_WideRunes(t *testing.T) {
	// Each CJK rune occupies two display cells.
	head, tail := SplitToWidth("番号 ", strings.Repeat("値", 20), 12)
	if w := runewidth.StringWidth(head + tail); w > 11 {
		t.Errorf("rendered width = %d, want <= 11", w)
	}
}

func TestSplitToWidth_NeverExceedsBudget(t *testing.T) {
	heads := []string{"", "h", "⠋ short : ", strings.Repeat("long-head ", 10)}
	tails := []string{"", "t", strings.Repeat("output line ", 30)}
	for _, h := range heads {
		for _, ta := range tails {
			for _, max := range []int{1, 2, 10, 40, 120} {
				gotHead, gotTail := SplitToWidth(h, ta, max)
				if w := runewidth.StringWidth(gotHead + gotTail); w > max-1 {
					t.Errorf("SplitToWidth(%q, %q, %d) rendered width %d exceeds %d",
						h, ta, max, w, max-1)
				}
				if !strings.HasPrefix(h, gotHead) {
					t.Errorf("surviving head %q not a prefix of %q", gotHead, h)
				}
			}
		}
	}
}

package taskrun

import (
	"strings"
	"time"
)

// SpinnerFrames defines the named spinner styles.
var SpinnerFrames = map[string][]string{
	"dots":   {"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	"line":   {"-", "\\", "|", "/"},
	"arc":    {"◜", "◠", "◝", "◞", "◡", "◟"},
	"star":   {"✶", "✸", "✹", "✺", "✹", "✸"},
	"grow":   {"▁", "▃", "▄", "▅", "▆", "▇", "█", "▇", "▆", "▅", "▄", "▃"},
	"arrows": {"←", "↖", "↑", "↗", "→", "↘", "↓", "↙"},
	"ascii":  {"-", "\\", "|", "/"},
}

// DefaultSpinnerStyle names the style used when none is configured.
const DefaultSpinnerStyle = "dots"

// DefaultInterval is the render cycle period when none is configured.
// The installers this tool grew out of varied between 150ms and 250ms;
// the interval is a knob, not a contract.
const DefaultInterval = 200 * time.Millisecond

// ParseSpinnerChars parses a custom frame specification: either
// space-separated frames or a run of individual Unicode glyphs.
func ParseSpinnerChars(chars string) []string {
	chars = strings.TrimSpace(chars)
	if chars == "" {
		return nil
	}

	if strings.Contains(chars, " ") {
		return strings.Fields(chars)
	}

	var frames []string
	for _, r := range chars {
		frames = append(frames, string(r))
	}
	return frames
}

// ResolveFrames picks frames by priority: custom frames, then a named
// style, then the default style.
func ResolveFrames(custom []string, style string) []string {
	if len(custom) > 0 {
		return custom
	}
	if style != "" {
		if frames, ok := SpinnerFrames[style]; ok {
			return frames
		}
	}
	return SpinnerFrames[DefaultSpinnerStyle]
}

package taskrun

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dkoosis/taskrun/internal/ansi"
	"github.com/dkoosis/taskrun/internal/session"
)

// DefaultColumns is the terminal width fallback when detection fails.
const DefaultColumns = 120

// LineSource supplies the most recent output line for the live preview.
// *sink.Sink satisfies it.
type LineSource interface {
	LastLine() string
}

type rendererState int

const (
	stateIdle rendererState = iota
	stateRunning
	stateStopped
)

// RendererConfig configures a StatusRenderer.
type RendererConfig struct {
	Frames          []string      // spinner glyphs; default style when empty
	Interval        time.Duration // render cycle period; DefaultInterval when 0
	Columns         int           // terminal width; probed from Out when 0
	FallbackColumns int           // width when probing fails; DefaultColumns when 0
	Gray            string        // color code for the output preview
	Reset           string        // formatting reset code
	Out             io.Writer     // terminal writer
}

// StatusRenderer repaints a single terminal line with a spinner frame,
// a task description, and the tail of the task's captured output. It
// runs one goroutine between Start and Stop; Stop joins that goroutine,
// so no paint can land after Stop returns.
type StatusRenderer struct {
	cfg RendererConfig

	mu          sync.Mutex
	state       rendererState
	description string
	src         LineSource
	columns     int
	frameIdx    int
	lastPainted string
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewStatusRenderer creates a renderer in the Idle state.
func NewStatusRenderer(cfg RendererConfig) *StatusRenderer {
	if len(cfg.Frames) == 0 {
		cfg.Frames = SpinnerFrames[DefaultSpinnerStyle]
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FallbackColumns <= 0 {
		cfg.FallbackColumns = DefaultColumns
	}
	return &StatusRenderer{cfg: cfg}
}

// Start transitions Idle → Running and begins the periodic cycle. The
// terminal width is captured once here and used for the whole task.
// Starting a renderer that is not Idle is a no-op.
func (r *StatusRenderer) Start(description string, src LineSource) {
	r.mu.Lock()
	if r.state != stateIdle {
		r.mu.Unlock()
		return
	}
	r.state = stateRunning
	r.description = description
	r.src = src
	r.columns = r.cfg.Columns
	if r.columns <= 0 {
		r.columns = session.Columns(r.cfg.Out, r.cfg.FallbackColumns)
	}
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.run()
}

// Stop transitions to Stopped, waits for any in-flight cycle to finish,
// and leaves the terminal line erased so the caller's marker line prints
// cleanly. Idempotent; safe before Start.
func (r *StatusRenderer) Stop() {
	r.mu.Lock()
	switch r.state {
	case stateIdle:
		r.state = stateStopped
		r.mu.Unlock()
		return
	case stateStopped:
		done := r.doneCh
		r.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	case stateRunning:
		r.state = stateStopped
		close(r.stopCh)
	}
	done := r.doneCh
	r.mu.Unlock()

	<-done
}

func (r *StatusRenderer) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.cycle()
	for {
		select {
		case <-r.stopCh:
			r.eraseLine()
			return
		case <-ticker.C:
			r.cycle()
		}
	}
}

// cycle performs one render pass: read, sanitize, truncate, compose,
// and repaint only when the composed line changed.
func (r *StatusRenderer) cycle() {
	r.mu.Lock()
	frame := r.cfg.Frames[r.frameIdx]
	r.frameIdx = (r.frameIdx + 1) % len(r.cfg.Frames)
	description := r.description
	columns := r.columns
	src := r.src
	r.mu.Unlock()

	preview := ""
	if src != nil {
		preview = ansi.Strip(src.LastLine())
	}

	head := frame + " " + description + " : "
	head, tail := ansi.SplitToWidth(head, preview, columns)
	composed := r.cfg.Reset + head + r.cfg.Gray + tail + r.cfg.Reset

	r.mu.Lock()
	changed := composed != r.lastPainted
	if changed {
		r.lastPainted = composed
	}
	r.mu.Unlock()

	if changed {
		fmt.Fprint(r.cfg.Out, "\r\033[K"+composed)
	}
}

func (r *StatusRenderer) eraseLine() {
	r.mu.Lock()
	painted := r.lastPainted != ""
	r.lastPainted = ""
	r.mu.Unlock()
	if painted {
		fmt.Fprint(r.cfg.Out, "\r\033[K")
	}
}

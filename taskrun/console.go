// Package taskrun supervises long-running external commands. Each task
// prints a starting marker, animates a single status line showing the
// command's most recent output, and ends with a success or failure
// marker; a failed command's complete captured output is revealed
// between error-log delimiters. Failure is fatal to the calling script:
// there is no retry at this layer.
package taskrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/dkoosis/taskrun/internal/session"
	"github.com/dkoosis/taskrun/internal/sink"
)

const (
	// SignalTimeout is how long a forwarded signal may go unanswered
	// before the process group is force-killed.
	SignalTimeout = 2 * time.Second

	startMarker   = "⏳"
	successMarker = "✅"
	failMarker    = "❌"

	errorLogHeader = "--- ERROR LOG ---"
	errorLogFooter = "--- END OF ERROR LOG ---"
)

// ConsoleConfig configures a Console.
type ConsoleConfig struct {
	Frames          []string      // spinner frames; default style when empty
	Interval        time.Duration // render interval; DefaultInterval when 0
	Columns         int           // terminal width override; probed when 0
	FallbackColumns int           // width when probing fails; DefaultColumns when 0
	NoColor         bool          // force monochrome output
	ForceTTY        *bool         // force or suppress animation; nil means auto-detect
	Debug           bool
	Out             io.Writer        // terminal writer, defaults to os.Stdout
	Err             io.Writer        // diagnostics writer, defaults to os.Stderr
	Session         *session.Session // terminal session; created from Out when nil
}

// TaskResult reports one supervised execution.
type TaskResult struct {
	Description string
	ExitCode    int
	Duration    time.Duration
	Err         error

	sinkPath string // retained for tests; the file is gone by return time
}

// ErrNonZeroExit is returned when a command completes but exits with a
// non-zero code. Use errors.Is(err, ErrNonZeroExit) to check for it.
var ErrNonZeroExit = errors.New("command exited with non-zero code")

// ExitCodeError wraps an exit code for programmatic access. Use
// errors.As to extract it from Run or RunSimple errors.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Console runs tasks one at a time against a single terminal.
type Console struct {
	cfg  ConsoleConfig
	sess *session.Session
}

// DefaultConsole returns a console with default configuration.
func DefaultConsole() *Console {
	return NewConsole(ConsoleConfig{})
}

// NewConsole creates a console, filling unset writers and session.
func NewConsole(cfg ConsoleConfig) *Console {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Err == nil {
		cfg.Err = os.Stderr
	}
	if cfg.Session == nil {
		cfg.Session = session.New(cfg.Out, cfg.NoColor)
	}
	if len(cfg.Frames) == 0 {
		cfg.Frames = SpinnerFrames[DefaultSpinnerStyle]
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Console{cfg: cfg, sess: cfg.Session}
}

// Session exposes the console's terminal session so callers can register
// its Restore on their exit paths.
func (c *Console) Session() *session.Session {
	return c.sess
}

// Run supervises one command: marker line, live status rendering, and a
// final success or failure report. The caller blocks until the command
// exits; only the renderer runs concurrently.
//
// Error semantics follow the usual exec conventions:
//   - (result, nil) when the command exits zero
//   - (result, error wrapping the exec.ExitError) on non-zero exit
//   - (result, error) for infrastructure failures (command not found,
//     pipe errors); ExitCode is 127 for missing commands
func (c *Console) Run(description, command string, args ...string) (*TaskResult, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, getInterruptSignals()...)

	return c.runContext(ctx, cancel, sigChan, description, command, args)
}

// RunSimple is a convenience wrapper for callers that only need
// success vs failure. Non-zero exits come back as ErrNonZeroExit
// wrapped with an ExitCodeError.
func (c *Console) RunSimple(description, command string, args ...string) error {
	result, err := c.Run(description, command, args...)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %w", ErrNonZeroExit, ExitCodeError{Code: result.ExitCode})
	}
	return err
}

func (c *Console) runContext(
	ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal,
	description, command string, args []string,
) (*TaskResult, error) {
	start := time.Now()
	result := &TaskResult{Description: description}

	fmt.Fprintln(c.cfg.Out, startMarker+" "+description)

	snk, err := sink.New()
	if err != nil {
		signal.Stop(sigChan)
		result.ExitCode = 1
		result.Err = err
		result.Duration = time.Since(start)
		fmt.Fprintln(c.cfg.Err, "taskrun: "+err.Error())
		return result, err
	}
	result.sinkPath = snk.Path()

	renderer := NewStatusRenderer(RendererConfig{
		Frames:          c.cfg.Frames,
		Interval:        c.cfg.Interval,
		Columns:         c.cfg.Columns,
		FallbackColumns: c.cfg.FallbackColumns,
		Gray:            c.sess.Gray(),
		Reset:           c.sess.Reset(),
		Out:             c.cfg.Out,
	})
	// Only animate against a real terminal; a piped run keeps the marker
	// lines but skips the repaint cycle.
	if c.animate() {
		c.sess.HideCursor()
		defer c.sess.ShowCursor()
		renderer.Start(description, snk)
	}
	defer renderer.Stop()

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = os.Environ()
	setProcessGroup(cmd)

	pr, pw, err := os.Pipe()
	if err != nil {
		signal.Stop(sigChan)
		renderer.Stop()
		_ = snk.Destroy()
		result.ExitCode = 1
		result.Err = err
		result.Duration = time.Since(start)
		c.printFailure(description, "")
		return result, fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		signal.Stop(sigChan)
		_ = pw.Close()
		_ = pr.Close()
		renderer.Stop()
		_ = snk.Destroy()
		result.ExitCode = exitCodeFor(err, c.cfg.Debug, c.cfg.Err)
		result.Err = err
		result.Duration = time.Since(start)
		c.printFailure(description, "")
		fmt.Fprintf(c.cfg.Err, "taskrun: error starting %q: %v\n", strings.Join(cmd.Args, " "), err)
		return result, err
	}
	// The child holds its own copy of the write end; close ours so the
	// drain goroutine sees EOF when the process group is done.
	_ = pw.Close()

	var drain sync.WaitGroup
	drain.Add(1)
	go func() {
		defer drain.Done()
		_ = snk.AppendFrom(pr)
		_ = pr.Close()
	}()

	cmdDone := make(chan struct{})
	signalHandlerDone := make(chan struct{})
	go c.handleSignals(ctx, cancel, sigChan, cmd, cmdDone, signalHandlerDone)

	runErr := cmd.Wait()
	drain.Wait()
	close(cmdDone)
	<-signalHandlerDone

	renderer.Stop()
	c.sess.ShowCursor()

	result.ExitCode = exitCodeFor(runErr, c.cfg.Debug, c.cfg.Err)
	result.Err = runErr
	result.Duration = time.Since(start)

	if runErr == nil {
		fmt.Fprintln(c.cfg.Out, successMarker+" "+description)
		_ = snk.Destroy()
		return result, nil
	}

	contents, readErr := snk.Contents()
	if readErr != nil && c.cfg.Debug {
		fmt.Fprintf(c.cfg.Err, "[DEBUG runContext] reading sink: %v\n", readErr)
	}
	_ = snk.Destroy()
	c.printFailure(description, contents)

	return result, fmt.Errorf("%s: %w", description, runErr)
}

// animate reports whether the status renderer should run. Auto-detection
// follows the out writer; ForceTTY overrides it (tests and the plan
// runner use this).
func (c *Console) animate() bool {
	if c.cfg.ForceTTY != nil {
		return *c.cfg.ForceTTY
	}
	f, ok := c.cfg.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// handleSignals forwards an interrupt to the supervised process group,
// escalating to SIGKILL when the group ignores it, and restores the
// terminal session so an interrupted run leaves a usable terminal.
func (c *Console) handleSignals(
	ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal,
	cmd *exec.Cmd, cmdDone, done chan struct{},
) {
	defer func() {
		signal.Stop(sigChan)
		close(done)
	}()

	select {
	case sig := <-sigChan:
		if c.cfg.Debug {
			fmt.Fprintf(c.cfg.Err, "[DEBUG handleSignals] received %v, forwarding\n", sig)
		}
		if cmd.Process == nil {
			cancel()
			return
		}
		if err := killProcessGroup(cmd, sig); err != nil && c.cfg.Debug {
			fmt.Fprintf(c.cfg.Err, "[DEBUG handleSignals] kill: %v\n", err)
		}
		select {
		case <-cmdDone:
		case <-time.After(SignalTimeout):
			if cmd.Process != nil && cmd.ProcessState == nil {
				_ = killProcessGroupWithSIGKILL(cmd)
			}
			cancel()
		}
		c.sess.Restore()
	case <-ctx.Done():
		if cmd.Process != nil && cmd.ProcessState == nil {
			_ = killProcessGroupWithSIGKILL(cmd)
		}
	case <-cmdDone:
	}
}

// printFailure writes the failure marker and, when output was captured,
// the full error log between explicit delimiters.
func (c *Console) printFailure(description, contents string) {
	fmt.Fprintln(c.cfg.Out, failMarker+" "+description+" failed.")
	if contents == "" {
		return
	}
	fmt.Fprintln(c.cfg.Out, errorLogHeader)
	if !strings.HasSuffix(contents, "\n") {
		contents += "\n"
	}
	fmt.Fprint(c.cfg.Out, contents)
	fmt.Fprintln(c.cfg.Out, errorLogFooter)
}

func exitCodeFor(err error, debug bool, errOut io.Writer) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code, ok := getExitCodeFromError(exitErr); ok {
			return code
		}
		if debug {
			fmt.Fprintf(errOut, "[DEBUG exitCodeFor] ExitError.Sys() not WaitStatus: %T\n", exitErr.Sys())
		}
		return 1
	}

	if isCommandNotFoundError(err) {
		return 127
	}
	return 1
}

// isCommandNotFoundError checks for the standard exec.ErrNotFound plus
// platform-specific string fallbacks.
func isCommandNotFoundError(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	errStr := err.Error()
	if strings.Contains(errStr, "executable file not found") {
		return true
	}
	if runtime.GOOS != "windows" && strings.Contains(errStr, "no such file or directory") {
		return true
	}
	return false
}

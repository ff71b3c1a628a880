// Package dashboard renders a full-screen view of a running plan: the
// step list with status icons, a spinner on the active step, and the
// tail of its output. Steps run sequentially, matching the runner's
// abort-on-first-failure policy.
package dashboard

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/dkoosis/taskrun/internal/plan"
)

// StepStatus represents a step's runtime state.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepSuccess
	StepFailed
	StepSkipped
)

// tailLines is how many output lines each step retains for display.
const tailLines = 200

// StepState is the execution state of one plan step. The runner
// goroutine writes it while the view reads it on every spinner tick, so
// every mutable field lives behind the mutex; read through the
// accessors.
type StepState struct {
	Spec plan.Step

	mu         sync.Mutex
	status     StepStatus
	exitCode   int
	startedAt  time.Time
	finishedAt time.Time
	tail       []string
}

// StepUpdate streams runtime changes to the view.
type StepUpdate struct {
	Index    int
	Status   StepStatus
	Line     string
	ExitCode int
}

// Status returns the step's current state.
func (s *StepState) Status() StepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ExitCode returns the step's exit code, or -1 while it has not
// finished.
func (s *StepState) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

func (s *StepState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepRunning
	s.startedAt = time.Now()
}

func (s *StepState) finish(status StepStatus, exitCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.exitCode = exitCode
	s.finishedAt = time.Now()
}

// skipIfPending marks a never-started step skipped and reports whether
// it did so.
func (s *StepState) skipIfPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StepPending {
		return false
	}
	s.status = StepSkipped
	return true
}

func (s *StepState) appendLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tail = append(s.tail, line)
	if len(s.tail) > tailLines {
		s.tail = s.tail[len(s.tail)-tailLines:]
	}
}

// Tail returns a copy of the retained output lines.
func (s *StepState) Tail() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tail...)
}

// Duration returns elapsed time for the step.
func (s *StepState) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	if s.finishedAt.IsZero() {
		return time.Since(s.startedAt)
	}
	return s.finishedAt.Sub(s.startedAt)
}

// startPlan runs the plan's steps in order on a background goroutine and
// streams updates. A failed step (unless allow_failure) marks the
// remaining steps skipped and stops the run. Cancelling ctx kills the
// in-flight step's process; the caller must drain updates so the
// goroutine can finish and close the channel.
func startPlan(ctx context.Context, p *plan.Plan) ([]*StepState, <-chan StepUpdate) {
	states := make([]*StepState, len(p.Steps))
	for i, step := range p.Steps {
		states[i] = &StepState{Spec: step, exitCode: -1}
	}
	updates := make(chan StepUpdate)

	go func() {
		defer close(updates)
		for i, state := range states {
			if ctx.Err() != nil {
				markSkipped(states[i:], i, updates)
				return
			}
			runStep(ctx, i, state, updates)
			if state.Status() == StepFailed && !state.Spec.AllowFailure {
				markSkipped(states[i+1:], i+1, updates)
				return
			}
		}
	}()

	return states, updates
}

func markSkipped(states []*StepState, offset int, updates chan<- StepUpdate) {
	for j, state := range states {
		if state.skipIfPending() {
			updates <- StepUpdate{Index: offset + j, Status: StepSkipped}
		}
	}
}

func runStep(ctx context.Context, index int, state *StepState, updates chan<- StepUpdate) {
	argv := state.Spec.Command
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = os.Environ()

	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()

	state.start()
	updates <- StepUpdate{Index: index, Status: StepRunning}

	if err := cmd.Start(); err != nil {
		state.appendLine(err.Error())
		state.finish(StepFailed, 127)
		updates <- StepUpdate{Index: index, Status: StepFailed, Line: err.Error(), ExitCode: 127}
		return
	}

	merged := make(chan string)
	var streams sync.WaitGroup
	streams.Add(2)
	go readStream(&streams, stdout, merged)
	go readStream(&streams, stderr, merged)
	go func() {
		streams.Wait()
		close(merged)
	}()

	for line := range merged {
		state.appendLine(line)
		updates <- StepUpdate{Index: index, Status: StepRunning, Line: line}
	}

	err := cmd.Wait()
	status, exitCode := StepSuccess, 0
	if err != nil {
		status = StepFailed
		exitCode = 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}
	state.finish(status, exitCode)
	updates <- StepUpdate{Index: index, Status: status, ExitCode: exitCode}
}

func readStream(wg *sync.WaitGroup, r io.Reader, merged chan<- string) {
	defer wg.Done()
	if r == nil {
		return
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		merged <- scanner.Text()
	}
}

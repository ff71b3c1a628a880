//go:build !unix

package taskrun

import (
	"os"
	"os/exec"
)

// setProcessGroup is a no-op where process groups are unavailable; a
// supervised command's children are on their own here.
func setProcessGroup(cmd *exec.Cmd) {
}

// killProcessGroup signals only the direct child. Helpers the command
// spawned are not reached, unlike the Unix group delivery.
func killProcessGroup(cmd *exec.Cmd, sig os.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(sig)
}

// killProcessGroupWithSIGKILL force-kills the direct child after a
// forwarded signal goes unanswered for SignalTimeout.
func killProcessGroupWithSIGKILL(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// getExitCodeFromError recovers the supervised command's exit status.
// ProcessState.ExitCode works on every platform since Go 1.12.
func getExitCodeFromError(exitErr *exec.ExitError) (int, bool) {
	if exitErr.ProcessState != nil {
		return exitErr.ProcessState.ExitCode(), true
	}
	return 0, false
}

// getInterruptSignals lists the signals the runner forwards to the
// supervised command where only os.Interrupt is portable.
func getInterruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

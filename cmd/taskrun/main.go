// taskrun supervises long-running commands with a live status line.
//
// Usage:
//
//	taskrun [flags] -- <COMMAND> [ARGS...]
//	taskrun plan [flags] <PLAN.yaml>
//
// A supervised command prints a starting marker, animates a single
// status line showing the latest output, and ends with a success or
// failure marker. On failure the complete captured output is printed
// between ERROR LOG delimiters and taskrun exits non-zero.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dkoosis/taskrun/internal/config"
	"github.com/dkoosis/taskrun/internal/dashboard"
	"github.com/dkoosis/taskrun/internal/plan"
	"github.com/dkoosis/taskrun/internal/session"
	"github.com/dkoosis/taskrun/internal/version"
	"github.com/dkoosis/taskrun/taskrun"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the application logic and returns the exit code. Keeping
// os.Exit out of here lets tests invoke the CLI directly.
func run(args []string, stdout, stderr io.Writer) int {
	// Subcommand dispatch happens before flag parsing.
	if len(args) > 0 && args[0] == "plan" {
		return runPlan(args[1:], stdout, stderr)
	}

	flagArgs, cmdArgs := splitAtDashDash(args)

	fs := flag.NewFlagSet("taskrun", flag.ContinueOnError)
	fs.SetOutput(stderr)
	label := fs.String("l", "", "task description (defaults to the command name)")
	spinnerStyle := fs.String("spinner", "", "spinner style (dots, line, arc, star, grow, arrows, ascii)")
	spinnerChars := fs.String("spinner-chars", "", "custom spinner frames (space-separated or a run of glyphs)")
	interval := fs.Duration("interval", 0, "render interval (e.g. 200ms)")
	noColor := fs.Bool("no-color", false, "disable colored output")
	debug := fs.Bool("debug", false, "enable debug diagnostics on stderr")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(flagArgs); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "taskrun version %s\n", version.Version)
		fmt.Fprintf(stdout, "Commit: %s\n", version.CommitHash)
		fmt.Fprintf(stdout, "Built: %s\n", version.BuildDate)
		return 0
	}

	if len(cmdArgs) == 0 {
		fmt.Fprintln(stderr, "Error: no command specified after --")
		fmt.Fprintln(stderr, "Usage: taskrun [flags] -- <COMMAND> [ARGS...]")
		return 2
	}

	cliFlags := config.CliFlags{
		Label:        *label,
		Spinner:      *spinnerStyle,
		SpinnerChars: *spinnerChars,
		Interval:     *interval,
		NoColor:      *noColor,
		Debug:        *debug,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "spinner":
			cliFlags.SpinnerSet = true
		case "interval":
			cliFlags.IntervalSet = true
		case "no-color":
			cliFlags.NoColorSet = true
		}
	})
	settings := config.Merge(config.Load(), cliFlags)

	description := *label
	if description == "" {
		description = filepath.Base(cmdArgs[0])
	}

	console := newConsole(settings, stdout, stderr)
	defer console.Session().Restore()

	result, err := console.Run(description, cmdArgs[0], cmdArgs[1:]...)
	if err != nil {
		if result.ExitCode > 0 {
			return result.ExitCode
		}
		return 1
	}
	return 0
}

// runPlan executes a YAML step plan, either with the single-line runner
// per step or with the full-screen dashboard.
func runPlan(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("taskrun plan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	useDashboard := fs.Bool("dashboard", false, "render the plan in a full-screen dashboard")
	spinnerStyle := fs.String("spinner", "", "spinner style")
	spinnerChars := fs.String("spinner-chars", "", "custom spinner frames")
	interval := fs.Duration("interval", 0, "render interval")
	noColor := fs.Bool("no-color", false, "disable colored output")
	debug := fs.Bool("debug", false, "enable debug diagnostics on stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: taskrun plan [flags] <PLAN.yaml>")
		return 2
	}

	p, err := plan.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "taskrun: %v\n", err)
		return 2
	}

	if *useDashboard {
		code, err := dashboard.Run(context.Background(), p)
		if err != nil {
			fmt.Fprintf(stderr, "taskrun: %v\n", err)
			return 1
		}
		return code
	}

	cliFlags := config.CliFlags{
		Spinner:      *spinnerStyle,
		SpinnerChars: *spinnerChars,
		Interval:     *interval,
		NoColor:      *noColor,
		Debug:        *debug,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "spinner":
			cliFlags.SpinnerSet = true
		case "interval":
			cliFlags.IntervalSet = true
		case "no-color":
			cliFlags.NoColorSet = true
		}
	})
	settings := config.Merge(config.Load(), cliFlags)

	console := newConsole(settings, stdout, stderr)
	defer console.Session().Restore()

	for _, step := range p.Steps {
		result, err := console.Run(step.Label, step.Command[0], step.Command[1:]...)
		if err != nil && !step.AllowFailure {
			if result.ExitCode > 0 {
				return result.ExitCode
			}
			return 1
		}
	}
	return 0
}

func newConsole(settings config.Settings, stdout, stderr io.Writer) *taskrun.Console {
	return taskrun.NewConsole(taskrun.ConsoleConfig{
		Frames:          taskrun.ResolveFrames(taskrun.ParseSpinnerChars(settings.SpinnerChars), settings.Spinner),
		Interval:        settings.Interval,
		FallbackColumns: settings.Columns,
		NoColor:         settings.NoColor,
		Debug:           settings.Debug,
		Out:             stdout,
		Err:             stderr,
		Session:         session.New(stdout, settings.NoColor),
	})
}

// splitAtDashDash separates taskrun's own flags from the supervised
// command's argv.
func splitAtDashDash(args []string) (flagArgs, cmdArgs []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

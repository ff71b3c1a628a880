//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/dkoosis/taskrun/taskrun"
)

var console = taskrun.DefaultConsole()

// Default target - build the binary
var Default = Build

// Build builds the taskrun binary into bin/.
func Build() error {
	if err := os.MkdirAll("bin", 0o755); err != nil {
		return err
	}
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if version == "" {
		version = "dev"
	}
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	ldflags := fmt.Sprintf(
		"-X github.com/dkoosis/taskrun/internal/version.Version=%s -X github.com/dkoosis/taskrun/internal/version.CommitHash=%s",
		version, commit)
	_, err := console.Run("Build taskrun", "go", "build", "-ldflags", ldflags, "-o", "bin/taskrun", "./cmd/taskrun")
	return err
}

// Test runs the test suite with the race detector.
func Test() error {
	_, err := console.Run("Go Test", "go", "test", "-race", "./...")
	return err
}

// Vet runs go vet across the module.
func Vet() error {
	_, err := console.Run("Go Vet", "go", "vet", "./...")
	return err
}

// QA runs vet then tests.
func QA() error {
	mg.SerialDeps(Vet, Test)
	return nil
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm("bin")
}
